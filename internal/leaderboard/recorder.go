// Package leaderboard persists decided match outcomes as win/loss records.
package leaderboard

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/gitgud-app/gitgud/internal/match"
	"github.com/gitgud-app/gitgud/internal/store"
)

// Recorder consumes coordinator events and writes decided outcomes to the
// store. Ties carry a nil outcome and are not recorded.
type Recorder struct {
	store store.Store
	log   *logrus.Entry
}

// NewRecorder creates a leaderboard recorder.
func NewRecorder(st store.Store) *Recorder {
	return &Recorder{
		store: st,
		log:   logrus.WithField("component", "leaderboard"),
	}
}

// Run consumes events until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context, events <-chan match.Event) {
	r.log.Info("leaderboard recorder started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("leaderboard recorder shutting down")
			return
		case e := <-events:
			r.handleEvent(ctx, e)
		}
	}
}

func (r *Recorder) handleEvent(ctx context.Context, e match.Event) {
	completed, ok := e.(match.MatchCompleted)
	if !ok {
		return
	}
	if completed.Outcome == nil {
		r.log.WithField("matchId", completed.Match.ID).Info("match ended in a tie, nothing to record")
		return
	}

	if err := r.store.RecordMatchResult(ctx, completed.Outcome.Winner, completed.Outcome.Loser); err != nil {
		r.log.WithError(err).WithField("matchId", completed.Match.ID).Error("failed to record match result")
		return
	}

	r.log.WithFields(logrus.Fields{
		"matchId": completed.Match.ID,
		"winner":  completed.Outcome.Winner,
		"loser":   completed.Outcome.Loser,
	}).Info("recorded match result")
}
