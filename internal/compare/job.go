package compare

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gitgud-app/gitgud/internal/match"
)

// JobTimeout bounds one background comparison end to end.
const JobTimeout = 2 * time.Minute

// Job runs comparisons for PVP matches in the background and reports the
// result back to the coordinator.
type Job struct {
	service *Service
	coord   *match.Coordinator
	log     *logrus.Entry
}

// NewJob creates a PVP comparison job backed by the given service.
func NewJob(service *Service, coord *match.Coordinator) *Job {
	return &Job{
		service: service,
		coord:   coord,
		log:     logrus.WithField("component", "compare-job"),
	}
}

// Run starts a comparison for a match without blocking the caller. On success
// the result and outcome are delivered through the coordinator; on failure the
// match is left in progress and the error is only logged.
func (j *Job) Run(matchID string, player1, player2 match.Player) {
	go j.run(matchID, player1, player2)
}

func (j *Job) run(matchID string, player1, player2 match.Player) {
	log := j.log.WithFields(logrus.Fields{
		"match_id": matchID,
		"player1":  player1.Username,
		"player2":  player2.Username,
	})
	log.Info("starting match comparison")

	ctx, cancel := context.WithTimeout(context.Background(), JobTimeout)
	defer cancel()

	result, err := j.service.Compare(ctx, player1.Username, player2.Username, "en")
	if err != nil {
		log.WithError(err).Error("match comparison failed")
		return
	}
	result.RequestID = "pvp-" + matchID

	raw, err := json.Marshal(result)
	if err != nil {
		log.WithError(err).Error("failed to encode comparison result")
		return
	}

	var outcome *match.Outcome
	if winner, loser := result.Outcome(); winner != "" {
		outcome = &match.Outcome{Winner: winner, Loser: loser}
	}

	j.coord.SetResult(matchID, raw, outcome)
	log.WithField("winner", result.Verdict.Winner).Info("match comparison completed")
}
