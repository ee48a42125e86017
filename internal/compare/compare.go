// Package compare runs the signals -> roasts -> verdict pipeline shared by
// the synchronous /compare endpoint and the asynchronous PVP job.
package compare

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gitgud-app/gitgud/internal/cache"
	"github.com/gitgud-app/gitgud/internal/github"
	"github.com/gitgud-app/gitgud/internal/llm"
)

// Pipeline defaults. PVP comparisons always use these; the /compare endpoint
// uses them too.
const (
	MaxRepos  = 5
	Intensity = llm.IntensityMedium
)

// Result is the full comparison payload returned to clients and stored on a
// completed match.
type Result struct {
	RequestID string          `json:"request_id"`
	User1     llm.UserSummary `json:"user1"`
	User2     llm.UserSummary `json:"user2"`
	Verdict   *llm.Verdict    `json:"verdict"`
}

// Service orchestrates the external calls behind a comparison. Signals and
// roasts are cached; the verdict is always fresh.
type Service struct {
	github  *github.Client
	llm     *llm.Client
	signals *cache.SignalCache
	roasts  *cache.RoastCache
}

// NewService creates a comparison service.
func NewService(gh *github.Client, llmClient *llm.Client, signals *cache.SignalCache, roasts *cache.RoastCache) *Service {
	return &Service{
		github:  gh,
		llm:     llmClient,
		signals: signals,
		roasts:  roasts,
	}
}

// SignalsFor returns cached-or-fetched signals for a username.
func (s *Service) SignalsFor(ctx context.Context, username string, maxRepos int, includeReadme bool) (*github.Signals, error) {
	if cached := s.signals.Get(username, maxRepos, includeReadme); cached != nil {
		return cached, nil
	}
	signals, err := s.github.GetSignals(ctx, username, maxRepos, includeReadme)
	if err != nil {
		return nil, err
	}
	s.signals.Set(username, maxRepos, includeReadme, signals)
	return signals, nil
}

// RoastFor returns a cached-or-generated roast for a username's signals.
func (s *Service) RoastFor(ctx context.Context, username string, signals *github.Signals, intensity llm.Intensity) (*llm.RoastResult, error) {
	if cached := s.roasts.Get(username, intensity); cached != nil {
		return cached, nil
	}
	roast, err := s.llm.GenerateRoast(ctx, signals, intensity)
	if err != nil {
		return nil, err
	}
	s.roasts.Set(username, intensity, roast)
	return roast, nil
}

// Compare runs the full head-to-head pipeline: both users' signals in
// parallel, both roasts in parallel, then one verdict. It does not touch the
// leaderboard; recording the outcome is the caller's concern.
func (s *Service) Compare(ctx context.Context, username1, username2, language string) (*Result, error) {
	var signals1, signals2 *github.Signals

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		signals1, err = s.SignalsFor(gctx, username1, MaxRepos, false)
		if err != nil {
			return fmt.Errorf("signals for %s: %w", username1, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		signals2, err = s.SignalsFor(gctx, username2, MaxRepos, false)
		if err != nil {
			return fmt.Errorf("signals for %s: %w", username2, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var roast1, roast2 *llm.RoastResult

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roast1, err = s.RoastFor(gctx, username1, signals1, Intensity)
		if err != nil {
			return fmt.Errorf("roast for %s: %w", username1, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		roast2, err = s.RoastFor(gctx, username2, signals2, Intensity)
		if err != nil {
			return fmt.Errorf("roast for %s: %w", username2, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	user1 := llm.UserSummary{Username: username1, Signals: signals1, Roast: roast1}
	user2 := llm.UserSummary{Username: username2, Signals: signals2, Roast: roast2}

	verdict, err := s.llm.CompareUsers(ctx, user1, user2, language)
	if err != nil {
		return nil, fmt.Errorf("verdict: %w", err)
	}

	return &Result{
		RequestID: uuid.New().String(),
		User1:     user1,
		User2:     user2,
		Verdict:   verdict,
	}, nil
}

// Outcome returns the winner and loser usernames, or ("", "") on a tie.
func (r *Result) Outcome() (winner, loser string) {
	switch r.Verdict.Winner {
	case "user1":
		return r.User1.Username, r.User2.Username
	case "user2":
		return r.User2.Username, r.User1.Username
	}
	return "", ""
}
