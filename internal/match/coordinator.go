package match

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrMatchNotFound means the match ID does not resolve to a live match.
	ErrMatchNotFound = errors.New("match not found")
	// ErrSelfJoin means a player tried to join their own match.
	ErrSelfJoin = errors.New("cannot join your own match")
	// ErrMatchFull means the player2 slot is already taken.
	ErrMatchFull = errors.New("match is already full")
)

// ComparisonRunner starts the asynchronous comparison for a match that just
// entered in_progress. Run must not block the caller; it reports back through
// Coordinator.SetResult.
type ComparisonRunner interface {
	Run(matchID string, player1, player2 Player)
}

// Coordinator enforces the match lifecycle. All state mutations are processed
// sequentially on a single goroutine so interleaved joins and ready calls for
// the same match cannot race; pure reads go straight to the store.
//
// CreateMatch is unconditional: the HTTP layer is responsible for checking
// GetUserMatch first so a user cannot hold two active matches.
type Coordinator struct {
	commands    chan Command
	subscribers []chan Event
	store       *Store
	runner      ComparisonRunner
	log         *logrus.Entry
}

// New creates a Coordinator around the given store. The runner may be nil in
// tests; the ready->in_progress transition then happens without a job.
func New(store *Store, runner ComparisonRunner) *Coordinator {
	return &Coordinator{
		commands: make(chan Command, 100),
		store:    store,
		runner:   runner,
		log:      logrus.WithField("component", "coordinator"),
	}
}

// SetRunner attaches the comparison runner. The runner needs the coordinator
// to report results back, so it is constructed second and attached here.
// Must be called before Run.
func (c *Coordinator) SetRunner(runner ComparisonRunner) {
	c.runner = runner
}

// Send submits a command to the coordinator.
func (c *Coordinator) Send(cmd Command) {
	c.commands <- cmd
}

// Subscribe creates a new event channel receiving all coordinator events.
// Must be called before Run. With no subscribers, events are discarded.
func (c *Coordinator) Subscribe() <-chan Event {
	ch := make(chan Event, 100)
	c.subscribers = append(c.subscribers, ch)
	return ch
}

// Run starts the coordinator loop. It blocks until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	c.log.Info("coordinator started")
	for {
		select {
		case <-ctx.Done():
			c.log.Info("coordinator shutting down")
			return
		case cmd := <-c.commands:
			c.handleCommand(cmd)
		}
	}
}

func (c *Coordinator) emit(e Event) {
	for _, ch := range c.subscribers {
		select {
		case ch <- e:
		default:
			c.log.Warn("subscriber event channel full, dropping event")
		}
	}
}

func (c *Coordinator) handleCommand(cmd Command) {
	switch cmd := cmd.(type) {
	case CreateMatch:
		m := c.handleCreate(cmd)
		if cmd.Response != nil {
			cmd.Response <- m
		}
	case JoinMatch:
		m, err := c.handleJoin(cmd)
		if cmd.Response != nil {
			cmd.Response <- JoinResult{Match: m, Err: err}
		}
	case SetReady:
		m := c.handleSetReady(cmd)
		if cmd.Response != nil {
			cmd.Response <- m
		}
	case SetResult:
		c.handleSetResult(cmd)
	case DeleteMatch:
		c.handleDelete(cmd.MatchID)
		if cmd.Response != nil {
			cmd.Response <- struct{}{}
		}
	case Sweep:
		n := c.handleSweep(cmd.Now)
		if cmd.Response != nil {
			cmd.Response <- n
		}
	}
}

func (c *Coordinator) handleCreate(cmd CreateMatch) *Match {
	m := &Match{
		ID: uuid.New().String(),
		Player1: &Player{
			Username: cmd.Username,
			GithubID: cmd.GithubID,
		},
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
	}

	c.store.Put(m)
	c.store.IndexUser(cmd.GithubID, m.ID)

	c.log.WithFields(logrus.Fields{
		"matchId":  m.ID,
		"username": cmd.Username,
	}).Info("match created")

	snap := m.Clone()
	c.emit(MatchCreated{Match: snap})
	return snap
}

func (c *Coordinator) handleJoin(cmd JoinMatch) (*Match, error) {
	var joinErr error
	var snap *Match

	ok := c.store.mutate(cmd.MatchID, func(m *Match) {
		if m.Player1 != nil && m.Player1.GithubID == cmd.GithubID {
			joinErr = ErrSelfJoin
			return
		}
		if m.Player2 != nil {
			joinErr = ErrMatchFull
			return
		}
		m.Player2 = &Player{
			Username: cmd.Username,
			GithubID: cmd.GithubID,
		}
		m.Status = StatusReady
		snap = m.Clone()
	})
	if !ok {
		return nil, ErrMatchNotFound
	}
	if joinErr != nil {
		return nil, joinErr
	}

	c.store.IndexUser(cmd.GithubID, cmd.MatchID)

	c.log.WithFields(logrus.Fields{
		"matchId":  cmd.MatchID,
		"username": cmd.Username,
	}).Info("player joined match")

	c.emit(MatchJoined{Match: snap})
	return snap, nil
}

func (c *Coordinator) handleSetReady(cmd SetReady) *Match {
	var snap *Match
	var started bool
	var p1, p2 Player

	ok := c.store.mutate(cmd.MatchID, func(m *Match) {
		p := m.PlayerFor(cmd.GithubID)
		if p == nil {
			return
		}
		p.Ready = true

		// The trigger must fire exactly once, on the transition out of
		// ready. A repeated ready call on an in_progress match lands here
		// with Status already advanced and is a no-op.
		if m.Status == StatusReady &&
			m.Player1 != nil && m.Player1.Ready &&
			m.Player2 != nil && m.Player2.Ready {
			m.Status = StatusInProgress
			now := time.Now()
			m.StartedAt = &now
			started = true
			p1, p2 = *m.Player1, *m.Player2
		}
		snap = m.Clone()
	})
	if !ok || snap == nil {
		// Unknown match and non-participant are deliberately
		// indistinguishable to the caller.
		return nil
	}

	if started {
		c.log.WithField("matchId", cmd.MatchID).Info("both players ready, starting comparison")
		c.emit(MatchStarted{Match: snap})
		if c.runner != nil {
			c.runner.Run(cmd.MatchID, p1, p2)
		}
	}

	return snap
}

func (c *Coordinator) handleSetResult(cmd SetResult) {
	var snap *Match
	var applied bool

	ok := c.store.mutate(cmd.MatchID, func(m *Match) {
		if m.Status == StatusCompleted {
			// A second result for the same match is ignored.
			return
		}
		m.Result = cmd.Result
		m.Status = StatusCompleted
		now := time.Now()
		m.CompletedAt = &now
		applied = true
		snap = m.Clone()
	})
	if !ok {
		// Match expired mid-flight; drop the result.
		c.log.WithField("matchId", cmd.MatchID).Warn("result for unknown match, ignoring")
		return
	}
	if !applied {
		c.log.WithField("matchId", cmd.MatchID).Warn("duplicate result, ignoring")
		return
	}

	c.log.WithField("matchId", cmd.MatchID).Info("match completed")
	c.emit(MatchCompleted{Match: snap, Outcome: cmd.Outcome})
}

func (c *Coordinator) handleDelete(matchID string) {
	c.store.Delete(matchID)
	c.emit(MatchDeleted{MatchID: matchID})
}

func (c *Coordinator) handleSweep(now time.Time) int {
	// Only completed matches are reclaimed. A match abandoned in waiting or
	// ready sticks around until a player leaves; that asymmetry is
	// intentional.
	removed := 0
	for _, m := range c.store.All() {
		if m.Status != StatusCompleted || m.CompletedAt == nil {
			continue
		}
		if now.Sub(*m.CompletedAt) > RetentionWindow {
			c.handleDelete(m.ID)
			removed++
		}
	}
	if removed > 0 {
		c.log.WithField("removed", removed).Info("swept completed matches")
	}
	return removed
}

// CreateMatch allocates a new match with the caller as player1 and indexes
// the creator. It always succeeds; checking for an existing active match is
// the caller's job (via GetUserMatch).
func (c *Coordinator) CreateMatch(username, githubID string) *Match {
	resp := make(chan *Match, 1)
	c.Send(CreateMatch{Username: username, GithubID: githubID, Response: resp})
	return <-resp
}

// JoinMatch fills the player2 slot. Returns ErrMatchNotFound, ErrSelfJoin or
// ErrMatchFull on failure.
func (c *Coordinator) JoinMatch(matchID, username, githubID string) (*Match, error) {
	resp := make(chan JoinResult, 1)
	c.Send(JoinMatch{MatchID: matchID, Username: username, GithubID: githubID, Response: resp})
	r := <-resp
	return r.Match, r.Err
}

// SetReady marks the caller ready. Returns nil when the match is unknown or
// the caller is not a participant.
func (c *Coordinator) SetReady(matchID, githubID string) *Match {
	resp := make(chan *Match, 1)
	c.Send(SetReady{MatchID: matchID, GithubID: githubID, Response: resp})
	return <-resp
}

// SetResult stores the comparison payload and completes the match. Called by
// the comparison job; a result for a deleted or already-completed match is
// silently dropped.
func (c *Coordinator) SetResult(matchID string, result []byte, outcome *Outcome) {
	c.Send(SetResult{MatchID: matchID, Result: result, Outcome: outcome})
}

// DeleteMatch removes a match and unindexes both players.
func (c *Coordinator) DeleteMatch(matchID string) {
	resp := make(chan struct{}, 1)
	c.Send(DeleteMatch{MatchID: matchID, Response: resp})
	<-resp
}

// Sweep removes completed matches older than the retention window and
// returns how many were deleted.
func (c *Coordinator) Sweep(now time.Time) int {
	resp := make(chan int, 1)
	c.Send(Sweep{Now: now, Response: resp})
	return <-resp
}

// GetMatch is a pure read; no authentication or participation required.
func (c *Coordinator) GetMatch(matchID string) *Match {
	return c.store.Get(matchID)
}

// GetUserMatch returns the match the user currently occupies, or nil.
func (c *Coordinator) GetUserMatch(githubID string) *Match {
	return c.store.MatchForUser(githubID)
}
