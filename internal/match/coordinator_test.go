package match

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner records every trigger so tests can assert the comparison starts
// exactly once.
type stubRunner struct {
	mu    sync.Mutex
	calls []string
}

func (r *stubRunner) Run(matchID string, player1, player2 Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, matchID)
}

func (r *stubRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func startCoordinator(t *testing.T) (*Coordinator, *stubRunner) {
	t.Helper()
	runner := &stubRunner{}
	coord := New(NewStore(), runner)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go coord.Run(ctx)

	return coord, runner
}

func TestMatchLifecycle(t *testing.T) {
	coord, runner := startCoordinator(t)

	m := coord.CreateMatch("alice", "gh-1")
	require.NotNil(t, m)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, StatusWaiting, m.Status)
	assert.Equal(t, "alice", m.Player1.Username)
	assert.False(t, m.Player1.Ready)
	assert.Nil(t, m.Player2)

	joined, err := coord.JoinMatch(m.ID, "bob", "gh-2")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, joined.Status)
	assert.Equal(t, "bob", joined.Player2.Username)

	first := coord.SetReady(m.ID, "gh-1")
	require.NotNil(t, first)
	assert.Equal(t, StatusReady, first.Status)
	assert.True(t, first.Player1.Ready)
	assert.Equal(t, 0, runner.callCount())

	second := coord.SetReady(m.ID, "gh-2")
	require.NotNil(t, second)
	assert.Equal(t, StatusInProgress, second.Status)
	require.NotNil(t, second.StartedAt)
	assert.Equal(t, 1, runner.callCount())

	result := json.RawMessage(`{"verdict":{"winner":"user1"}}`)
	coord.SetResult(m.ID, result, &Outcome{Winner: "alice", Loser: "bob"})

	// SetResult is fire-and-forget; wait for the loop to process it.
	require.Eventually(t, func() bool {
		got := coord.GetMatch(m.ID)
		return got != nil && got.Status == StatusCompleted
	}, time.Second, 10*time.Millisecond)

	completed := coord.GetMatch(m.ID)
	assert.JSONEq(t, string(result), string(completed.Result))
	require.NotNil(t, completed.CompletedAt)
}

func TestJoinUnknownMatch(t *testing.T) {
	coord, _ := startCoordinator(t)

	_, err := coord.JoinMatch("nope", "bob", "gh-2")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestJoinOwnMatch(t *testing.T) {
	coord, _ := startCoordinator(t)

	m := coord.CreateMatch("alice", "gh-1")
	_, err := coord.JoinMatch(m.ID, "alice-alt", "gh-1")
	assert.ErrorIs(t, err, ErrSelfJoin)

	// The failed join must not have touched the match.
	got := coord.GetMatch(m.ID)
	assert.Equal(t, StatusWaiting, got.Status)
	assert.Nil(t, got.Player2)
}

func TestJoinFullMatch(t *testing.T) {
	coord, _ := startCoordinator(t)

	m := coord.CreateMatch("alice", "gh-1")
	_, err := coord.JoinMatch(m.ID, "bob", "gh-2")
	require.NoError(t, err)

	_, err = coord.JoinMatch(m.ID, "carol", "gh-3")
	assert.ErrorIs(t, err, ErrMatchFull)

	got := coord.GetMatch(m.ID)
	assert.Equal(t, "bob", got.Player2.Username)
}

func TestSetReadyNonParticipant(t *testing.T) {
	coord, _ := startCoordinator(t)

	m := coord.CreateMatch("alice", "gh-1")

	assert.Nil(t, coord.SetReady(m.ID, "gh-999"))
	assert.Nil(t, coord.SetReady("unknown-match", "gh-1"))
}

func TestReadyTriggersExactlyOnce(t *testing.T) {
	coord, runner := startCoordinator(t)

	m := coord.CreateMatch("alice", "gh-1")
	_, err := coord.JoinMatch(m.ID, "bob", "gh-2")
	require.NoError(t, err)

	coord.SetReady(m.ID, "gh-1")
	coord.SetReady(m.ID, "gh-2")
	assert.Equal(t, 1, runner.callCount())

	// Repeated ready calls after the start must not re-trigger.
	coord.SetReady(m.ID, "gh-1")
	coord.SetReady(m.ID, "gh-2")
	assert.Equal(t, 1, runner.callCount())

	got := coord.GetMatch(m.ID)
	assert.Equal(t, StatusInProgress, got.Status)
}

func TestSetResultIdempotent(t *testing.T) {
	coord, _ := startCoordinator(t)

	m := coord.CreateMatch("alice", "gh-1")
	_, err := coord.JoinMatch(m.ID, "bob", "gh-2")
	require.NoError(t, err)
	coord.SetReady(m.ID, "gh-1")
	coord.SetReady(m.ID, "gh-2")

	coord.SetResult(m.ID, json.RawMessage(`{"n":1}`), nil)
	coord.SetResult(m.ID, json.RawMessage(`{"n":2}`), nil)

	require.Eventually(t, func() bool {
		got := coord.GetMatch(m.ID)
		return got != nil && got.Status == StatusCompleted
	}, time.Second, 10*time.Millisecond)

	got := coord.GetMatch(m.ID)
	assert.JSONEq(t, `{"n":1}`, string(got.Result))

	// A result for a match that never existed is silently dropped.
	coord.SetResult("unknown", json.RawMessage(`{}`), nil)
}

func TestDeleteMatchFreesPlayers(t *testing.T) {
	coord, _ := startCoordinator(t)

	m := coord.CreateMatch("alice", "gh-1")
	_, err := coord.JoinMatch(m.ID, "bob", "gh-2")
	require.NoError(t, err)

	coord.DeleteMatch(m.ID)

	assert.Nil(t, coord.GetMatch(m.ID))
	assert.Nil(t, coord.GetUserMatch("gh-1"))
	assert.Nil(t, coord.GetUserMatch("gh-2"))
}

func TestGetUserMatch(t *testing.T) {
	coord, _ := startCoordinator(t)

	assert.Nil(t, coord.GetUserMatch("gh-1"))

	m := coord.CreateMatch("alice", "gh-1")
	got := coord.GetUserMatch("gh-1")
	require.NotNil(t, got)
	assert.Equal(t, m.ID, got.ID)

	_, err := coord.JoinMatch(m.ID, "bob", "gh-2")
	require.NoError(t, err)
	got = coord.GetUserMatch("gh-2")
	require.NotNil(t, got)
	assert.Equal(t, m.ID, got.ID)
}

func TestSweepOnlyReclaimsOldCompletedMatches(t *testing.T) {
	coord, _ := startCoordinator(t)

	// One match in waiting, one completed recently, one completed long ago.
	waiting := coord.CreateMatch("alice", "gh-1")

	finish := func(username1, id1, username2, id2 string, completedAt time.Time) string {
		m := coord.CreateMatch(username1, id1)
		_, err := coord.JoinMatch(m.ID, username2, id2)
		require.NoError(t, err)
		coord.SetReady(m.ID, id1)
		coord.SetReady(m.ID, id2)
		coord.SetResult(m.ID, json.RawMessage(`{}`), nil)
		require.Eventually(t, func() bool {
			got := coord.GetMatch(m.ID)
			return got != nil && got.Status == StatusCompleted
		}, time.Second, 10*time.Millisecond)
		coord.store.mutate(m.ID, func(m *Match) {
			m.CompletedAt = &completedAt
		})
		return m.ID
	}

	now := time.Now()
	fresh := finish("carol", "gh-3", "dave", "gh-4", now.Add(-59*time.Minute))
	stale := finish("erin", "gh-5", "frank", "gh-6", now.Add(-61*time.Minute))

	removed := coord.Sweep(now)
	assert.Equal(t, 1, removed)

	assert.NotNil(t, coord.GetMatch(waiting.ID))
	assert.NotNil(t, coord.GetMatch(fresh))
	assert.Nil(t, coord.GetMatch(stale))

	// The swept match's players are free again.
	assert.Nil(t, coord.GetUserMatch("gh-5"))
	assert.Nil(t, coord.GetUserMatch("gh-6"))
}

func TestEventsWithoutSubscribersAreDiscarded(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	coord, _ := startCoordinator(t)

	// Well past any plausible channel buffer; with nobody subscribed the
	// coordinator must keep processing without complaint.
	for i := 0; i < 110; i++ {
		m := coord.CreateMatch(fmt.Sprintf("user%d", i), fmt.Sprintf("gh-%d", i))
		require.NotNil(t, m)
	}

	assert.Equal(t, 110, coord.store.Len())
	for _, e := range hook.AllEntries() {
		assert.GreaterOrEqual(t, e.Level, logrus.InfoLevel, "unexpected %s log: %s", e.Level, e.Message)
	}
}

func TestCompletedEventCarriesOutcome(t *testing.T) {
	runner := &stubRunner{}
	coord := New(NewStore(), runner)
	events := coord.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go coord.Run(ctx)

	m := coord.CreateMatch("alice", "gh-1")
	_, err := coord.JoinMatch(m.ID, "bob", "gh-2")
	require.NoError(t, err)
	coord.SetReady(m.ID, "gh-1")
	coord.SetReady(m.ID, "gh-2")
	coord.SetResult(m.ID, json.RawMessage(`{}`), &Outcome{Winner: "alice", Loser: "bob"})

	deadline := time.After(time.Second)
	for {
		select {
		case e := <-events:
			if completed, ok := e.(MatchCompleted); ok {
				require.NotNil(t, completed.Outcome)
				assert.Equal(t, "alice", completed.Outcome.Winner)
				assert.Equal(t, "bob", completed.Outcome.Loser)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for MatchCompleted event")
		}
	}
}
