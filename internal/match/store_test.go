package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Put(&Match{ID: "m1", Player1: &Player{Username: "alice", GithubID: "gh-1"}, Status: StatusWaiting})

	got := s.Get("m1")
	require.NotNil(t, got)
	got.Player1.Ready = true
	got.Status = StatusCompleted

	again := s.Get("m1")
	assert.False(t, again.Player1.Ready)
	assert.Equal(t, StatusWaiting, again.Status)
}

func TestStoreGetUnknown(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Get("nope"))
}

func TestMatchForUserHealsDanglingIndex(t *testing.T) {
	s := NewStore()
	s.Put(&Match{ID: "m1", Player1: &Player{GithubID: "gh-1"}})
	s.IndexUser("gh-1", "m1")

	// Delete the match without going through Delete, leaving the index
	// pointing at nothing.
	s.mu.Lock()
	delete(s.matches, "m1")
	s.mu.Unlock()

	assert.Nil(t, s.MatchForUser("gh-1"))

	// The dangling entry is gone; a later lookup takes the fast path.
	s.mu.RLock()
	_, ok := s.byUser["gh-1"]
	s.mu.RUnlock()
	assert.False(t, ok)
}

func TestDeleteUnindexesBothPlayers(t *testing.T) {
	s := NewStore()
	s.Put(&Match{
		ID:      "m1",
		Player1: &Player{GithubID: "gh-1"},
		Player2: &Player{GithubID: "gh-2"},
	})
	s.IndexUser("gh-1", "m1")
	s.IndexUser("gh-2", "m1")

	s.Delete("m1")

	assert.Nil(t, s.MatchForUser("gh-1"))
	assert.Nil(t, s.MatchForUser("gh-2"))
	assert.Equal(t, 0, s.Len())
}

func TestDeleteKeepsNewerIndexEntry(t *testing.T) {
	s := NewStore()
	s.Put(&Match{ID: "m1", Player1: &Player{GithubID: "gh-1"}})
	s.IndexUser("gh-1", "m1")

	// User moved on to a second match; deleting the first must not clobber
	// the newer index entry.
	s.Put(&Match{ID: "m2", Player1: &Player{GithubID: "gh-1"}})
	s.IndexUser("gh-1", "m2")

	s.Delete("m1")

	got := s.MatchForUser("gh-1")
	require.NotNil(t, got)
	assert.Equal(t, "m2", got.ID)
}
