package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserUpsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetUser(ctx, "gh-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	now := time.Now()
	require.NoError(t, s.UpsertUser(ctx, &User{
		GithubID:    "gh-1",
		Username:    "alice",
		AvatarURL:   "https://example.com/a.png",
		AccessToken: "tok-1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	got, err = s.GetUser(ctx, "gh-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)

	// Second login updates in place.
	require.NoError(t, s.UpsertUser(ctx, &User{
		GithubID:    "gh-1",
		Username:    "alice-renamed",
		AccessToken: "tok-2",
		CreatedAt:   now,
		UpdatedAt:   now.Add(time.Hour),
	}))

	got, err = s.GetUser(ctx, "gh-1")
	require.NoError(t, err)
	assert.Equal(t, "alice-renamed", got.Username)
	assert.Equal(t, "tok-2", got.AccessToken)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, s.UpsertUser(ctx, &User{GithubID: "gh-1", Username: "alice", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, s.CreateSession(ctx, &Session{
		ID:        "sess-1",
		GithubID:  "gh-1",
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}))

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "gh-1", got.GithubID)

	require.NoError(t, s.DeleteSession(ctx, "sess-1"))
	got, err = s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateSessionExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, s.UpsertUser(ctx, &User{GithubID: "gh-1", Username: "alice", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, s.CreateSession(ctx, &Session{
		ID:        "sess-1",
		GithubID:  "gh-1",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Minute),
	}))

	extended := now.Add(24 * time.Hour)
	require.NoError(t, s.UpdateSessionExpiry(ctx, "sess-1", extended))

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.WithinDuration(t, extended, got.ExpiresAt, time.Second)
}

func TestExpiredSessionsInvisibleAndSwept(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, s.UpsertUser(ctx, &User{GithubID: "gh-1", Username: "alice", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, s.CreateSession(ctx, &Session{
		ID:        "expired",
		GithubID:  "gh-1",
		CreatedAt: now.Add(-48 * time.Hour),
		ExpiresAt: now.Add(-24 * time.Hour),
	}))
	require.NoError(t, s.CreateSession(ctx, &Session{
		ID:        "live",
		GithubID:  "gh-1",
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}))

	got, err := s.GetSession(ctx, "expired")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.DeleteExpiredSessions(ctx))

	got, err = s.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestLeaderboardAggregation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// alice: 2-0, bob: 1-1, carol: 0-2
	require.NoError(t, s.RecordMatchResult(ctx, "alice", "bob"))
	require.NoError(t, s.RecordMatchResult(ctx, "alice", "carol"))
	require.NoError(t, s.RecordMatchResult(ctx, "bob", "carol"))

	entries, err := s.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, 2, entries[0].Wins)
	assert.Equal(t, 0, entries[0].Losses)
	assert.Equal(t, 100.0, entries[0].WinRate)
	assert.Equal(t, 2, entries[0].TotalMatches)
	assert.False(t, entries[0].LastMatch.IsZero())

	assert.Equal(t, "bob", entries[1].Username)
	assert.Equal(t, 50.0, entries[1].WinRate)

	assert.Equal(t, "carol", entries[2].Username)
	assert.Equal(t, 0.0, entries[2].WinRate)
}

func TestLeaderboardLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordMatchResult(ctx, "alice", "bob"))
	require.NoError(t, s.RecordMatchResult(ctx, "carol", "dave"))

	entries, err := s.GetLeaderboard(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGetUserStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordMatchResult(ctx, "alice", "bob"))
	require.NoError(t, s.RecordMatchResult(ctx, "bob", "alice"))
	require.NoError(t, s.RecordMatchResult(ctx, "alice", "bob"))

	stats, err := s.GetUserStats(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 3, stats.TotalMatches)
	assert.InDelta(t, 66.67, stats.WinRate, 0.01)

	stats, err = s.GetUserStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, stats)
}
