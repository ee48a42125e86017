package store

import (
	"context"
	"time"
)

// User is a GitHub account that has logged in at least once.
type User struct {
	GithubID    string
	Username    string
	AvatarURL   string
	AccessToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session is a logged-in browser session.
type Session struct {
	ID        string
	GithubID  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// LeaderboardEntry is a user's aggregated win/loss record.
type LeaderboardEntry struct {
	Username     string    `json:"username"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	WinRate      float64   `json:"win_rate"`
	TotalMatches int       `json:"total_matches"`
	LastMatch    time.Time `json:"last_match"`
}

type Store interface {
	GetUser(ctx context.Context, githubID string) (*User, error)
	UpsertUser(ctx context.Context, user *User) error

	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	UpdateSessionExpiry(ctx context.Context, sessionID string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteExpiredSessions(ctx context.Context) error

	RecordMatchResult(ctx context.Context, winner, loser string) error
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	GetUserStats(ctx context.Context, username string) (*LeaderboardEntry, error)

	Close() error
}
