package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			github_id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			avatar_url TEXT,
			access_token TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			github_id TEXT NOT NULL REFERENCES users(github_id),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at)`,
		`CREATE TABLE IF NOT EXISTS match_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			winner TEXT NOT NULL,
			loser TEXT NOT NULL,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_winner ON match_results(winner)`,
		`CREATE INDEX IF NOT EXISTS idx_results_loser ON match_results(loser)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetUser retrieves a user by GitHub ID.
func (s *SQLiteStore) GetUser(ctx context.Context, githubID string) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx,
		`SELECT github_id, username, avatar_url, access_token, created_at, updated_at
		 FROM users WHERE github_id = ?`, githubID).Scan(
		&user.GithubID, &user.Username, &user.AvatarURL,
		&user.AccessToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertUser creates or updates a user.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (github_id, username, avatar_url, access_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(github_id) DO UPDATE SET
		 	username = excluded.username,
		 	avatar_url = excluded.avatar_url,
		 	access_token = excluded.access_token,
		 	updated_at = excluded.updated_at`,
		user.GithubID, user.Username, user.AvatarURL,
		user.AccessToken, user.CreatedAt, user.UpdatedAt,
	)
	return err
}

// CreateSession creates a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, github_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?)`,
		session.ID, session.GithubID, session.CreatedAt, session.ExpiresAt,
	)
	return err
}

// GetSession retrieves an unexpired session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, github_id, created_at, expires_at
		 FROM sessions WHERE id = ? AND expires_at > ?`,
		sessionID, time.Now()).Scan(
		&session.ID, &session.GithubID, &session.CreatedAt, &session.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSessionExpiry pushes a session's expiry forward.
func (s *SQLiteStore) UpdateSessionExpiry(ctx context.Context, sessionID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ? WHERE id = ?`, expiresAt, sessionID)
	return err
}

// DeleteSession removes a session.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

// DeleteExpiredSessions removes all expired sessions.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now())
	return err
}

// RecordMatchResult stores one decided match outcome. The timestamp is kept
// as RFC3339 text so it survives aggregate queries, which drop the column
// type SQLite would otherwise use for conversion.
func (s *SQLiteStore) RecordMatchResult(ctx context.Context, winner, loser string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO match_results (winner, loser, recorded_at) VALUES (?, ?, ?)`,
		winner, loser, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

const leaderboardQuery = `
	SELECT
		username,
		SUM(wins) AS wins,
		SUM(losses) AS losses,
		MAX(recorded_at) AS last_match
	FROM (
		SELECT winner AS username, 1 AS wins, 0 AS losses, recorded_at FROM match_results
		UNION ALL
		SELECT loser AS username, 0 AS wins, 1 AS losses, recorded_at FROM match_results
	)
	GROUP BY username
`

// GetLeaderboard returns aggregated records ordered by win rate, then wins.
func (s *SQLiteStore) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	query := leaderboardQuery + `
	ORDER BY CAST(SUM(wins) AS REAL) / (SUM(wins) + SUM(losses)) DESC, SUM(wins) DESC
	LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		var lastMatch string
		if err := rows.Scan(&e.Username, &e.Wins, &e.Losses, &lastMatch); err != nil {
			return nil, err
		}
		fillDerived(&e, lastMatch)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetUserStats returns a single user's record, or nil if they have no
// recorded matches.
func (s *SQLiteStore) GetUserStats(ctx context.Context, username string) (*LeaderboardEntry, error) {
	query := leaderboardQuery + ` HAVING username = ?`

	var e LeaderboardEntry
	var lastMatch string
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&e.Username, &e.Wins, &e.Losses, &lastMatch,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fillDerived(&e, lastMatch)
	return &e, nil
}

func fillDerived(e *LeaderboardEntry, lastMatch string) {
	if t, err := time.Parse(time.RFC3339Nano, lastMatch); err == nil {
		e.LastMatch = t
	}
	e.TotalMatches = e.Wins + e.Losses
	if e.TotalMatches > 0 {
		// Rounded to 2 decimal places to match the API contract.
		rate := float64(e.Wins) / float64(e.TotalMatches) * 100
		e.WinRate = float64(int(rate*100+0.5)) / 100
	}
}
