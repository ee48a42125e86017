package match

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a match. It only ever advances:
// waiting -> ready -> in_progress -> completed.
type Status string

const (
	StatusWaiting    Status = "waiting"     // player1 present, waiting for an opponent
	StatusReady      Status = "ready"       // both slots filled, ready handshake pending
	StatusInProgress Status = "in_progress" // comparison job running
	StatusCompleted  Status = "completed"   // result stored, match terminal
)

// Player is one side of a match.
type Player struct {
	Username string `json:"username"`
	GithubID string `json:"githubId"`
	Ready    bool   `json:"ready"`
}

// Outcome names the winner and loser of a completed match. Nil for ties.
type Outcome struct {
	Winner string
	Loser  string
}

// Match is a two-player comparison session. Player1 is set at creation,
// Player2 at most once by a join. Result is opaque to this package; it is
// whatever payload the comparison job produced, stored verbatim for polling
// clients.
type Match struct {
	ID          string          `json:"matchId"`
	Player1     *Player         `json:"player1"`
	Player2     *Player         `json:"player2"`
	Status      Status          `json:"status"`
	Result      json.RawMessage `json:"result"`
	CreatedAt   time.Time       `json:"createdAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// Clone returns a deep copy so callers never observe in-flight mutations.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	out := *m
	if m.Player1 != nil {
		p1 := *m.Player1
		out.Player1 = &p1
	}
	if m.Player2 != nil {
		p2 := *m.Player2
		out.Player2 = &p2
	}
	if m.Result != nil {
		out.Result = append(json.RawMessage(nil), m.Result...)
	}
	if m.StartedAt != nil {
		t := *m.StartedAt
		out.StartedAt = &t
	}
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

// PlayerFor returns the player slot owned by githubID, or nil.
func (m *Match) PlayerFor(githubID string) *Player {
	if m.Player1 != nil && m.Player1.GithubID == githubID {
		return m.Player1
	}
	if m.Player2 != nil && m.Player2.GithubID == githubID {
		return m.Player2
	}
	return nil
}
