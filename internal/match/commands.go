package match

import (
	"encoding/json"
	"time"
)

// Command is the interface for all commands sent to the coordinator.
type Command interface {
	command() // marker method
}

// CreateMatch allocates a new match with the caller as player1.
type CreateMatch struct {
	Username string
	GithubID string
	Response chan *Match
}

func (CreateMatch) command() {}

// JoinResult carries the outcome of a JoinMatch command.
type JoinResult struct {
	Match *Match
	Err   error
}

// JoinMatch requests to fill the player2 slot of an existing match.
type JoinMatch struct {
	MatchID  string
	Username string
	GithubID string
	Response chan JoinResult
}

func (JoinMatch) command() {}

// SetReady flips the caller's ready flag. The response is nil when the match
// is unknown or the caller is not a participant.
type SetReady struct {
	MatchID  string
	GithubID string
	Response chan *Match
}

func (SetReady) command() {}

// SetResult is sent by a comparison job when it finishes. Outcome is nil for
// ties. No response: a match that expired mid-flight is silently ignored.
type SetResult struct {
	MatchID string
	Result  json.RawMessage
	Outcome *Outcome
}

func (SetResult) command() {}

// DeleteMatch removes a match and unindexes both players.
type DeleteMatch struct {
	MatchID  string
	Response chan struct{}
}

func (DeleteMatch) command() {}

// Sweep deletes completed matches whose completion time is older than the
// retention window, measured against Now.
type Sweep struct {
	Now      time.Time
	Response chan int
}

func (Sweep) command() {}
