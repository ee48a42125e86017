package match

type Event interface {
	event() // marker method
}

type MatchCreated struct {
	Match *Match
}

func (MatchCreated) event() {}

type MatchJoined struct {
	Match *Match
}

func (MatchJoined) event() {}

type MatchStarted struct {
	Match *Match
}

func (MatchStarted) event() {}

type MatchCompleted struct {
	Match   *Match
	Outcome *Outcome // nil on a tie
}

func (MatchCompleted) event() {}

type MatchDeleted struct {
	MatchID string
}

func (MatchDeleted) event() {}
