package match

import "sync"

// Store is the authoritative in-memory table of matches plus the per-user
// index of which match a user currently occupies. Pure data access, no
// lifecycle rules; those live in the Coordinator. All state is lost on
// restart, which is fine for live matches.
type Store struct {
	mu      sync.RWMutex
	matches map[string]*Match
	byUser  map[string]string // githubID -> matchID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		matches: make(map[string]*Match),
		byUser:  make(map[string]string),
	}
}

// Put inserts or overwrites a match by ID.
func (s *Store) Put(m *Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
}

// Get returns a copy of the match, or nil if unknown.
func (s *Store) Get(matchID string) *Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matches[matchID].Clone()
}

// IndexUser points a user at a match. A user occupies at most one slot at a
// time; indexing overwrites any previous entry.
func (s *Store) IndexUser(githubID, matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[githubID] = matchID
}

// UnindexUser removes the user's index entry.
func (s *Store) UnindexUser(githubID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, githubID)
}

// MatchForUser resolves the user's current match through the index. A
// dangling index entry (match deleted out from under it) is treated as "no
// match" and healed in place rather than surfaced.
func (s *Store) MatchForUser(githubID string) *Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	matchID, ok := s.byUser[githubID]
	if !ok {
		return nil
	}
	m, ok := s.matches[matchID]
	if !ok {
		delete(s.byUser, githubID)
		return nil
	}
	return m.Clone()
}

// Delete removes the match and unindexes any player referencing it.
func (s *Store) Delete(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return
	}
	if m.Player1 != nil && s.byUser[m.Player1.GithubID] == matchID {
		delete(s.byUser, m.Player1.GithubID)
	}
	if m.Player2 != nil && s.byUser[m.Player2.GithubID] == matchID {
		delete(s.byUser, m.Player2.GithubID)
	}
	delete(s.matches, matchID)
}

// All returns copies of every match. Janitor sweep only.
func (s *Store) All() []*Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m.Clone())
	}
	return out
}

// Len returns the number of live matches.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

// mutate runs fn against the live (uncloned) match under the write lock.
// Coordinator use only; fn must not retain the pointer.
func (s *Store) mutate(matchID string, fn func(*Match)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return false
	}
	fn(m)
	return true
}
