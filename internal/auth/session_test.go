package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitgud-app/gitgud/internal/store"
)

type memStore struct {
	store.Store
	users    map[string]*store.User
	sessions map[string]*store.Session
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*store.User),
		sessions: make(map[string]*store.Session),
	}
}

func (m *memStore) GetUser(ctx context.Context, githubID string) (*store.User, error) {
	return m.users[githubID], nil
}

func (m *memStore) CreateSession(ctx context.Context, s *store.Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *memStore) GetSession(ctx context.Context, id string) (*store.Session, error) {
	s := m.sessions[id]
	if s == nil || s.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return s, nil
}

func (m *memStore) UpdateSessionExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	if s := m.sessions[id]; s != nil {
		s.ExpiresAt = expiresAt
	}
	return nil
}

func (m *memStore) DeleteSession(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	st := newMemStore()
	st.users["gh-1"] = &store.User{GithubID: "gh-1", Username: "alice"}
	sm := NewSessionManager(st)

	rec := httptest.NewRecorder()
	require.NoError(t, sm.CreateSession(context.Background(), rec, "gh-1"))

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)

	user, err := sm.GetUser(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
}

func TestSessionRollingRefresh(t *testing.T) {
	st := newMemStore()
	sm := NewSessionManager(st)

	// A session past the midpoint of its lifetime gets extended on use.
	staleExpiry := time.Now().Add(SessionDuration/2 - time.Hour)
	st.sessions["old"] = &store.Session{
		ID:        "old",
		GithubID:  "gh-1",
		CreatedAt: time.Now().Add(-13 * time.Hour),
		ExpiresAt: staleExpiry,
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "old"})

	session, err := sm.GetSession(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.True(t, session.ExpiresAt.After(staleExpiry.Add(time.Hour)))
	assert.True(t, st.sessions["old"].ExpiresAt.Equal(session.ExpiresAt))

	// A fresh session is left alone.
	freshExpiry := time.Now().Add(SessionDuration)
	st.sessions["fresh"] = &store.Session{
		ID:        "fresh",
		GithubID:  "gh-1",
		CreatedAt: time.Now(),
		ExpiresAt: freshExpiry,
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "fresh"})

	session, err = sm.GetSession(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.True(t, st.sessions["fresh"].ExpiresAt.Equal(freshExpiry))
}

func TestGetUserWithoutCookie(t *testing.T) {
	sm := NewSessionManager(newMemStore())

	user, err := sm.GetUser(context.Background(), httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestDeleteSessionClearsCookie(t *testing.T) {
	st := newMemStore()
	st.users["gh-1"] = &store.User{GithubID: "gh-1", Username: "alice"}
	sm := NewSessionManager(st)

	rec := httptest.NewRecorder()
	require.NoError(t, sm.CreateSession(context.Background(), rec, "gh-1"))
	cookie := sessionCookie(t, rec)

	req := httptest.NewRequest("POST", "/auth/logout", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	require.NoError(t, sm.DeleteSession(context.Background(), rec, req))

	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	user, err := sm.GetUser(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, user)
}
