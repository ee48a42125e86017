package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gitgud-app/gitgud/internal/store"
)

const (
	SessionCookieName = "session_id"
	SessionDuration   = 24 * time.Hour
)

// SessionManager issues and resolves cookie sessions. Sessions are rolling:
// resolving one past the midpoint of its lifetime pushes the expiry out by a
// full SessionDuration, so active users are never logged out mid-session.
type SessionManager struct {
	store store.Store
}

// NewSessionManager creates a new session manager.
func NewSessionManager(store store.Store) *SessionManager {
	return &SessionManager{store: store}
}

// CreateSession creates a new session for a user and sets the cookie.
func (sm *SessionManager) CreateSession(ctx context.Context, w http.ResponseWriter, githubID string) error {
	sessionID, err := randomToken(32)
	if err != nil {
		return err
	}

	now := time.Now()
	session := &store.Session{
		ID:        sessionID,
		GithubID:  githubID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionDuration),
	}

	if err := sm.store.CreateSession(ctx, session); err != nil {
		return err
	}

	sm.setCookie(w, sessionID, session.ExpiresAt)
	return nil
}

// GetSession resolves the session from the request cookie, extending its
// server-side expiry when more than half of SessionDuration has elapsed.
func (sm *SessionManager) GetSession(ctx context.Context, r *http.Request) (*store.Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, nil // No cookie = no session
	}

	session, err := sm.store.GetSession(ctx, cookie.Value)
	if err != nil || session == nil {
		return nil, err
	}

	if time.Until(session.ExpiresAt) < SessionDuration/2 {
		session.ExpiresAt = time.Now().Add(SessionDuration)
		// Refresh is best-effort; the session is still valid as loaded.
		_ = sm.store.UpdateSessionExpiry(ctx, session.ID, session.ExpiresAt)
	}

	return session, nil
}

// GetUser retrieves the user for the current session.
func (sm *SessionManager) GetUser(ctx context.Context, r *http.Request) (*store.User, error) {
	session, err := sm.GetSession(ctx, r)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	return sm.store.GetUser(ctx, session.GithubID)
}

// DeleteSession removes the current session.
func (sm *SessionManager) DeleteSession(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil
	}

	if err := sm.store.DeleteSession(ctx, cookie.Value); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	return nil
}

func (sm *SessionManager) setCookie(w http.ResponseWriter, sessionID string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// randomToken returns n random bytes hex-encoded. Shared by session IDs and
// the OAuth state parameter.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
