package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"github.com/gitgud-app/gitgud/internal/store"
)

const (
	githubUserURL    = "https://api.github.com/user"
	stateCookieName  = "oauth_state"
	stateCookieAge   = 10 * time.Minute
	githubUserAgent  = "GitGud-Backend/1.0"
)

// GitHubAuth handles the GitHub OAuth login flow.
type GitHubAuth struct {
	oauth       *oauth2.Config
	store       store.Store
	sessions    *SessionManager
	frontendURL string
	userURL     string
	log         *logrus.Entry
}

// githubUser is the subset of the GitHub /user response we keep.
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// NewGitHubAuth creates a GitHub OAuth handler. baseURL is where GitHub
// redirects back to; frontendURL is where users land after login.
func NewGitHubAuth(clientID, clientSecret, baseURL, frontendURL string, st store.Store, sessions *SessionManager) *GitHubAuth {
	return &GitHubAuth{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauthgithub.Endpoint,
			RedirectURL:  baseURL + "/auth/github/callback",
			Scopes:       []string{"read:user"},
		},
		store:       st,
		sessions:    sessions,
		frontendURL: frontendURL,
		userURL:     githubUserURL,
		log:         logrus.WithField("component", "auth"),
	}
}

// LoginHandler redirects to GitHub's authorization page.
func (ga *GitHubAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	state, err := randomToken(16)
	if err != nil {
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(stateCookieAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, ga.oauth.AuthCodeURL(state), http.StatusFound)
}

// CallbackHandler exchanges the authorization code, fetches the GitHub user,
// stores it and opens a session. Success and failure both redirect back to
// the frontend PVP page so the SPA can show the outcome.
func (ga *GitHubAuth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if err := ga.completeLogin(w, r); err != nil {
		ga.log.WithError(err).Error("github OAuth failed")
		http.Redirect(w, r,
			ga.frontendURL+"/pvp?auth=error&message="+url.QueryEscape(err.Error()),
			http.StatusFound)
		return
	}

	http.Redirect(w, r, ga.frontendURL+"/pvp?auth=success", http.StatusFound)
}

func (ga *GitHubAuth) completeLogin(w http.ResponseWriter, r *http.Request) error {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		return fmt.Errorf("state mismatch")
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		return fmt.Errorf("missing authorization code")
	}

	token, err := ga.oauth.Exchange(r.Context(), code)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	ghUser, err := ga.fetchGitHubUser(r.Context(), token.AccessToken)
	if err != nil {
		return err
	}

	now := time.Now()
	user := &store.User{
		GithubID:    strconv.FormatInt(ghUser.ID, 10),
		Username:    ghUser.Login,
		AvatarURL:   ghUser.AvatarURL,
		AccessToken: token.AccessToken,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := ga.store.UpsertUser(r.Context(), user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	if err := ga.sessions.CreateSession(r.Context(), w, user.GithubID); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	ga.log.WithField("username", user.Username).Info("user logged in")
	return nil
}

func (ga *GitHubAuth) fetchGitHubUser(ctx context.Context, accessToken string) (*githubUser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", ga.userURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", githubUserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user from GitHub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github user endpoint returned status %d", resp.StatusCode)
	}

	var user githubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// MeHandler returns the current user's info.
func (ga *GitHubAuth) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, err := ga.sessions.GetUser(r.Context(), r)
	if err != nil {
		http.Error(w, "Failed to get user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"code":    "BAD_REQUEST",
				"message": "Not authenticated",
			},
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user": map[string]string{
			"githubId":  user.GithubID,
			"username":  user.Username,
			"avatarUrl": user.AvatarURL,
		},
	})
}

// LogoutHandler destroys the current session.
func (ga *GitHubAuth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	ga.sessions.DeleteSession(r.Context(), w, r)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// RequireAuth middleware ensures the request has a valid session.
func RequireAuth(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.GetUser(r.Context(), r)
			if err != nil || user == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{
						"code":    "BAD_REQUEST",
						"message": "Not authenticated",
					},
				})
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext retrieves the user from the request context.
func UserFromContext(ctx context.Context) *store.User {
	user, _ := ctx.Value(userContextKey).(*store.User)
	return user
}
