package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/gitgud-app/gitgud/internal/auth"
	"github.com/gitgud-app/gitgud/internal/compare"
	"github.com/gitgud-app/gitgud/internal/llm"
	"github.com/gitgud-app/gitgud/internal/match"
	"github.com/gitgud-app/gitgud/internal/store"
	"github.com/gitgud-app/gitgud/internal/tts"
)

// apiPrefixes are the route roots that must 404 as JSON instead of falling
// back to the SPA's index.html.
var apiPrefixes = []string{
	"/api", "/roast", "/tts", "/compare", "/translate",
	"/leaderboard", "/health", "/auth", "/pvp",
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	router     *chi.Mux
	coord      *match.Coordinator
	compare    *compare.Service
	llm        *llm.Client
	tts        *tts.Client
	store      store.Store
	sessions   *auth.SessionManager
	githubAuth *auth.GitHubAuth
	staticDir  string
	limiters   *ipLimiter
	log        *logrus.Entry
}

// Config holds server configuration.
type Config struct {
	AllowedOrigins []string
	StaticDir      string
}

// NewServer creates a new HTTP server. githubAuth may be nil when OAuth
// credentials are not configured; the auth routes then answer with an
// explanatory error and PVP stays locked behind them.
func NewServer(
	coord *match.Coordinator,
	compareService *compare.Service,
	llmClient *llm.Client,
	ttsClient *tts.Client,
	st store.Store,
	sessions *auth.SessionManager,
	githubAuth *auth.GitHubAuth,
	cfg Config,
) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		coord:      coord,
		compare:    compareService,
		llm:        llmClient,
		tts:        ttsClient,
		store:      st,
		sessions:   sessions,
		githubAuth: githubAuth,
		staticDir:  cfg.StaticDir,
		limiters:   newIPLimiter(),
		log:        logrus.WithField("component", "web"),
	}

	s.setupRoutes(cfg)
	return s
}

// Close stops the server's background work, currently the rate limiter sweep.
// Safe to call more than once.
func (s *Server) Close() {
	s.limiters.close()
}

func (s *Server) setupRoutes(cfg Config) {
	r := s.router

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowOriginFunc:  allowOrigin(cfg.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler)
	r.Use(rateLimitMiddleware(s.limiters))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Post("/roast", s.handleRoast)
	r.Post("/compare", s.handleCompare)
	r.Post("/translate", s.handleTranslate)
	r.Post("/tts", s.handleTTS)

	r.Get("/leaderboard", s.handleLeaderboard)
	r.Get("/leaderboard/{username}", s.handleUserStats)

	// Auth routes
	if s.githubAuth != nil {
		r.Get("/auth/github", s.githubAuth.LoginHandler)
		r.Get("/auth/github/callback", s.githubAuth.CallbackHandler)
		r.Get("/auth/me", s.githubAuth.MeHandler)
		r.Post("/auth/logout", s.githubAuth.LogoutHandler)
	} else {
		r.Get("/auth/github", s.handleOAuthNotConfigured)
	}

	// Match lookup is public so challenge links work before login.
	r.Get("/pvp/match/{matchID}", s.handlePVPGetMatch)

	// PVP routes (require auth)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(s.sessions))

		r.Post("/pvp/create", s.handlePVPCreate)
		r.Post("/pvp/join", s.handlePVPJoin)
		r.Post("/pvp/ready/{matchID}", s.handlePVPReady)
		r.Get("/pvp/my-match", s.handlePVPMyMatch)
		r.Post("/pvp/leave", s.handlePVPLeave)
	})

	r.NotFound(s.handleNotFound)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// allowOrigin always accepts localhost for development; other origins must be
// in the configured list. An empty list allows everything.
func allowOrigin(allowed []string) func(origin string) bool {
	return func(origin string) bool {
		if strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1") {
			return true
		}
		if len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == origin {
				return true
			}
		}
		return false
	}
}

func (s *Server) handleOAuthNotConfigured(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error": map[string]any{
			"code":    "OAUTH_NOT_CONFIGURED",
			"message": "GitHub OAuth is not configured. Please set GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET in your .env file.",
			"instructions": []string{
				"1. Go to https://github.com/settings/developers",
				`2. Click "New OAuth App"`,
				"3. Set Authorization callback URL to: http://localhost:3000/auth/github/callback",
				"4. Copy the Client ID and Client Secret",
				"5. Add them to your .env file as GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET",
			},
		},
	})
}

// handleNotFound serves the SPA's built assets. API paths 404 as JSON;
// anything else is either a real static file or a client-side route that
// falls back to index.html.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			writeError(w, http.StatusNotFound, CodeBadRequest, "Not found")
			return
		}
	}

	if s.staticDir == "" {
		writeError(w, http.StatusNotFound, CodeBadRequest, "Not found")
		return
	}

	requested := filepath.Join(s.staticDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(requested); err == nil && !info.IsDir() {
		http.ServeFile(w, r, requested)
		return
	}

	index := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		writeError(w, http.StatusNotFound, CodeBadRequest, "Not found")
		return
	}
	http.ServeFile(w, r, index)
}
