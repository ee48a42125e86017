package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/gitgud-app/gitgud/internal/auth"
	"github.com/gitgud-app/gitgud/internal/cache"
	"github.com/gitgud-app/gitgud/internal/compare"
	"github.com/gitgud-app/gitgud/internal/github"
	"github.com/gitgud-app/gitgud/internal/leaderboard"
	"github.com/gitgud-app/gitgud/internal/llm"
	"github.com/gitgud-app/gitgud/internal/match"
	"github.com/gitgud-app/gitgud/internal/store"
	"github.com/gitgud-app/gitgud/internal/tts"
	"github.com/gitgud-app/gitgud/internal/web"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	setupLogging()

	// Configuration from environment
	port := getEnv("PORT", "3000")
	baseURL := getEnv("BASE_URL", "http://localhost:"+port)
	frontendURL := getEnv("FRONTEND_URL", "http://localhost:5173")
	dbPath := getEnv("DATABASE_PATH", "./data/gitgud.db")
	staticDir := getEnv("STATIC_DIR", "./frontend/dist")
	openaiModel := getEnv("OPENAI_MODEL", llm.DefaultModel)

	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		logrus.Fatal("OPENAI_API_KEY is required")
	}
	elevenLabsKey := os.Getenv("ELEVENLABS_API_KEY")
	if elevenLabsKey == "" {
		logrus.Fatal("ELEVENLABS_API_KEY is required")
	}

	githubToken := githubTokenFromEnv()
	if githubToken == "" {
		logrus.Warn("GITHUB_TOKEN not set, using unauthenticated GitHub API limits")
	}

	var allowedOrigins []string
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowedOrigins = append(allowedOrigins, o)
		}
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logrus.WithError(err).Fatal("failed to create data directory")
	}

	// Initialize store
	db, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	// External clients and caches
	githubClient := github.NewClient(githubToken)
	llmClient := llm.NewClient(openaiKey, openaiModel)
	ttsClient := tts.NewClient(elevenLabsKey)
	signalCache := cache.NewSignalCache(cache.SignalTTL)
	roastCache := cache.NewRoastCache(cache.RoastTTL)

	// Match coordination. The comparison job needs the coordinator to report
	// results back, so it is attached after construction.
	compareService := compare.NewService(githubClient, llmClient, signalCache, roastCache)
	matchStore := match.NewStore()
	coord := match.New(matchStore, nil)
	coord.SetRunner(compare.NewJob(compareService, coord))

	// Auth
	sessions := auth.NewSessionManager(db)
	var githubAuth *auth.GitHubAuth
	clientID := os.Getenv("GITHUB_CLIENT_ID")
	clientSecret := os.Getenv("GITHUB_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		githubAuth = auth.NewGitHubAuth(clientID, clientSecret, baseURL, frontendURL, db, sessions)
	} else {
		logrus.Warn("GitHub OAuth credentials not provided, PVP mode will not work")
	}

	server := web.NewServer(coord, compareService, llmClient, ttsClient, db, sessions, githubAuth, web.Config{
		AllowedOrigins: allowedOrigins,
		StaticDir:      staticDir,
	})
	defer server.Close()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start coordinator and its consumers
	recorderEvents := coord.Subscribe()
	go coord.Run(ctx)
	go leaderboard.NewRecorder(db).Run(ctx, recorderEvents)

	janitor := match.NewJanitor(coord)
	go func() {
		if err := janitor.Run(ctx); err != nil {
			logrus.WithError(err).Error("janitor stopped")
		}
	}()

	go runSessionCleanup(ctx, db)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: server,
	}

	// Handle shutdown signals
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		logrus.Info("shutting down")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("HTTP server shutdown error")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":  port,
		"model": openaiModel,
	}).Info("gitgud backend listening")

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logrus.WithError(err).Fatal("HTTP server error")
	}

	logrus.Info("server stopped")
}

func setupLogging() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		logrus.SetLevel(level)
	}
}

// runSessionCleanup purges expired sessions hourly.
func runSessionCleanup(ctx context.Context, db store.Store) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		logrus.WithError(err).Error("failed to start session cleanup")
		return
	}

	_, err = sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			if err := db.DeleteExpiredSessions(context.Background()); err != nil {
				logrus.WithError(err).Error("session cleanup failed")
			}
		}),
	)
	if err != nil {
		logrus.WithError(err).Error("failed to schedule session cleanup")
		return
	}

	sched.Start()
	<-ctx.Done()
	sched.Shutdown()
}

// githubTokenFromEnv ignores placeholder values left in a copied .env file.
func githubTokenFromEnv() string {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" || strings.Contains(token, "your_github") || len(token) <= 10 {
		return ""
	}
	return token
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
