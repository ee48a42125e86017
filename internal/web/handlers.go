package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gitgud-app/gitgud/internal/compare"
	"github.com/gitgud-app/gitgud/internal/github"
	"github.com/gitgud-app/gitgud/internal/llm"
)

// GitHub usernames are at most 39 characters.
const maxUsernameLen = 39

func validUsername(u string) bool {
	return len(u) >= 1 && len(u) <= maxUsernameLen
}

// mapUpstreamError translates a pipeline failure into the error envelope.
// GitHub lookups that fail because the user does not exist are the caller's
// fault; everything else upstream is a gateway problem.
func (s *Server) mapUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, github.ErrUserNotFound):
		writeError(w, http.StatusNotFound, CodeGitHubError, err.Error())
	case errors.Is(err, github.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, CodeGitHubError, err.Error())
	default:
		writeError(w, http.StatusBadGateway, CodeOpenAIError, err.Error())
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "GitGud Backend API",
		"version":     "2.0.0",
		"description": "Backend API for GitGud - GitHub Developer Comparison Platform",
		"endpoints": map[string]string{
			"GET /":                      "API information (this endpoint)",
			"GET /health":                "Health check endpoint",
			"POST /roast":                "Generate roast, advice, and personality profile for a GitHub user",
			"POST /tts":                  "Convert text to speech using ElevenLabs",
			"POST /compare":              "Compare two GitHub users and determine winner",
			"POST /translate":            "Translate text to target language",
			"GET /leaderboard":           "Get leaderboard of top developers",
			"GET /leaderboard/:username": "Get stats for a specific user",
			"GET /auth/github":           "Start GitHub OAuth flow",
			"GET /auth/github/callback":  "GitHub OAuth callback",
			"GET /auth/me":               "Get current user session",
			"POST /auth/logout":          "Logout user",
			"POST /pvp/create":           "Create a new PVP match",
			"POST /pvp/join":             "Join an existing PVP match",
			"GET /pvp/match/:matchId":    "Get match status",
			"POST /pvp/ready/:matchId":   "Mark player as ready",
			"GET /pvp/my-match":          "Get current user's match",
			"POST /pvp/leave":            "Leave the current match",
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type roastRequest struct {
	Username      string        `json:"username"`
	Intensity     llm.Intensity `json:"intensity"`
	IncludeReadme bool          `json:"includeReadme"`
	MaxRepos      int           `json:"maxRepos"`
}

type roastResponse struct {
	RequestID string           `json:"request_id"`
	Username  string           `json:"username"`
	Signals   *github.Signals  `json:"signals"`
	Roast     *llm.RoastResult `json:"roast"`
}

func (s *Server) handleRoast(w http.ResponseWriter, r *http.Request) {
	var req roastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid JSON body")
		return
	}
	if !validUsername(req.Username) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Validation error: username must be 1-39 characters")
		return
	}
	if req.Intensity == "" {
		req.Intensity = llm.IntensityMedium
	}
	if !req.Intensity.Valid() {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Validation error: intensity must be mild, medium or spicy")
		return
	}
	if req.MaxRepos <= 0 {
		req.MaxRepos = compare.MaxRepos
	}
	if req.MaxRepos > 10 {
		req.MaxRepos = 10
	}

	requestID := uuid.New().String()
	log := s.log.WithField("requestId", requestID).WithField("username", req.Username)
	log.Info("roast request received")

	signals, err := s.compare.SignalsFor(r.Context(), req.Username, req.MaxRepos, req.IncludeReadme)
	if err != nil {
		log.WithError(err).Error("roast request failed")
		s.mapUpstreamError(w, err)
		return
	}

	roast, err := s.compare.RoastFor(r.Context(), req.Username, signals, req.Intensity)
	if err != nil {
		log.WithError(err).Error("roast request failed")
		s.mapUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, roastResponse{
		RequestID: requestID,
		Username:  req.Username,
		Signals:   signals,
		Roast:     roast,
	})
}

type compareRequest struct {
	Username1 string `json:"username1"`
	Username2 string `json:"username2"`
	Language  string `json:"language"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid JSON body")
		return
	}
	if !validUsername(req.Username1) || !validUsername(req.Username2) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Validation error: usernames must be 1-39 characters")
		return
	}
	if req.Username1 == req.Username2 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Cannot compare a user with themselves")
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}

	start := time.Now()
	log := s.log.WithFields(logrus.Fields{
		"username1": req.Username1,
		"username2": req.Username2,
		"language":  req.Language,
	})
	log.Info("compare request received")

	result, err := s.compare.Compare(r.Context(), req.Username1, req.Username2, req.Language)
	if err != nil {
		log.WithError(err).Error("compare request failed")
		s.mapUpstreamError(w, err)
		return
	}

	// Direct comparisons count toward the leaderboard too, not just PVP.
	if winner, loser := result.Outcome(); winner != "" {
		if err := s.store.RecordMatchResult(r.Context(), winner, loser); err != nil {
			log.WithError(err).Error("failed to record compare result")
		}
	}

	log.WithField("totalTime", time.Since(start).String()).Info("compare request completed")
	writeJSON(w, http.StatusOK, result)
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid JSON body")
		return
	}
	if len(req.Text) < 1 || len(req.Text) > 5000 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Validation error: text must be 1-5000 characters")
		return
	}
	if len(req.TargetLanguage) < 2 || len(req.TargetLanguage) > 5 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Validation error: targetLanguage must be an ISO language code")
		return
	}

	translated, err := s.llm.Translate(r.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		s.log.WithError(err).Error("translation failed")
		writeError(w, http.StatusBadGateway, CodeOpenAIError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"translated_text": translated,
		"source_language": "auto",
		"target_language": req.TargetLanguage,
	})
}

type ttsRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
	ModelID string `json:"modelId"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid JSON body")
		return
	}
	if req.Text == "" || req.VoiceID == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Validation error: text and voiceId are required")
		return
	}

	audio, contentType, err := s.tts.Synthesize(r.Context(), req.Text, req.VoiceID, req.ModelID)
	if err != nil {
		s.log.WithError(err).Error("text-to-speech failed")
		writeError(w, http.StatusBadGateway, CodeInternalError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}

	entries, err := s.store.GetLeaderboard(r.Context(), limit)
	if err != nil {
		s.log.WithError(err).Error("leaderboard fetch failed")
		writeError(w, http.StatusInternalServerError, CodeInternalError, "Failed to load leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries":       entries,
		"total_entries": len(entries),
	})
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	stats, err := s.store.GetUserStats(r.Context(), username)
	if err != nil {
		s.log.WithError(err).Error("user stats fetch failed")
		writeError(w, http.StatusInternalServerError, CodeInternalError, "Failed to load user stats")
		return
	}
	if stats == nil {
		writeError(w, http.StatusNotFound, CodeBadRequest, "User not found in leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
