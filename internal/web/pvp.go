package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gitgud-app/gitgud/internal/auth"
	"github.com/gitgud-app/gitgud/internal/match"
)

type matchResponse struct {
	Match *match.Match `json:"match"`
}

type createMatchRequest struct {
	Username string `json:"username"`
}

// handlePVPCreate opens a new match with the caller as player1. A user can
// only hold one non-completed match at a time; the check happens here rather
// than in the coordinator.
func (s *Server) handlePVPCreate(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req createMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid JSON body")
		return
	}
	if !validUsername(req.Username) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Validation error: username must be 1-39 characters")
		return
	}

	if existing := s.coord.GetUserMatch(user.GithubID); existing != nil && existing.Status != match.StatusCompleted {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "You already have an active match")
		return
	}

	m := s.coord.CreateMatch(req.Username, user.GithubID)
	writeJSON(w, http.StatusOK, matchResponse{Match: m})
}

type joinMatchRequest struct {
	MatchID  string `json:"matchId"`
	Username string `json:"username"`
}

func (s *Server) handlePVPJoin(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req joinMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid JSON body")
		return
	}
	if req.MatchID == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Validation error: matchId is required")
		return
	}
	if !validUsername(req.Username) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Validation error: username must be 1-39 characters")
		return
	}

	m, err := s.coord.JoinMatch(req.MatchID, req.Username, user.GithubID)
	if err != nil {
		switch {
		case errors.Is(err, match.ErrMatchNotFound):
			writeError(w, http.StatusNotFound, CodeBadRequest, "Match not found")
		case errors.Is(err, match.ErrSelfJoin), errors.Is(err, match.ErrMatchFull):
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, CodeInternalError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, matchResponse{Match: m})
}

// handlePVPGetMatch is unauthenticated so a challenge link can be previewed
// before logging in.
func (s *Server) handlePVPGetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	m := s.coord.GetMatch(matchID)
	if m == nil {
		writeError(w, http.StatusNotFound, CodeBadRequest, "Match not found")
		return
	}

	writeJSON(w, http.StatusOK, matchResponse{Match: m})
}

func (s *Server) handlePVPReady(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	matchID := chi.URLParam(r, "matchID")

	m := s.coord.SetReady(matchID, user.GithubID)
	if m == nil {
		writeError(w, http.StatusNotFound, CodeBadRequest, "Match not found or you are not a player in this match")
		return
	}

	writeJSON(w, http.StatusOK, matchResponse{Match: m})
}

func (s *Server) handlePVPMyMatch(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	m := s.coord.GetUserMatch(user.GithubID)
	if m == nil {
		writeError(w, http.StatusNotFound, CodeBadRequest, "No active match found")
		return
	}

	writeJSON(w, http.StatusOK, matchResponse{Match: m})
}

// handlePVPLeave deletes the caller's current match regardless of state,
// freeing both players to start a new one.
func (s *Server) handlePVPLeave(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	m := s.coord.GetUserMatch(user.GithubID)
	if m == nil {
		writeError(w, http.StatusNotFound, CodeBadRequest, "No active match found")
		return
	}

	s.coord.DeleteMatch(m.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
