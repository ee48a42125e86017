// Package web is the HTTP layer: routing, middleware, JSON handlers and SPA
// serving.
package web

import (
	"encoding/json"
	"net/http"
)

// Error codes used in the JSON error envelope.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeGitHubError   = "GITHUB_ERROR"
	CodeOpenAIError   = "OPENAI_ERROR"
	CodeRateLimit     = "RATE_LIMIT"
	CodeInternalError = "INTERNAL_ERROR"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

// decodeJSON parses the request body into dst. Unknown fields are ignored; a
// malformed body surfaces as a decode error the caller turns into a 400.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
