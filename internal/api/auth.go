package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/beaconfleet/beacon-core/internal/audit"
	"github.com/beaconfleet/beacon-core/internal/auth"
)

// loginRequest is the request body for POST /login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// handleLogin verifies credentials and issues a session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "Missing username or password")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeAuthError(w, http.StatusBadRequest, "Missing username or password")
		return
	}

	ok, err := s.credentials.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		s.logger.Error("credential check failed", "error", err)
		writeFailure(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	ttl := time.Duration(s.secCfg.JWT.TokenTTL) * time.Hour
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}

	token, err := auth.IssueToken(req.Username, s.secCfg.JWT.Secret, ttl)
	if err != nil {
		s.logger.Error("token issue failed", "error", err)
		writeFailure(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	s.logger.Info("login", "username", req.Username)

	// Login runs before the auth gate, so the subject comes from the
	// verified credentials rather than the request context.
	if err := s.audit.Record(r.Context(), &audit.Entry{
		Action:  audit.ActionLogin,
		Subject: req.Username,
	}); err != nil {
		s.logger.Warn("failed to record audit entry", "action", audit.ActionLogin, "error", err)
	}

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

// handlePing confirms connectivity for an authenticated caller.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	subject := subjectFromContext(r.Context())
	writeSuccess(w, "Hello "+subject+", ping successful.")
}
