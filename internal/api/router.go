package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
// Paths are flat rather than versioned: the beacon firmware and the
// stress-test harness both hardcode them.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check (no auth required)
	r.Get("/health", s.handleHealth)

	// Token issuance (no auth required)
	r.Post("/login", s.handleLogin)

	// Everything else passes the authorization gate.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		// Connectivity check
		r.Get("/ping", s.handlePing)

		// Client endpoints
		r.Get("/get-devices", s.handleGetDevices)
		r.Get("/get-device-info", s.handleGetDeviceInfo)
		r.Get("/get-messages", s.handleGetMessages)
		r.Get("/get-images", s.handleGetImages)
		r.Get("/get-audit-log", s.handleGetAuditLog)
		r.Post("/configure-camera", s.handleConfigureCamera)
		r.Post("/configure-beacon", s.handleConfigureBeacon)

		// Beacon endpoints
		r.Post("/send-message", s.handleSendMessage)
		r.Post("/send-image", s.handleSendImage)
		r.Post("/send-info", s.handleSendInfo)
		r.Get("/get-beacon-configuration", s.handleGetBeaconConfiguration)
		r.Get("/get-camera-configuration", s.handleGetCameraConfiguration)

		// Live event feed
		r.Get(s.eventsPath(), s.handleEvents)
	})

	return r
}

// eventsPath returns the configured WebSocket feed route.
func (s *Server) eventsPath() string {
	if s.wsCfg.Path != "" {
		return s.wsCfg.Path
	}
	return "/events"
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
