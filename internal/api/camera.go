package api

import (
	"encoding/json"
	"net/http"

	"github.com/beaconfleet/beacon-core/internal/audit"
)

// handleConfigureCamera applies a partial camera configuration update.
// Unknown keys are ignored; a recognised key with an uncoercible value
// rejects the whole update, surfaced as a 500 with the store's error.
func (s *Server) handleConfigureCamera(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := s.camera.Update(r.Context(), raw); err != nil {
		s.logger.Error("camera config update failed", "error", err)
		writeFailure(w, http.StatusInternalServerError, "Error occurred: "+err.Error())
		return
	}

	s.recordAudit(r, audit.ActionCameraConfigure, "", map[string]any{
		"keys": len(raw),
	})

	s.logger.Info("camera configured", "subject", subjectFromContext(r.Context()))
	writeSuccess(w, "Camera configured successfully.")
}

// handleGetCameraConfiguration returns the full camera configuration.
func (s *Server) handleGetCameraConfiguration(w http.ResponseWriter, r *http.Request) {
	config, err := s.camera.Get(r.Context())
	if err != nil {
		s.logger.Error("camera config read failed", "error", err)
		writeFailure(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, config)
}
