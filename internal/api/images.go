package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/beaconfleet/beacon-core/internal/audit"
	"github.com/beaconfleet/beacon-core/internal/imagestore"
)

// sendImageRequest is the request body for POST /send-image. The image
// arrives base64-encoded, optionally with a data-URI prefix
// ("data:image/png;base64,....").
type sendImageRequest struct {
	Image string `json:"image"`
}

// handleSendImage decodes and stores an uploaded image under the
// authenticated subject's slot.
func (s *Server) handleSendImage(w http.ResponseWriter, r *http.Request) {
	var req sendImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Image and Device ID are required.")
		return
	}
	if req.Image == "" {
		writeFailure(w, http.StatusBadRequest, "Image and Device ID are required.")
		return
	}

	encoded := req.Image
	if i := strings.Index(encoded, ","); i >= 0 {
		encoded = encoded[i+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "Error occurred: "+err.Error())
		return
	}

	subject := subjectFromContext(r.Context())
	path, err := s.images.Save(subject, data)
	if err != nil {
		s.logger.Error("image save failed", "subject", subject, "error", err)
		writeFailure(w, http.StatusInternalServerError, "Error occurred: "+err.Error())
		return
	}

	s.recordAudit(r, audit.ActionImageUpload, "", map[string]any{
		"bytes": len(data),
	})

	s.logger.Info("image uploaded", "subject", subject, "path", path, "bytes", len(data))
	writeSuccess(w, "Picture uploaded successfully: "+path)
}

// handleGetImages serves the stored image. A deviceId query parameter
// is accepted for compatibility but storage is keyed by the
// authenticated subject, not the device; the parameter is ignored.
func (s *Server) handleGetImages(w http.ResponseWriter, r *http.Request) {
	subject := subjectFromContext(r.Context())

	data, err := s.images.Read(subject)
	if err != nil {
		if errors.Is(err, imagestore.ErrImageNotFound) {
			writeFailure(w, http.StatusNotFound, "Image not found")
			return
		}
		s.logger.Error("image read failed", "subject", subject, "error", err)
		writeFailure(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(data)
}
