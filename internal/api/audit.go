package api

import (
	"net/http"
	"strconv"

	"github.com/beaconfleet/beacon-core/internal/audit"
)

// recordAudit writes an audit trail entry for an API action.
// Failures are logged and swallowed: the trail never fails the
// request it describes.
func (s *Server) recordAudit(r *http.Request, action, deviceID string, details map[string]any) {
	entry := &audit.Entry{
		Action:   action,
		Subject:  subjectFromContext(r.Context()),
		DeviceID: deviceID,
		Details:  details,
	}
	if err := s.audit.Record(r.Context(), entry); err != nil {
		s.logger.Warn("failed to record audit entry",
			"action", action, "device_id", deviceID, "error", err)
	}
}

// handleGetAuditLog returns a paginated view of the audit trail.
func (s *Server) handleGetAuditLog(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{
		Action:   r.URL.Query().Get("action"),
		Subject:  r.URL.Query().Get("subject"),
		DeviceID: r.URL.Query().Get("deviceId"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err)
		writeFailure(w, http.StatusInternalServerError, "Error occurred: "+err.Error())
		return
	}

	writeData(w, result)
}
