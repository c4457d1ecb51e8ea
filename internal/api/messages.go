package api

import (
	"encoding/json"
	"net/http"

	"github.com/beaconfleet/beacon-core/internal/audit"
	"github.com/beaconfleet/beacon-core/internal/message"
)

// sendMessageRequest is the request body for POST /send-message.
type sendMessageRequest struct {
	DeviceID string `json:"deviceId"`
	Message  string `json:"message"`
}

// handleSendMessage appends a message to the log and refreshes the
// sender's registry activity. The two writes are deliberately
// best-effort: a registry failure after a successful append is logged,
// not rolled back, so the message is never lost.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Message text and Device ID are required.")
		return
	}
	if req.DeviceID == "" || req.Message == "" {
		writeFailure(w, http.StatusBadRequest, "Message text and Device ID are required.")
		return
	}

	msg, err := s.messages.Append(r.Context(), req.DeviceID, req.Message)
	if err != nil {
		s.logger.Error("message append failed", "device_id", req.DeviceID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := s.beacons.Touch(r.Context(), req.DeviceID); err != nil {
		s.logger.Warn("registry touch after message failed", "device_id", req.DeviceID, "error", err)
	}

	if s.hub != nil {
		s.hub.Broadcast(ChannelMessageReceived, msg)
	}
	s.recordAudit(r, audit.ActionMessage, req.DeviceID, map[string]any{
		"length": len(req.Message),
	})

	s.logger.Info("message received", "device_id", req.DeviceID)
	writeSuccess(w, "Message sent successfully.")
}

// handleGetMessages returns messages matching the optional deviceId
// and since query parameters.
func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	filter := message.Filter{
		DeviceID: r.URL.Query().Get("deviceId"),
		Since:    r.URL.Query().Get("since"),
	}

	messages, err := s.messages.Query(r.Context(), filter)
	if err != nil {
		s.logger.Error("message query failed", "error", err)
		writeFailure(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, messages)
}
