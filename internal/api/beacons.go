package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/beaconfleet/beacon-core/internal/audit"
	"github.com/beaconfleet/beacon-core/internal/beacon"
)

// handleGetDevices lists the IDs of every beacon that has ever reported.
func (s *Server) handleGetDevices(w http.ResponseWriter, r *http.Request) {
	ids, err := s.beacons.ListIDs(r.Context())
	if err != nil {
		s.logger.Error("listing beacons failed", "error", err)
		writeFailure(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeData(w, ids)
}

// handleGetDeviceInfo returns the latest telemetry snapshot for one beacon.
func (s *Server) handleGetDeviceInfo(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")

	b, err := s.beacons.Get(r.Context(), deviceID)
	if err != nil {
		if errors.Is(err, beacon.ErrBeaconNotFound) {
			writeFailure(w, http.StatusNotFound, "Device not found.")
			return
		}
		s.logger.Error("beacon lookup failed", "device_id", deviceID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, b)
}

// sendInfoRequest is the request body for POST /send-info. Telemetry
// fields are pointers: absent and null fields must not disturb stored
// values.
type sendInfoRequest struct {
	DeviceID          string   `json:"deviceId"`
	BatteryLevel      *float64 `json:"batteryLevel"`
	ControllerBattery *float64 `json:"controllerBattery"`
	CoreTemp          *float64 `json:"coreTemp"`
	HouseTemp         *float64 `json:"houseTemp"`
	Latency           *float64 `json:"latency"`
}

// handleSendInfo merges a telemetry report into the registry.
func (s *Server) handleSendInfo(w http.ResponseWriter, r *http.Request) {
	var req sendInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Device ID is missing")
		return
	}
	if req.DeviceID == "" {
		writeFailure(w, http.StatusBadRequest, "Device ID is missing")
		return
	}

	report := beacon.Report{
		BatteryLevel:      req.BatteryLevel,
		ControllerBattery: req.ControllerBattery,
		CoreTemp:          req.CoreTemp,
		HouseTemp:         req.HouseTemp,
		Latency:           req.Latency,
	}

	if err := s.beacons.Upsert(r.Context(), req.DeviceID, report); err != nil {
		s.logger.Error("beacon upsert failed", "device_id", req.DeviceID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// History export and live feed are best-effort extras; the report
	// is already committed to the registry.
	if s.telemetry != nil {
		s.telemetry.WriteTelemetry(req.DeviceID, report)
	}
	if s.hub != nil {
		s.hub.Broadcast(ChannelBeaconUpdated, map[string]any{
			"deviceId": req.DeviceID,
		})
	}
	s.recordAudit(r, audit.ActionTelemetry, req.DeviceID, map[string]any{
		"fields": report.FieldCount(),
	})

	s.logger.Info("telemetry received", "device_id", req.DeviceID)
	writeSuccess(w, "Device "+req.DeviceID+" updated successfully.")
}

// handleConfigureBeacon acknowledges a beacon configuration push.
// Nothing is persisted; the delivery channel to the device is not part
// of this backend.
func (s *Server) handleConfigureBeacon(w http.ResponseWriter, r *http.Request) {
	subject := subjectFromContext(r.Context())

	var req struct {
		Config json.RawMessage `json:"config"`
	}
	//nolint:errcheck // config payload is opaque and unused
	json.NewDecoder(r.Body).Decode(&req)

	s.logger.Info("beacon configure acknowledged", "subject", subject)
	writeSuccess(w, "Hello "+subject+", beacon configured successfully.")
}

// handleGetBeaconConfiguration acknowledges a configuration fetch.
// There is no persisted beacon configuration to return.
func (s *Server) handleGetBeaconConfiguration(w http.ResponseWriter, r *http.Request) {
	subject := subjectFromContext(r.Context())
	writeSuccess(w, "Hello "+subject+", get beacon configuration successful.")
}
