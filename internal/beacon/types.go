package beacon

import "time"

// Beacon is the registry record for a single device. Telemetry fields
// are pointers so a value that has never been reported serialises as
// JSON null rather than a misleading zero.
type Beacon struct {
	DeviceID          string    `json:"deviceId"`
	BatteryLevel      *float64  `json:"batteryLevel"`
	ControllerBattery *float64  `json:"controllerBattery"`
	CoreTemp          *float64  `json:"coreTemp"`
	HouseTemp         *float64  `json:"houseTemp"`
	Latency           *float64  `json:"latency"`
	LastActivity      time.Time `json:"lastActivity"`
}

// Report is a partial telemetry update from a device. Nil fields were
// absent from the report and must not disturb stored values.
type Report struct {
	BatteryLevel      *float64 `json:"batteryLevel"`
	ControllerBattery *float64 `json:"controllerBattery"`
	CoreTemp          *float64 `json:"coreTemp"`
	HouseTemp         *float64 `json:"houseTemp"`
	Latency           *float64 `json:"latency"`
}

// IsEmpty reports whether the report carries no telemetry fields at
// all. Empty reports are still valid: they refresh last_activity.
func (r Report) IsEmpty() bool {
	return r.FieldCount() == 0
}

// FieldCount returns the number of telemetry fields present in the
// report.
func (r Report) FieldCount() int {
	count := 0
	for _, p := range []*float64{
		r.BatteryLevel, r.ControllerBattery, r.CoreTemp, r.HouseTemp, r.Latency,
	} {
		if p != nil {
			count++
		}
	}
	return count
}
