package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/beaconfleet/beacon-core/internal/beacon"
)

// WriteTelemetry records one beacon_telemetry point carrying every
// field the report supplied. Reports with no telemetry fields are
// skipped; a registry touch has nothing to plot.
//
// The write is non-blocking: data is batched and sent asynchronously.
func (c *Client) WriteTelemetry(deviceID string, report beacon.Report) {
	if !c.IsConnected() || report.IsEmpty() {
		return
	}

	fields := map[string]interface{}{}
	if report.BatteryLevel != nil {
		fields["battery_level"] = *report.BatteryLevel
	}
	if report.ControllerBattery != nil {
		fields["controller_battery"] = *report.ControllerBattery
	}
	if report.CoreTemp != nil {
		fields["core_temp"] = *report.CoreTemp
	}
	if report.HouseTemp != nil {
		fields["house_temp"] = *report.HouseTemp
	}
	if report.Latency != nil {
		fields["latency"] = *report.Latency
	}

	point := write.NewPoint(
		"beacon_telemetry",
		map[string]string{
			"device_id": deviceID,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
