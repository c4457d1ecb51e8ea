package beacon

import "errors"

// ErrBeaconNotFound is returned when the requested beacon has never
// reported telemetry.
var ErrBeaconNotFound = errors.New("beacon not found")
