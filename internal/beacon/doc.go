// Package beacon maintains the registry of field beacons known to the
// backend. A beacon row is created the first time a device reports
// telemetry and is merged field-by-field on every subsequent report:
// fields present in a report overwrite the stored value, fields the
// report omits keep whatever was last seen. The last_activity timestamp
// is refreshed on every report regardless of which fields changed.
//
// The registry never deletes rows; a beacon that stops reporting simply
// keeps its last observed telemetry and activity time.
package beacon
