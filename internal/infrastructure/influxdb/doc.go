// Package influxdb exports beacon telemetry history to InfluxDB v2.
//
// The export is optional and strictly best-effort: the SQLite registry
// holds only the latest snapshot per beacon, so InfluxDB is where the
// history of battery, temperature and latency readings accumulates for
// dashboards. Writes are batched and non-blocking; a failed write never
// fails the originating request, errors surface through an async
// callback instead.
//
// When the integration is disabled in configuration, Connect returns
// ErrDisabled and the caller runs without an exporter.
package influxdb
