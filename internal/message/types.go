package message

// TimestampLayout renders a UTC instant at fixed width with
// microsecond precision. Every stored timestamp uses this layout so
// string comparison agrees with temporal order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Message is a single entry in the append-only log.
type Message struct {
	DeviceID  string `json:"deviceId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Filter narrows a Query. Zero values mean "no constraint".
type Filter struct {
	// DeviceID, when non-empty, limits results to one sender.
	DeviceID string

	// Since, when non-empty, keeps only messages with a timestamp at
	// or after this value. Callers pass timestamps they previously
	// received, so the format matches TimestampLayout.
	Since string
}
