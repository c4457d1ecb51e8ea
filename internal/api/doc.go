// Package api provides the HTTP and WebSocket API for the beacon
// fleet backend.
//
// It exposes the login endpoint, the token-gated telemetry and
// messaging endpoints used by beacons and interactive clients, and a
// live event feed over WebSocket.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: all methods are safe for concurrent use from multiple
// goroutines.
package api
