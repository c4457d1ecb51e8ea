package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialEvents connects an authenticated WebSocket client to a test server.
func dialEvents(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	router := srv.buildRouter()
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	token := loginToken(t, router)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	header := map[string][]string{"Authorization": {"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial %s: %v (resp %v)", url, err, resp)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestEvents_RequiresAuth(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded without a token")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("resp = %v, want 401", resp)
	}
	resp.Body.Close()
}

func TestEvents_PathIsConfigurable(t *testing.T) {
	srv := testServer(t)
	srv.wsCfg.Path = "/live"

	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded without a token")
	}
	// 401, not 404: the configured route exists and is auth-gated.
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("resp = %v, want 401 on configured path", resp)
	}
	resp.Body.Close()
}

func TestEvents_SubscribeAndBroadcast(t *testing.T) {
	srv := testServer(t)
	conn := dialEvents(t, srv)

	// Subscribe to telemetry updates.
	sub := WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "1",
		Payload: WSSubscribePayload{Channels: []string{ChannelBeaconUpdated}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	//nolint:errcheck // test deadline, failure surfaces on read
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ack WSMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read subscribe ack: %v", err)
	}
	if ack.Type != WSTypeResponse {
		t.Fatalf("ack type = %q, want %q", ack.Type, WSTypeResponse)
	}

	// Give the hub time to register the subscription before broadcasting.
	waitForClients(t, srv.hub, 1)

	srv.hub.Broadcast(ChannelBeaconUpdated, map[string]any{"deviceId": "B1"})

	var event WSMessage
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != WSTypeEvent || event.EventType != ChannelBeaconUpdated {
		t.Fatalf("event = %+v, want %s event", event, ChannelBeaconUpdated)
	}
	payload, ok := event.Payload.(map[string]any)
	if !ok || payload["deviceId"] != "B1" {
		t.Errorf("payload = %v, want deviceId B1", event.Payload)
	}
}

func TestEvents_UnsubscribedChannelNotDelivered(t *testing.T) {
	srv := testServer(t)
	conn := dialEvents(t, srv)

	waitForClients(t, srv.hub, 1)

	// No subscription: broadcast must not reach the client.
	srv.hub.Broadcast(ChannelMessageReceived, map[string]any{"deviceId": "B1"})

	//nolint:errcheck // short deadline is the point of this test
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var msg json.RawMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("received %s without a subscription", msg)
	}
}

// waitForClients polls until the hub sees the expected client count.
func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for hub.ClientCount() < want {
		select {
		case <-ctx.Done():
			t.Fatalf("hub clients = %d, want %d", hub.ClientCount(), want)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
