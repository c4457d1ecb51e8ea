package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/beaconfleet/beacon-core/internal/audit"
	"github.com/beaconfleet/beacon-core/internal/auth"
	"github.com/beaconfleet/beacon-core/internal/beacon"
	"github.com/beaconfleet/beacon-core/internal/camera"
	"github.com/beaconfleet/beacon-core/internal/imagestore"
	"github.com/beaconfleet/beacon-core/internal/infrastructure/config"
	"github.com/beaconfleet/beacon-core/internal/infrastructure/logging"
	"github.com/beaconfleet/beacon-core/internal/message"
)

const (
	testSecret   = "test-secret-key-at-least-32-characters-long"
	testUsername = "beacon-1"
	testPassword = "correct horse battery staple"
)

const testCameraDefaults = `{"Brightness":0.0,"Saturation":1.0,"Sharpness":1.0,` +
	`"ExposureValue":0.0,"LensPosition":0.0,"ExposureTime":0,"AfMode":0,` +
	`"HdrMode":0,"AeEnable":true}`

// testServer creates a Server backed by in-memory SQLite with one
// seeded user.
func testServer(t *testing.T) *Server {
	t.Helper()

	db := setupTestDB(t)
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	users := auth.NewUserRepository(db)
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := users.Create(context.Background(), &auth.User{
		Username:     testUsername,
		PasswordHash: hash,
	}); err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	images, err := imagestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("imagestore.New: %v", err)
	}

	srv, err := New(Deps{
		Config: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.ServerTimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:   testSecret,
				TokenTTL: 2,
			},
		},
		Logger:      log,
		Credentials: auth.NewCredentialStore(users),
		Beacons:     beacon.NewSQLiteRepository(db),
		Messages:    message.NewSQLiteRepository(db),
		Camera:      camera.NewSQLiteStore(db),
		Images:      images,
		Audit:       audit.NewSQLiteRepository(db),
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	srv.hub = NewHub(srv.wsCfg, log)
	go srv.hub.Run(context.Background())

	return srv
}

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		) STRICT;
		CREATE TABLE beacons (
			device_id TEXT PRIMARY KEY,
			battery_level REAL,
			controller_battery REAL,
			core_temp REAL,
			house_temp REAL,
			latency REAL,
			last_activity TEXT NOT NULL
		) STRICT;
		CREATE TABLE messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL,
			message TEXT NOT NULL,
			timestamp TEXT NOT NULL
		) STRICT;
		CREATE TABLE camera_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			config TEXT NOT NULL
		) STRICT;
		CREATE TABLE audit_log (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			subject TEXT NOT NULL,
			device_id TEXT,
			details TEXT,
			created_at TEXT NOT NULL
		) STRICT;
	`
	if _, execErr := db.Exec(schema); execErr != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", execErr)
	}
	if _, seedErr := db.Exec("INSERT INTO camera_config (id, config) VALUES (1, ?)", testCameraDefaults); seedErr != nil {
		db.Close()
		t.Fatalf("failed to seed camera config: %v", seedErr)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// doJSON performs a request with an optional token and JSON body.
func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// loginToken logs in the seeded user and returns the access token.
func loginToken(t *testing.T, router http.Handler) string {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/login", "", map[string]string{
		"username": testUsername,
		"password": testPassword,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("login returned empty access_token")
	}
	return resp.AccessToken
}

// decodeBody unmarshals a JSON response body into a map.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	resp := decodeBody(t, w)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

func TestLogin(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	t.Run("valid credentials", func(t *testing.T) {
		token := loginToken(t, router)

		subject, err := auth.VerifyToken(token, testSecret)
		if err != nil {
			t.Fatalf("VerifyToken on issued token: %v", err)
		}
		if subject != testUsername {
			t.Errorf("subject = %q, want %q", subject, testUsername)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/login", "", map[string]string{
			"username": testUsername,
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/login", "", map[string]string{
			"username": testUsername,
			"password": "wrong",
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("unknown user fails closed", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/login", "", map[string]string{
			"username": "nobody",
			"password": "whatever",
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401, body = %s", w.Code, w.Body.String())
		}
	})
}

func TestAuthGate(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	send := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("missing header", func(t *testing.T) {
		w := send("")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
		if resp := decodeBody(t, w); resp["message"] != "Authorization header missing" {
			t.Errorf("message = %v", resp["message"])
		}
	})

	t.Run("wrong scheme", func(t *testing.T) {
		if w := send("Basic abc123"); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("extra segments", func(t *testing.T) {
		if w := send("Bearer one two"); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		token := loginToken(t, router)
		if w := send("bearer " + token); w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := auth.IssueToken(testUsername, testSecret, -time.Minute)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		w := send("Bearer " + expired)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if resp := decodeBody(t, w); resp["message"] != "Token expired" {
			t.Errorf("message = %v, want Token expired", resp["message"])
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := send("Bearer not-a-token")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if resp := decodeBody(t, w); resp["message"] != "Invalid token" {
			t.Errorf("message = %v, want Invalid token", resp["message"])
		}
	})

	t.Run("valid token reaches handler", func(t *testing.T) {
		token := loginToken(t, router)
		w := send("Bearer " + token)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		resp := decodeBody(t, w)
		if resp["message"] != "Hello "+testUsername+", ping successful." {
			t.Errorf("message = %v", resp["message"])
		}
	})
}

func TestTelemetryFlow(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	token := loginToken(t, router)

	getInfo := func(deviceID string) (*httptest.ResponseRecorder, map[string]any) {
		w := doJSON(t, router, http.MethodGet, "/get-device-info?deviceId="+deviceID, token, nil)
		if w.Code != http.StatusOK {
			return w, nil
		}
		resp := decodeBody(t, w)
		data, ok := resp["data"].(map[string]any)
		if !ok {
			t.Fatalf("data is %T, want object", resp["data"])
		}
		return w, data
	}

	t.Run("send-info requires deviceId", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/send-info", token, map[string]any{
			"batteryLevel": 80,
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("first report creates the beacon", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/send-info", token, map[string]any{
			"deviceId":     "B1",
			"batteryLevel": 80,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("send-info status = %d, body = %s", w.Code, w.Body.String())
		}

		w, data := getInfo("B1")
		if w.Code != http.StatusOK {
			t.Fatalf("get-device-info status = %d", w.Code)
		}
		if data["batteryLevel"] != 80.0 {
			t.Errorf("batteryLevel = %v, want 80", data["batteryLevel"])
		}
		if data["coreTemp"] != nil {
			t.Errorf("coreTemp = %v, want null", data["coreTemp"])
		}
	})

	t.Run("second report merges without losing fields", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/send-info", token, map[string]any{
			"deviceId": "B1",
			"coreTemp": 25,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("send-info status = %d", w.Code)
		}

		_, data := getInfo("B1")
		if data["batteryLevel"] != 80.0 {
			t.Errorf("batteryLevel = %v, want 80 preserved", data["batteryLevel"])
		}
		if data["coreTemp"] != 25.0 {
			t.Errorf("coreTemp = %v, want 25", data["coreTemp"])
		}
	})

	t.Run("get-devices lists the beacon", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/get-devices", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		resp := decodeBody(t, w)
		ids, ok := resp["data"].([]any)
		if !ok {
			t.Fatalf("data is %T, want array", resp["data"])
		}
		found := false
		for _, id := range ids {
			if id == "B1" {
				found = true
			}
		}
		if !found {
			t.Errorf("devices = %v, want to contain B1", ids)
		}
	})

	t.Run("unknown device is 404", func(t *testing.T) {
		w, _ := getInfo("doesnotexist")
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestMessages(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	token := loginToken(t, router)

	t.Run("send-message requires both fields", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/send-message", token, map[string]any{
			"deviceId": "B1",
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("send-message appends and registers the device", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/send-message", token, map[string]any{
			"deviceId": "B2",
			"message":  "hello from the field",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}

		// The registry touch made the unseen device appear.
		w = doJSON(t, router, http.MethodGet, "/get-device-info?deviceId=B2", token, nil)
		if w.Code != http.StatusOK {
			t.Errorf("get-device-info after message status = %d, want 200", w.Code)
		}
	})

	t.Run("get-messages filters by device", func(t *testing.T) {
		for _, m := range []struct{ device, text string }{
			{"B2", "second"},
			{"B3", "other device"},
		} {
			w := doJSON(t, router, http.MethodPost, "/send-message", token, map[string]any{
				"deviceId": m.device,
				"message":  m.text,
			})
			if w.Code != http.StatusOK {
				t.Fatalf("send-message status = %d", w.Code)
			}
		}

		w := doJSON(t, router, http.MethodGet, "/get-messages?deviceId=B2", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		resp := decodeBody(t, w)
		msgs, ok := resp["data"].([]any)
		if !ok {
			t.Fatalf("data is %T, want array", resp["data"])
		}
		if len(msgs) != 2 {
			t.Fatalf("len = %d, want 2", len(msgs))
		}
		first, ok := msgs[0].(map[string]any)
		if !ok {
			t.Fatalf("message is %T, want object", msgs[0])
		}
		if first["message"] != "hello from the field" {
			t.Errorf("first message = %v, want insertion order", first["message"])
		}
	})
}

func TestImages(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	token := loginToken(t, router)

	pngBytes := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

	t.Run("missing image is 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/send-image", token, map[string]any{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("fetch before upload is 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/get-images", token, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("undecodable image is 500", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/send-image", token, map[string]any{
			"image": "!!!not-base64!!!",
		})
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})

	t.Run("data-URI upload round trips", func(t *testing.T) {
		encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
		w := doJSON(t, router, http.MethodPost, "/send-image", token, map[string]any{
			"image": encoded,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		resp := decodeBody(t, w)
		msg, ok := resp["message"].(string)
		if !ok || !strings.Contains(msg, "Picture uploaded successfully") {
			t.Errorf("message = %v", resp["message"])
		}

		w = doJSON(t, router, http.MethodGet, "/get-images?deviceId=ignored", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("get-images status = %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("Content-Type = %q, want image/png", ct)
		}
		if !bytes.Equal(w.Body.Bytes(), pngBytes) {
			t.Errorf("image bytes do not round trip")
		}
	})
}

func TestCameraConfiguration(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	token := loginToken(t, router)

	getConfig := func() map[string]any {
		w := doJSON(t, router, http.MethodGet, "/get-camera-configuration", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("get-camera-configuration status = %d", w.Code)
		}
		resp := decodeBody(t, w)
		data, ok := resp["data"].(map[string]any)
		if !ok {
			t.Fatalf("data is %T, want object", resp["data"])
		}
		return data
	}

	t.Run("string value updates only its field", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/configure-camera", token, map[string]any{
			"Brightness": "0.7",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}

		config := getConfig()
		if config["Brightness"] != 0.7 {
			t.Errorf("Brightness = %v, want 0.7", config["Brightness"])
		}
		if config["Saturation"] != 1.0 {
			t.Errorf("Saturation = %v, want 1.0 unchanged", config["Saturation"])
		}
	})

	t.Run("bad value is 500 and nothing changes", func(t *testing.T) {
		before := getConfig()

		w := doJSON(t, router, http.MethodPost, "/configure-camera", token, map[string]any{
			"ExposureTime": "abc",
		})
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}

		after := getConfig()
		for name, want := range before {
			if after[name] != want {
				t.Errorf("%s = %v, want %v unchanged", name, after[name], want)
			}
		}
	})
}

func TestBeaconConfigurationAcks(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	token := loginToken(t, router)

	t.Run("configure-beacon acknowledges", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/configure-beacon", token, map[string]any{
			"config": map[string]any{"interval": 30},
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		resp := decodeBody(t, w)
		if resp["message"] != "Hello "+testUsername+", beacon configured successfully." {
			t.Errorf("message = %v", resp["message"])
		}
	})

	t.Run("get-beacon-configuration acknowledges", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/get-beacon-configuration", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		resp := decodeBody(t, w)
		if resp["success"] != true {
			t.Errorf("success = %v, want true", resp["success"])
		}
	})
}

func TestAuditTrail(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	token := loginToken(t, router)

	w := doJSON(t, router, http.MethodPost, "/send-info", token, map[string]any{
		"deviceId":     "B1",
		"batteryLevel": 80,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("send-info status = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodPost, "/send-message", token, map[string]any{
		"deviceId": "B1",
		"message":  "checking in",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("send-message status = %d", w.Code)
	}

	getLog := func(path string) map[string]any {
		w := doJSON(t, router, http.MethodGet, path, token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("get-audit-log status = %d, body = %s", w.Code, w.Body.String())
		}
		resp := decodeBody(t, w)
		data, ok := resp["data"].(map[string]any)
		if !ok {
			t.Fatalf("data is %T, want object", resp["data"])
		}
		return data
	}

	t.Run("records actions including the login", func(t *testing.T) {
		data := getLog("/get-audit-log")
		if data["total"] != 3.0 {
			t.Errorf("total = %v, want 3 (login, telemetry, message)", data["total"])
		}
	})

	t.Run("filters by action", func(t *testing.T) {
		data := getLog("/get-audit-log?action=" + audit.ActionTelemetry)
		entries, ok := data["entries"].([]any)
		if !ok {
			t.Fatalf("entries is %T, want array", data["entries"])
		}
		if len(entries) != 1 {
			t.Fatalf("entries = %d, want 1", len(entries))
		}
		entry, ok := entries[0].(map[string]any)
		if !ok {
			t.Fatalf("entry is %T, want object", entries[0])
		}
		if entry["deviceId"] != "B1" {
			t.Errorf("deviceId = %v, want B1", entry["deviceId"])
		}
		if entry["subject"] != testUsername {
			t.Errorf("subject = %v, want %q", entry["subject"], testUsername)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		data := getLog("/get-audit-log?limit=1")
		entries, ok := data["entries"].([]any)
		if !ok {
			t.Fatalf("entries is %T, want array", data["entries"])
		}
		if len(entries) != 1 {
			t.Errorf("entries = %d, want 1", len(entries))
		}
		if data["total"] != 3.0 {
			t.Errorf("total = %v, want 3", data["total"])
		}
	})
}
