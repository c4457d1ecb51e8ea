package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/beaconfleet/beacon-core/internal/audit"
	"github.com/beaconfleet/beacon-core/internal/auth"
	"github.com/beaconfleet/beacon-core/internal/beacon"
	"github.com/beaconfleet/beacon-core/internal/camera"
	"github.com/beaconfleet/beacon-core/internal/imagestore"
	"github.com/beaconfleet/beacon-core/internal/infrastructure/config"
	"github.com/beaconfleet/beacon-core/internal/infrastructure/influxdb"
	"github.com/beaconfleet/beacon-core/internal/infrastructure/logging"
	"github.com/beaconfleet/beacon-core/internal/message"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.ServerConfig
	WS          config.WebSocketConfig
	Security    config.SecurityConfig
	Logger      *logging.Logger
	Credentials *auth.CredentialStore
	Beacons     beacon.Repository
	Messages    message.Repository
	Camera      camera.Store
	Images      *imagestore.Store
	Audit       audit.Repository
	Telemetry   *influxdb.Client // optional history export, may be nil
	Version     string
}

// Server is the HTTP API server for the beacon fleet backend.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket
// event hub. The server is created with New() and started with Start().
type Server struct {
	cfg         config.ServerConfig
	wsCfg       config.WebSocketConfig
	secCfg      config.SecurityConfig
	logger      *logging.Logger
	credentials *auth.CredentialStore
	beacons     beacon.Repository
	messages    message.Repository
	camera      camera.Store
	images      *imagestore.Store
	audit       audit.Repository
	telemetry   *influxdb.Client
	version     string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Credentials == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if deps.Beacons == nil {
		return nil, fmt.Errorf("beacon repository is required")
	}
	if deps.Messages == nil {
		return nil, fmt.Errorf("message repository is required")
	}
	if deps.Camera == nil {
		return nil, fmt.Errorf("camera store is required")
	}
	if deps.Images == nil {
		return nil, fmt.Errorf("image store is required")
	}
	if deps.Audit == nil {
		return nil, fmt.Errorf("audit repository is required")
	}
	// Telemetry export is optional; requests succeed without it.

	return &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		secCfg:      deps.Security,
		logger:      deps.Logger,
		credentials: deps.Credentials,
		beacons:     deps.Beacons,
		messages:    deps.Messages,
		camera:      deps.Camera,
		images:      deps.Images,
		audit:       deps.Audit,
		telemetry:   deps.Telemetry,
		version:     deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, builds the router, and launches the
// HTTP listener in a background goroutine. The server is stopped with
// Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop the hub independently of
	// the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to gracefulShutdownTimeout for in-flight requests to
// complete, then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
