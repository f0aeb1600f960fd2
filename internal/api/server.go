package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/relaycycle/internal/infrastructure/config"
	"github.com/nerrad567/relaycycle/internal/infrastructure/database"
	"github.com/nerrad567/relaycycle/internal/infrastructure/logging"
	"github.com/nerrad567/relaycycle/internal/infrastructure/mqtt"
	"github.com/nerrad567/relaycycle/internal/relay"
	"github.com/nerrad567/relaycycle/internal/scheduler"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// DropCounter reports notifications lost to a full queue.
type DropCounter interface {
	Dropped() uint64
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Security  config.SecurityConfig
	Logger    *logging.Logger
	Scheduler *scheduler.Scheduler
	Relays    *relay.Registry
	History   relay.HistoryRepository // optional
	DB        *database.DB            // optional, for health and metrics
	MQTT      *mqtt.Client            // optional, for health and metrics
	Notify    DropCounter             // optional, for metrics
	Hub       *Hub                    // If set, the server uses this hub instead of creating its own
	Version   string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	secCfg      config.SecurityConfig
	logger      *logging.Logger
	sched       *scheduler.Scheduler
	relays      *relay.Registry
	history     relay.HistoryRepository
	db          *database.DB
	mqtt        *mqtt.Client
	notify      DropCounter
	version     string
	startTime   time.Time
	limiter     *clientLimiter
	server      *http.Server
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	if deps.Relays == nil {
		return nil, fmt.Errorf("relay registry is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		sched:     deps.Scheduler,
		relays:    deps.Relays,
		history:   deps.History,
		db:        deps.DB,
		mqtt:      deps.MQTT,
		notify:    deps.Notify,
		version:   deps.Version,
		startTime: time.Now(),
	}

	if deps.Security.RateLimit.Enabled {
		s.limiter = newClientLimiter(deps.Security.RateLimit.RequestsPerMinute)
	}

	// Use externally-provided hub if available (the notification
	// dispatcher broadcasts through it).
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub if it owns one, and
// launches the HTTP listener in a background goroutine. The server can be
// stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		go s.hub.Run(srvCtx)
	}

	if s.limiter != nil {
		go s.limiter.cleanupLoop(srvCtx)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
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

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	return s.buildRouter()
}
