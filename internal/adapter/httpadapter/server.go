package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-normalise-service/internal/codec"
	"github.com/couchcryptid/weather-normalise-service/internal/observability"
)

// ReadinessChecker reports whether a dependency is ready to serve traffic.
type ReadinessChecker = sharedobs.ReadinessChecker

// Options wires the server to its collaborators.
type Options struct {
	Addr         string
	Decoder      *codec.Decoder
	Metrics      *observability.Metrics
	Logger       *slog.Logger
	Clock        clockwork.Clock
	MaxBodyBytes int64

	// Checks are consulted by the readiness endpoints, keyed by name.
	Checks map[string]ReadinessChecker
}

// Server exposes the normalisation API alongside health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer   *http.Server
	decoder      *codec.Decoder
	metrics      *observability.Metrics
	logger       *slog.Logger
	clock        clockwork.Clock
	maxBodyBytes int64
	checks       map[string]ReadinessChecker
}

// NewServer creates an HTTP server with the normalisation, health, and
// /metrics routes.
func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		decoder:      opts.Decoder,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		clock:        clock,
		maxBodyBytes: opts.MaxBodyBytes,
		checks:       opts.Checks,
	}

	s.handle(mux, "GET /health/live", s.handleLive)
	s.handle(mux, "GET /health/ready", s.handleReady)
	s.handle(mux, "GET /healthz", s.handleLive)
	s.handle(mux, "GET /readyz", s.handleReady)
	s.handle(mux, "POST /weather/normalise", s.handleNormalise)
	s.handle(mux, "POST /weather/normalise/batch", s.handleNormaliseBatch)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer.Handler = s.withRequestID(mux)
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readinessResponse struct {
	Status  string           `json:"status"`
	Details readinessDetails `json:"details"`
}

type readinessDetails struct {
	TimestampUTC string            `json:"timestamp_utc"`
	Checks       map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := readinessResponse{
		Status: "ready",
		Details: readinessDetails{
			TimestampUTC: s.clock.Now().UTC().Format(time.RFC3339),
		},
	}
	status := http.StatusOK

	if len(s.checks) > 0 {
		resp.Details.Checks = make(map[string]string, len(s.checks))
	}
	for name, checker := range s.checks {
		if err := checker.CheckReadiness(ctx); err != nil {
			resp.Details.Checks[name] = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Details.Checks[name] = "ok"
	}

	sharedobs.WriteJSON(w, status, resp)
}
