// Package bridge exposes the recorder to an external shell over HTTP: health
// and readiness probes, a Prometheus metrics endpoint, and a WebSocket stream
// carrying the engine's status transitions and audit lines as JSON frames.
//
// The bridge is optional. A recorder run as a plain CLI never starts one; a
// host that wants a live front-end points server.listen_addr at a port and
// subscribes to /events for the same phase/color/label hints the original
// on-screen display rendered.
//
// # Endpoints
//
//   - GET /healthz — liveness; 200 as long as the process serves HTTP.
//   - GET /readyz  — readiness; 200 only when every registered [Probe] passes.
//   - GET /events  — WebSocket stream of [Event] frames.
//   - GET /metrics — Prometheus scrape surface.
//
// This package lives under internal/ because it is the application's own
// operational surface, not a reusable server framework.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/lorolabs/loro/internal/config"
	"github.com/lorolabs/loro/internal/engine"
	"github.com/lorolabs/loro/internal/observe"
)

const (
	// probeTimeout caps a single readiness probe.
	probeTimeout = 5 * time.Second

	// shutdownGrace is how long in-flight requests get to finish once the
	// run context is canceled.
	shutdownGrace = 5 * time.Second

	// readHeaderTimeout guards against slow-header clients.
	readHeaderTimeout = 10 * time.Second
)

// Probe is a named readiness check. Check returns nil when the dependency
// is usable; its error message ends up verbatim in the /readyz body.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server is the bridge's HTTP surface. Construct with [New], mount via
// [Server.Handler] or serve with [Server.Run].
type Server struct {
	addr    string
	tlsCfg  *config.TLSConfig
	logger  *slog.Logger
	metrics *observe.Metrics
	probes  []Probe
	hub     *hub
}

// Option is a functional option for configuring a Server during construction.
type Option func(*Server)

// WithLogger replaces the default component logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics wires HTTP request metrics and tracing middleware around every
// endpoint. Without it requests are served unobserved.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithProbe registers a readiness probe. Probes run sequentially on every
// /readyz request in registration order.
func WithProbe(p Probe) Option {
	return func(s *Server) { s.probes = append(s.probes, p) }
}

// New constructs a bridge Server for cfg. The server does not listen until
// [Server.Run].
func New(cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		addr:   cfg.ListenAddr,
		tlsCfg: cfg.TLS,
		logger: slog.With("component", "bridge"),
		hub:    newHub(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Observer returns the engine-facing side of the event stream. Wire it into
// the engine with engine.WithObserver; every Log and Status call fans out to
// the connected /events subscribers.
func (s *Server) Observer() engine.Observer {
	return s.hub
}

// Handler returns the bridge's routes, wrapped in observability middleware
// when metrics are wired.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.Handle("GET /metrics", promhttp.Handler())

	if s.metrics != nil {
		return observe.Middleware(s.metrics)(mux)
	}
	return mux
}

// Run serves the bridge until ctx is canceled, then drains in-flight
// requests and returns. Event-stream handlers watch the same context, so
// open WebSockets close alongside the listener.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return gctx },
	}

	s.logger.Info("bridge listening", "addr", s.addr, "tls", s.tlsCfg != nil)

	g.Go(func() error {
		var err error
		if s.tlsCfg != nil {
			err = srv.ListenAndServeTLS(s.tlsCfg.CertFile, s.tlsCfg.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("bridge: serve on %s: %w", s.addr, err)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("bridge: shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// healthResponse is the JSON body for the health endpoints.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealthz is the liveness probe. A process that can serve HTTP is
// alive, so it always answers 200.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// handleReadyz runs every registered probe under a [probeTimeout] deadline
// and answers 200 only when all of them pass.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.probes))
	status := http.StatusOK

	res := healthResponse{Status: "ok"}
	for _, p := range s.probes {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := p.Check(ctx)
		cancel()

		if err != nil {
			checks[p.Name] = "fail: " + err.Error()
			res.Status = "fail"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[p.Name] = "ok"
	}
	if len(checks) > 0 {
		res.Checks = checks
	}

	s.writeJSON(w, status, res)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("health response encode failed", "error", err)
	}
}
