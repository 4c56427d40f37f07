package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Tomlord1122/todo-api/internal/config"
	"github.com/Tomlord1122/todo-api/internal/mediator"
)

// Checker reports the health of one dependency.
type Checker interface {
	Health() map[string]string
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func() map[string]string

func (f CheckerFunc) Health() map[string]string { return f() }

type Server struct {
	cfg      config.HTTPConfig
	log      *zap.Logger
	mediator *mediator.Mediator
	health   map[string]Checker
	registry *prometheus.Registry
	metrics  *httpMetrics
	limiter  *rateLimiter

	filesEnabled         bool
	notificationsEnabled bool
}

// Options selects which optional route groups are mounted.
type Options struct {
	Files         bool
	Notifications bool
	// Health maps a component name to its checker. "database" decides the
	// overall status.
	Health map[string]Checker
}

func New(cfg config.HTTPConfig, log *zap.Logger, m *mediator.Mediator, registry *prometheus.Registry, opts Options) *Server {
	return &Server{
		cfg:                  cfg,
		log:                  log,
		mediator:             m,
		health:               opts.Health,
		registry:             registry,
		metrics:              newHTTPMetrics(registry),
		limiter:              newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		filesEnabled:         opts.Files,
		notificationsEnabled: opts.Notifications,
	}
}

// HTTPServer wraps the router in an *http.Server configured from cfg.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  s.cfg.IdleTimeout,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}
