// Package relay is the HTTP facade in front of the enclave. It maps routes to
// enclave actions and forwards JSON; it performs no cryptography.
package relay

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/protocol"
)

// Enclave is the channel to the signing enclave.
type Enclave interface {
	Do(ctx context.Context, req protocol.Request) (*protocol.Response, error)
}

// Config holds the router dependencies.
type Config struct {
	Enclave        Enclave
	Logger         *slog.Logger
	Registry       *prometheus.Registry
	AllowedOrigins []string
	// RequestTimeout bounds each enclave exchange. Zero means no bound beyond
	// the client's own context.
	RequestTimeout time.Duration
}

// NewRouter creates the relay HTTP handler.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics := NewMetrics(registry)

	h := &handler{
		enclave:  cfg.Enclave,
		logger:   logger,
		metrics:  metrics,
		validate: validator.New(),
		timeout:  cfg.RequestTimeout,
	}

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware())
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(CORS(cfg.AllowedOrigins))
	}

	r.Get("/health", h.health)
	r.Get("/public-key", h.publicKey)
	r.Get("/address", h.publicKey)
	r.Post("/sign", h.sign)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}
