package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vaultflow/pkg/platform/middleware/metadata"
	"vaultflow/pkg/platform/middleware/request"
	requesttime "vaultflow/pkg/platform/middleware/requesttime"
	limits "vaultflow/pkg/platform/validation"
)

// Registrar mounts one module's routes. Module handlers and the health
// handler implement it.
type Registrar interface {
	Register(r chi.Router)
}

// Options tunes the shared middleware stack.
type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// TrustedProxies may set X-Forwarded-For.
	TrustedProxies []netip.Prefix
	// Metrics records per-route latency when set.
	Metrics *request.Metrics
	// MetricsHandler serves /metrics. Defaults to the Prometheus default gatherer.
	MetricsHandler http.Handler
}

// NewRouter wires every module behind the shared middleware stack. Handlers
// stay thin and delegate to their services.
func NewRouter(opts Options, logger *slog.Logger, modules ...Registrar) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = limits.MaxBodySize
	}
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(metadata.Config{TrustedProxies: opts.TrustedProxies}).Handler)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	r.Use(request.LatencyMiddleware(opts.Metrics))
	r.Use(request.Timeout(opts.RequestTimeout))
	r.Use(request.BodyLimit(opts.MaxBodyBytes))
	r.Use(request.ContentTypeJSON)

	r.Handle("/metrics", opts.MetricsHandler)
	for _, m := range modules {
		m.Register(r)
	}
	return r
}
