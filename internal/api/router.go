package api

import (
	"net/http"

	commonhttp "activity-signup/internal/common/http"
	"activity-signup/internal/common/logger"
	"activity-signup/internal/common/observability"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
)

// RouterConfig controls the non-API routes mounted next to the handlers.
type RouterConfig struct {
	MetricsEnabled bool
	MetricsPath    string
	Tracer         trace.Tracer
}

// NewRouter mounts the handler routes plus /metrics and wraps them in the
// tracing, recover, logging and instrumentation middleware. obs and
// cfg.Tracer may be nil.
func NewRouter(h *Handler, cfg RouterConfig, log logger.Logger, obs *observability.Observability) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	if cfg.MetricsEnabled {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, promhttp.Handler())
	}

	return commonhttp.Chain(mux,
		commonhttp.Trace(cfg.Tracer),
		commonhttp.Recover(log),
		commonhttp.RequestLogger(log),
		commonhttp.Instrument(obs),
	)
}
