package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haukened/sitepulse/internal/pulse/common/log"
)

const (
	ContactPath   = "/api/contact"
	DashboardPath = "/api/dashboard-data"
	MetricsPath   = "/metrics"
	HealthPath    = "/healthz"
)

// RouterOptions wires the router's collaborators. Metrics and Gatherer are
// optional; without a Gatherer no metrics endpoint is mounted.
type RouterOptions struct {
	Tracker   RequestTracker
	Messages  MessageSubmitter
	Dashboard SnapshotProvider
	StaticDir string
	Metrics   *Metrics
	Gatherer  prometheus.Gatherer
	Logger    log.Logger
}

// NewRouter builds the HTTP handler. Tracking runs first for every request
// except the health and metrics endpoints.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	h := &handlers{
		messages:  opts.Messages,
		dashboard: opts.Dashboard,
		metrics:   opts.Metrics,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(Instrument(logger, opts.Metrics))
	r.Use(Tracking(opts.Tracker, HealthPath, MetricsPath))

	r.Get(HealthPath, handleHealth)
	if opts.Gatherer != nil {
		r.Handle(MetricsPath, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post(ContactPath, h.handleContact)
	r.Get(DashboardPath, h.handleDashboard)

	static := http.FileServer(http.Dir(opts.StaticDir))
	r.NotFound(static.ServeHTTP)
	r.MethodNotAllowed(static.ServeHTTP)

	return r
}
