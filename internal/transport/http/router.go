// Package http wires the service's HTTP surface.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "msmeclinic/internal/admin/handler"
	contacthandler "msmeclinic/internal/contact/handler"
	"msmeclinic/internal/platform/metrics"
	"msmeclinic/internal/platform/middleware"
	reghandler "msmeclinic/internal/registration/handler"
)

// HealthChecker reports backend reachability for the health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router needs.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Registry       *prometheus.Registry
	Registrations  *reghandler.Handler
	Contacts       *contacthandler.Handler
	Admin          *adminhandler.Handler
	RequestTimeout time.Duration
	Health         []HealthChecker
}

// New assembles the router. The hard request-time budget applies only to the
// public intake surface; admin reads and the export stream are exempt.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))

	r.Get("/health", healthHandler(d.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		// Latency sits outside the timeout budget so a 408 written by the
		// timeout middleware is still observed by the histogram.
		r.Use(middleware.Latency(d.Metrics, "public"))
		r.Use(middleware.Timeout(d.RequestTimeout, d.Logger))
		d.Registrations.Routes(r)
		d.Contacts.Routes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Latency(d.Metrics, "admin"))
		d.Admin.Routes(r)
	})

	return r
}

func healthHandler(checks []HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, c := range checks {
			if c == nil {
				continue
			}
			if err := c.Health(ctx); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
