// Package httptransport assembles the service router: platform middleware,
// the authenticated audit API, and the unauthenticated operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docaudit/internal/audit/handler"
	"docaudit/internal/platform/middleware"
	"docaudit/pkg/platform/httputil"
)

// HealthChecker reports the health of one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RouterDeps carries everything the router mounts. Health holds the optional
// backend checks the health endpoint probes, keyed by backend name.
type RouterDeps struct {
	Audit        *handler.Handler
	JWTValidator middleware.JWTValidator
	Health       map[string]HealthChecker
	Logger       *slog.Logger
}

// NewRouter wires all endpoints. The audit API sits behind bearer auth;
// health and metrics stay open for probes and scrapers.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))

	r.Get("/healthz", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	api := chi.NewRouter()
	// Audit runs fetch and validate whole periods, so the API timeout is far
	// above the usual request budget.
	api.Use(middleware.Timeout(5 * time.Minute))
	api.Use(middleware.RequireAuth(deps.JWTValidator, deps.Logger))
	deps.Audit.Register(api)
	r.Mount("/", api)

	return r
}

// handleHealth probes every registered backend. The service itself is always
// up if it can answer; a failing backend turns the answer into 503 so probes
// can tell a degraded instance from a healthy one.
func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
