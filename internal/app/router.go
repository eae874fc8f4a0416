package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fleetgate/fleetgate/internal/gate"
	"github.com/fleetgate/fleetgate/internal/observability"
	"github.com/fleetgate/fleetgate/internal/rbac"
	"github.com/fleetgate/fleetgate/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Gate            gate.Gate
	Guard           gate.Guard
	RBACHandler     *rbac.Handler
	AdmissionProxy  http.Handler
	TransportProxy  http.Handler
	JobsHandler     *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with FleetGate defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Gate:    params.Gate,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// The real login and denial screens belong to the external identity
	// frontend; these placeholders keep the redirect targets resolvable when
	// the service runs standalone.
	r.Get(params.Gate.Rules.LoginPath(), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<!doctype html><title>Sign in</title><h1>Sign in required</h1>"))
	})
	r.Get(params.Gate.Rules.DeniedPath(), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("<!doctype html><title>Forbidden</title><h1>You do not have access to this page</h1>"))
	})

	adminRoles := []string{"ADMIN"}
	if params.Config != nil && len(params.Config.AdminRoles) > 0 {
		adminRoles = params.Config.AdminRoles
	}
	r.Route("/api", func(r chi.Router) {
		r.Use(params.Guard.RequireRole(adminRoles...))
		params.RBACHandler.MountRoutes(r)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(params.Guard.RequireRole(adminRoles...))
			params.JobsHandler.MountRoutes(r)
		})
	}

	if params.AdmissionProxy != nil {
		r.Handle("/aapi", params.AdmissionProxy)
		r.Handle("/aapi/*", params.AdmissionProxy)
	}
	if params.TransportProxy != nil {
		r.Handle("/tapi", params.TransportProxy)
		r.Handle("/tapi/*", params.TransportProxy)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
