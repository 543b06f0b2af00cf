package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scraplink/dealer-backend/api/controllers"
	"github.com/scraplink/dealer-backend/api/middleware"
	"github.com/scraplink/dealer-backend/internal/assignments"
	"github.com/scraplink/dealer-backend/internal/availability"
	"github.com/scraplink/dealer-backend/internal/dashboard"
	"github.com/scraplink/dealer-backend/internal/dealers"
	"github.com/scraplink/dealer-backend/internal/transactions"
	"github.com/scraplink/dealer-backend/pkg/config"
	"github.com/scraplink/dealer-backend/pkg/enums"
	"github.com/scraplink/dealer-backend/pkg/logger"
)

// Deps bundles everything the route tree needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Cache    controllers.Pinger
	Verifier middleware.Verifier
	Registry prometheus.Gatherer

	Dealers      dealers.Service
	Assignments  assignments.Service
	Availability availability.Service
	Dashboard    dashboard.Service
	Transactions transactions.Service
}

// NewRouter builds the HTTP surface.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	logg := d.Logger

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(d.Config.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", controllers.Health())
		r.Get("/ready", controllers.Ready(d.DB, d.Cache, logg))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/dealers", func(r chi.Router) {
		r.Use(
			middleware.Auth(d.Verifier, logg),
			middleware.RequireRole(enums.RoleDealer, logg),
		)

		r.Get("/profile", controllers.GetProfile(d.Dealers, logg))
		r.Post("/profile", controllers.UpdateProfile(d.Dealers, logg))
		r.Get("/available-requests", controllers.AvailableRequests(d.Availability, logg))
		r.Get("/my-requests", controllers.MyRequests(d.Assignments, logg))
		r.Post("/requests/{requestId}/accept", controllers.AcceptRequest(d.Assignments, logg))
		r.Post("/requests/{requestId}/complete", controllers.CompleteRequest(d.Assignments, logg))
		r.Get("/dashboard", controllers.Dashboard(d.Dashboard, logg))
		r.Get("/transactions", controllers.DealerTransactions(d.Transactions, logg))
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(
			middleware.Auth(d.Verifier, logg),
			middleware.RequireRole(enums.RoleAdmin, logg),
		)

		r.Get("/dealers", controllers.AdminDealers(d.Dealers, logg))
		r.Get("/assignments", controllers.AdminAssignments(d.Assignments, logg))
	})

	return r
}
