package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/theduckgroup/Apps-sub000/internal/events"
	"github.com/theduckgroup/Apps-sub000/internal/middleware"
	"github.com/theduckgroup/Apps-sub000/internal/usecases"
)

// RouterDeps is everything the HTTP surface is built from.
type RouterDeps struct {
	Catalogs       *usecases.CatalogUsecase
	Reports        *usecases.ReportUsecase
	Hub            *events.Hub
	Health         map[string]Pinger
	Registry       *prometheus.Registry
	Logger         *zap.Logger
	RequestTimeout time.Duration
	RateLimit      int
}

func NewRouter(d RouterDeps) http.Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	catalogs := NewCatalogHandler(d.Catalogs, validate, d.Logger)
	reports := NewReportHandler(d.Reports, validate, d.Logger)
	stream := NewEventsHandler(d.Hub, d.Logger)
	health := NewHealthHandler(d.Health, d.Logger)

	r := chi.NewRouter()
	r.Use(middleware.LoggingMiddleware(d.Logger))
	r.Use(middleware.RecoveryMiddleware(d.Logger))
	if d.Registry != nil {
		r.Use(middleware.NewMetrics(d.Registry).Middleware)
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Get("/health", health.Health)

	// Long-lived streams stay outside the timeout and rate limit.
	r.Get("/events", stream.Stream)

	r.Group(func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(middleware.TimeoutMiddleware(d.RequestTimeout))
		}
		if d.RateLimit > 0 {
			r.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(d.RateLimit, time.Minute), d.Logger))
		}

		r.Route("/catalogs", func(r chi.Router) {
			r.Get("/", catalogs.ListCatalogs)
			r.Post("/", catalogs.CreateCatalog)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", catalogs.GetCatalog)
				r.Put("/", catalogs.ReplaceCatalog)
				r.Delete("/", catalogs.DeleteCatalog)
				r.Post("/commands", catalogs.ApplyCommand)
				r.Get("/validate-code", catalogs.ValidateCode)
				r.Post("/reports", reports.SubmitReport)
			})
		})
		r.Get("/reports/{id}", reports.GetReport)
		r.Get("/users/{user}/reports", reports.ListUserReports)
	})

	return r
}
