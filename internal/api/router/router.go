// Package router wires all HTTP surfaces: the public booking page, the
// authenticated dashboard API and the provider webhooks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ilgner17/reservo-scheduler/internal/bookings"
	httpmiddleware "github.com/ilgner17/reservo-scheduler/internal/http/middleware"
	"github.com/ilgner17/reservo-scheduler/internal/notify"
	"github.com/ilgner17/reservo-scheduler/internal/payments"
	"github.com/ilgner17/reservo-scheduler/internal/profiles"
	"github.com/ilgner17/reservo-scheduler/internal/services"
	"github.com/ilgner17/reservo-scheduler/internal/subscriptions"
	"github.com/ilgner17/reservo-scheduler/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger               *logging.Logger
	ProfilesHandler      *profiles.Handler
	ServicesHandler      *services.Handler
	BookingsHandler      *bookings.Handler
	PaymentsHandler      *payments.Handler
	SubscriptionsHandler *subscriptions.Handler
	BillingWebhook       *subscriptions.WebhookHandler
	NotifyHandler        *notify.Handler
	MetricsHandler       http.Handler

	AuthJWTSecret       string
	CORSAllowedOrigins  []string
	PublicRatePerSecond float64
	PublicRateBurst     int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: booking page, webhooks, health.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		public.Route("/api/public/{slug}", func(pr chi.Router) {
			if cfg.PublicRatePerSecond > 0 {
				pr.Use(httpmiddleware.RateLimit(cfg.PublicRatePerSecond, cfg.PublicRateBurst))
			}
			if cfg.ProfilesHandler != nil {
				pr.Get("/", cfg.ProfilesHandler.PublicPage)
			}
			if cfg.BookingsHandler != nil {
				pr.Get("/availability", cfg.BookingsHandler.Availability)
				pr.Post("/bookings", cfg.BookingsHandler.CreatePublic)
			}
		})

		if cfg.BillingWebhook != nil {
			public.Post("/webhooks/billing", cfg.BillingWebhook.Handle)
		}
		if cfg.NotifyHandler != nil {
			public.Post("/webhooks/test", cfg.NotifyHandler.SendTest)
		}
	})

	// Dashboard API, protected by the identity provider's JWT.
	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.AuthJWT(cfg.AuthJWTSecret))

		if cfg.ProfilesHandler != nil {
			api.Route("/profiles", func(pr chi.Router) {
				pr.Post("/", cfg.ProfilesHandler.Create)
				pr.Get("/me", cfg.ProfilesHandler.GetMe)
				pr.Put("/me", cfg.ProfilesHandler.UpdateMe)
			})
		}
		if cfg.ServicesHandler != nil {
			api.Route("/services", func(sr chi.Router) {
				sr.Get("/", cfg.ServicesHandler.List)
				sr.Post("/", cfg.ServicesHandler.Create)
				sr.Put("/{serviceID}", cfg.ServicesHandler.Update)
				sr.Delete("/{serviceID}", cfg.ServicesHandler.Delete)
			})
		}
		if cfg.BookingsHandler != nil {
			api.Route("/bookings", func(br chi.Router) {
				br.Get("/", cfg.BookingsHandler.List)
				br.Post("/", cfg.BookingsHandler.Create)
				br.Get("/{bookingID}", cfg.BookingsHandler.Get)
				br.Patch("/{bookingID}/status", cfg.BookingsHandler.UpdateStatus)
			})
		}
		if cfg.PaymentsHandler != nil {
			api.Route("/payments", func(pr chi.Router) {
				pr.Get("/{paymentID}", cfg.PaymentsHandler.Get)
				pr.Patch("/{paymentID}/status", cfg.PaymentsHandler.UpdateStatus)
			})
		}
		if cfg.SubscriptionsHandler != nil {
			api.Get("/subscriptions/me", cfg.SubscriptionsHandler.GetMe)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
