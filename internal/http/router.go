package http

import (
	"github.com/Destroyerg0d/studyhub-reservations/internal/config"
	"github.com/Destroyerg0d/studyhub-reservations/internal/idempotency"
	"github.com/Destroyerg0d/studyhub-reservations/internal/observability"
	"github.com/Destroyerg0d/studyhub-reservations/internal/rateLimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(cfg *config.Config, h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter, idemp *idempotency.Idempotency) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/v1/plans", h.ListPlans)
	r.Post("/v1/payments/callback", h.PaymentCallback)

	// Viewer-facing surface; everything here needs an authenticated viewer.
	r.Group(func(r chi.Router) {
		r.Use(JWTMiddleware(cfg.JWTSecret))
		r.Use(RateLimitMiddleware(rl))

		r.Get("/v1/seats", h.ListSeats)
		r.Get("/v1/seats/{seat}/availability", h.SeatAvailability)
		r.Get("/v1/bookings", h.ListBookings)
		r.Delete("/v1/bookings/{id}", h.CancelBooking)

		r.Group(func(r chi.Router) {
			r.Use(IdempotencyMiddleware(idemp))
			r.Post("/v1/bookings", h.CreateBooking)
		})
	})

	return r
}
