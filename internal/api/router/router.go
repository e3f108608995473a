// Package router wires the scheduling API's HTTP surface.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oakwellhealth/clinic-scheduler/internal/availability"
	"github.com/oakwellhealth/clinic-scheduler/internal/booking"
	httpmiddleware "github.com/oakwellhealth/clinic-scheduler/internal/http/middleware"
	"github.com/oakwellhealth/clinic-scheduler/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AvailabilityHandler *availability.Handler
	BookingHandler      *booking.Handler
	MetricsHandler      http.Handler
	ServiceAuthSecret   string
	CORSAllowedOrigins  []string
	RateLimitPerSec     float64
	RateLimitBurst      int
}

// New creates a chi router with all routes configured. Health and metrics
// are public; the scheduling API sits behind service auth and rate limiting.
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

	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.ServiceAuthSecret != "" {
			api.Use(httpmiddleware.ServiceJWT(cfg.ServiceAuthSecret))
		}
		if cfg.RateLimitPerSec > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
		}
		api.Post("/availability", cfg.AvailabilityHandler.GetAvailability)
		api.Route("/bookings", func(b chi.Router) {
			b.Post("/", cfg.BookingHandler.CreateBooking)
			b.Post("/reschedule", cfg.BookingHandler.RescheduleBooking)
			b.Post("/cancel", cfg.BookingHandler.CancelBooking)
		})
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
