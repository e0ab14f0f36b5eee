package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/api/middleware"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/handlers"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/realtime"
)

// Deps carries everything the router wires together. Limiter is nil
// when Redis is not configured.
type Deps struct {
	Logger  zerolog.Logger
	Handler *handlers.Handler
	Gateway *realtime.Gateway
	Auth    *middleware.AuthMiddleware
	Limiter *middleware.RateLimiter
}

// NewRouter creates and configures the HTTP router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(64 * 1024))
	r.Use(middleware.RequireJSON)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Recoverer)

	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware)
	}

	// CORS - browser clients connect from the web app's origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := d.Handler

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/health", h.Health)
	r.Post("/api/users", h.CreateUser)

	// Websocket handshake authenticates itself via token query param
	r.Get("/ws", d.Gateway.HandleWS)

	// Authenticated routes (require bearer token)
	r.Group(func(r chi.Router) {
		r.Use(d.Auth.RequireAuth)

		r.Get("/api/users/{id}", h.GetUser)

		r.Post("/api/messages", h.SendMessage)
		r.Get("/api/messages/{peerID}", h.ListConversation)
		r.Post("/api/messages/{peerID}/read", h.MarkRead)

		r.Post("/api/groups", h.CreateGroup)
		r.Get("/api/groups/{id}", h.GetGroup)
		r.Patch("/api/groups/{id}", h.UpdateGroup)
		r.Post("/api/groups/{id}/messages", h.SendGroupMessage)
		r.Get("/api/groups/{id}/messages", h.ListGroupMessages)
		r.Post("/api/groups/{id}/members", h.AddMember)
		r.Delete("/api/groups/{id}/members/{userID}", h.RemoveMember)

		r.Post("/api/reactions", h.ToggleReaction)

		r.Post("/api/scheduled", h.CreateScheduled)
		r.Get("/api/scheduled", h.ListScheduled)
		r.Get("/api/scheduled/status", h.SchedulerStatus)
		r.Post("/api/scheduled/dispatch", h.TriggerDispatch)
		r.Put("/api/scheduled/{id}", h.UpdateScheduled)
		r.Delete("/api/scheduled/{id}", h.DeleteScheduled)
	})

	return r
}
