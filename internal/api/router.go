package api

import (
	"net/http"

	"github.com/dom/wedding-planner/internal/api/handlers"
	"github.com/dom/wedding-planner/internal/api/middleware"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/realtime"
	"github.com/dom/wedding-planner/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, hub *realtime.Hub, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Auth, log)
	coupleHandler := handlers.NewCoupleHandler(services.Pairing, services.Couples, services.Ownership, log)
	calendarHandler := handlers.NewCalendarHandler(services.Calendar, log)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth, log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth, log))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/couple", func(r chi.Router) {
				r.Get("/my-key", coupleHandler.MyKey)
				r.Put("/gender", coupleHandler.SelectGender)
				r.Post("/connect", coupleHandler.Connect)
				r.Get("/info", coupleHandler.Info)
				r.Get("/scope", coupleHandler.Scope)
			})

			r.Route("/calendar/events", func(r chi.Router) {
				r.Get("/", calendarHandler.List)
				r.Post("/", calendarHandler.Create)
			})
		})

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
