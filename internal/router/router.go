package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/vibelink/messaging/internal/handlers"
	"github.com/vibelink/messaging/internal/middleware"
	"github.com/vibelink/messaging/internal/observability"
)

func New(
	msgH *handlers.MessageHandler,
	chanH *handlers.ChannelHandler,
	secret string,
	serviceName string,
	ratePerMin int,
) http.Handler {

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(observability.MetricsMiddleware(serviceName))
	r.Use(middleware.Recovery())
	r.Use(httprate.LimitByIP(ratePerMin, time.Minute))

	// Channel endpoints sit outside the auth group: the caller identity is
	// established by the external identity collaborator before the channel
	// is opened.
	r.Get("/api/messages/channel/{userID}", chanH.Stream)
	r.Get("/api/messages/ws", chanH.WebSocket)

	r.Group(func(p chi.Router) {
		p.Use(middleware.Auth(secret))

		p.Post("/api/messages/send", msgH.Send)
		p.Post("/api/messages/history", msgH.History)
		p.Post("/api/messages/seen", msgH.Seen)
		p.Get("/api/messages/recent", msgH.Recent)
	})

	return r
}
