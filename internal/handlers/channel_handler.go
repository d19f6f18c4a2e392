package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vibelink/messaging/internal/application"
	"github.com/vibelink/messaging/internal/channel"
	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/observability"
	"github.com/vibelink/messaging/internal/presence"
	"github.com/vibelink/messaging/internal/registry"
	"go.uber.org/zap"
)

// ChannelHandler opens long-lived push channels. Opening a channel
// registers the user, greets with a connected event, and sweeps any
// messages that went undelivered while they were offline.
type ChannelHandler struct {
	app      *application.Service
	registry *registry.Registry
	presence *presence.Presence // nil in single-process deployments
}

func NewChannelHandler(app *application.Service, reg *registry.Registry, pres *presence.Presence) *ChannelHandler {
	return &ChannelHandler{app: app, registry: reg, presence: pres}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Stream handles GET /api/messages/channel/{userID}: the SSE transport.
// The handler goroutine stays parked in Serve until the client disconnects;
// every exit path unregisters the channel.
func (h *ChannelHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	log := observability.GetLogger(r.Context())
	stream := channel.NewStream(userID)

	h.open(userID, stream, "sse")
	defer h.close(userID, stream, "sse")

	log.Info("channel opened", zap.String("user_id", userID), zap.String("transport", "sse"))
	stream.Serve(r.Context(), w)
	log.Info("channel closed", zap.String("user_id", userID), zap.String("transport", "sse"))
}

// WebSocket handles GET /api/messages/ws?user_id=...: the socket transport.
func (h *ChannelHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}

	log := observability.GetLogger(r.Context())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("upgrade error", zap.Error(err))
		return
	}

	session := channel.NewSession(uuid.NewString(), userID, conn)
	session.Start()

	h.open(userID, session, "ws")
	log.Info("channel opened", zap.String("user_id", userID), zap.String("transport", "ws"))

	go func() {
		session.ReadLoop()
		h.close(userID, session, "ws")
		log.Info("channel closed", zap.String("user_id", userID), zap.String("transport", "ws"))
	}()
}

func (h *ChannelHandler) open(userID string, ch channel.Channel, transport string) {
	h.registry.Register(userID, ch)
	observability.ChannelsActive.WithLabelValues(transport).Inc()

	ctx := context.Background()
	if h.presence != nil {
		if err := h.presence.Register(ctx, userID); err != nil {
			observability.GetLogger(ctx).Warn("presence register failed",
				zap.String("user_id", userID), zap.Error(err))
		}
		presence.StartHeartbeat(h.presence, userID, ch.Done())
	}

	ch.Send(domain.ConnectedEvent(userID))

	// The sweep runs off the request context: a client that connects and
	// immediately drops must still leave the store consistent.
	go func() {
		if err := h.app.SweepDelivered(ctx, userID); err != nil {
			observability.GetLogger(ctx).Error("delivery sweep failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}()
}

func (h *ChannelHandler) close(userID string, ch channel.Channel, transport string) {
	h.registry.Unregister(userID, ch)
	ch.Close()
	observability.ChannelsActive.WithLabelValues(transport).Dec()

	if h.presence != nil {
		ctx := context.Background()
		if err := h.presence.Unregister(ctx, userID); err != nil {
			observability.GetLogger(ctx).Warn("presence unregister failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}
}
