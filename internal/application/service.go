// Package application is the delivery orchestrator: it coordinates store
// writes with best-effort pushes so every message walks the linear
// sent -> delivered -> seen machine, never backwards.
package application

import (
	"context"

	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/events"
	"github.com/vibelink/messaging/internal/media"
	"github.com/vibelink/messaging/internal/store"
)

// Pusher is the notifier seam. Notify is fire-and-forget; IsReachable
// answers "does this user have a live channel right now" for the initial
// delivered flag.
type Pusher interface {
	Notify(ctx context.Context, userID string, ev domain.Event)
	IsReachable(ctx context.Context, userID string) bool
}

type Service struct {
	store    store.MessageStore
	pusher   Pusher
	uploader media.Uploader
	feed     *events.Feed
}

func New(st store.MessageStore, pusher Pusher, uploader media.Uploader, feed *events.Feed) *Service {
	return &Service{
		store:    st,
		pusher:   pusher,
		uploader: uploader,
		feed:     feed,
	}
}
