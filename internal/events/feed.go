// Package events publishes the message lifecycle feed consumed by the
// surrounding application's background jobs (inbox digests, analytics).
// The feed is strictly an observer: delivery state never depends on it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/observability"
	"go.uber.org/zap"
)

type Feed struct {
	producer *Producer // nil disables the feed
	topic    string
}

func NewFeed(producer *Producer, topic string) *Feed {
	return &Feed{producer: producer, topic: topic}
}

type record struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	MessageIDs []string  `json:"message_ids,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (f *Feed) MessageSent(ctx context.Context, m *domain.Message) {
	f.publish(ctx, m.FromUserID, record{
		Type:       "message.sent",
		UserID:     m.FromUserID,
		MessageIDs: []string{m.ID},
		Kind:       string(m.Kind),
		OccurredAt: m.CreatedAt,
	})
}

func (f *Feed) MessagesDelivered(ctx context.Context, recipient string, ids []string) {
	f.publish(ctx, recipient, record{
		Type:       "message.delivered",
		UserID:     recipient,
		MessageIDs: ids,
		OccurredAt: time.Now().UTC(),
	})
}

func (f *Feed) MessagesSeen(ctx context.Context, by string, ids []string) {
	f.publish(ctx, by, record{
		Type:       "message.seen",
		UserID:     by,
		MessageIDs: ids,
		OccurredAt: time.Now().UTC(),
	})
}

func (f *Feed) publish(ctx context.Context, key string, rec record) {
	if f == nil || f.producer == nil {
		return
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := f.producer.Publish(ctx, f.topic, []byte(key), payload); err != nil {
		observability.GetLogger(ctx).Warn("events: publish failed",
			zap.String("type", rec.Type), zap.Error(err))
	}
}
