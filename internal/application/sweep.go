package application

import (
	"context"

	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/observability"
	"go.uber.org/zap"
)

// SweepDelivered runs when userID opens a channel: every message that
// arrived while they were offline flips to delivered, and each distinct
// sender is told which of their messages just landed.
func (s *Service) SweepDelivered(ctx context.Context, userID string) error {
	bySender, err := s.store.MarkDeliveredForRecipient(ctx, userID)
	if err != nil {
		return err
	}
	if len(bySender) == 0 {
		return nil
	}

	var all []string
	for sender, ids := range bySender {
		s.pusher.Notify(ctx, sender, domain.DeliveredEvent(ids, userID))
		all = append(all, ids...)
	}
	s.feed.MessagesDelivered(ctx, userID, all)

	observability.GetLogger(ctx).Info("delivery sweep",
		zap.String("user_id", userID),
		zap.Int("messages", len(all)),
		zap.Int("senders", len(bySender)),
	)
	return nil
}
