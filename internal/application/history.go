package application

import (
	"context"

	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/store"
)

// History returns the conversation between viewer and otherParty ascending
// by creation time, and as a side effect marks the other party's unseen
// messages as seen, notifying them.
func (s *Service) History(ctx context.Context, viewer, otherParty string, page store.Page) ([]*domain.Message, error) {
	if viewer == "" || otherParty == "" {
		return nil, domain.ErrInvalidInput
	}

	msgs, err := s.store.Conversation(ctx, viewer, otherParty, page)
	if err != nil {
		return nil, err
	}

	seenIDs, err := s.store.MarkSeenForConversationRead(ctx, viewer, otherParty)
	if err != nil {
		return nil, err
	}

	if len(seenIDs) > 0 {
		s.pusher.Notify(ctx, otherParty, domain.SeenEvent(seenIDs, viewer))
		s.feed.MessagesSeen(ctx, viewer, seenIDs)

		// Reflect the flip in the returned snapshot so the viewer never
		// renders its own read as unseen.
		flipped := make(map[string]struct{}, len(seenIDs))
		for _, id := range seenIDs {
			flipped[id] = struct{}{}
		}
		for _, m := range msgs {
			if _, ok := flipped[m.ID]; ok {
				m.Seen = true
				m.Delivered = true
			}
		}
	}

	return msgs, nil
}

// Recent returns the latest inbound message per counterpart for the inbox
// preview, newest first.
func (s *Service) Recent(ctx context.Context, userID string) ([]*domain.Message, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.store.RecentForUser(ctx, userID)
}
