package store

import (
	"context"
	"time"

	"github.com/vibelink/messaging/internal/domain"
)

// BySender groups updated message ids by the original sender, so the caller
// can tell each sender which of their messages changed state.
type BySender map[string][]string

// Page bounds a conversation read. Zero Limit means the store default;
// a non-zero Before returns only messages created strictly before it.
type Page struct {
	Limit  int
	Before time.Time
}

// MessageStore is the durable record of every message. Status updates are
// field-level and atomic; concurrent delivered/seen flips on the same row
// must not lose each other.
//
// MarkSeen skips unknown ids and ids not addressed to the recipient rather
// than failing: the id set may include already-deleted or racily-duplicated
// entries. Every implementation must flip Delivered together with Seen so
// that seen always implies delivered.
type MessageStore interface {
	Create(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, id string) (*domain.Message, error)

	// Conversation returns all messages between the unordered pair
	// {userA, userB}, ascending by creation time, bounded by page.
	Conversation(ctx context.Context, userA, userB string, page Page) ([]*domain.Message, error)

	// RecentForUser returns the latest inbound message per counterpart,
	// newest first, for the inbox preview.
	RecentForUser(ctx context.Context, userID string) ([]*domain.Message, error)

	// MarkDeliveredForRecipient flips delivered on every undelivered message
	// addressed to userID (the reconnect sweep).
	MarkDeliveredForRecipient(ctx context.Context, userID string) (BySender, error)

	// MarkSeen flips seen (and delivered) on exactly the given ids, but only
	// those addressed to recipient and not yet seen.
	MarkSeen(ctx context.Context, recipient string, ids []string) (BySender, error)

	// MarkSeenForConversationRead flips seen (and delivered) on every unseen
	// message from otherParty to viewer; returns the flipped ids.
	MarkSeenForConversationRead(ctx context.Context, viewer, otherParty string) ([]string, error)
}
