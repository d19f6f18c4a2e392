package application

import (
	"context"

	"github.com/vibelink/messaging/internal/domain"
)

// MarkSeen flips the given ids to seen on the caller's behalf and notifies
// each original sender. Only messages addressed to the caller are affected:
// a caller cannot mark other people's inbound messages seen by guessing
// ids. Unknown or already-seen ids are skipped, which makes the call
// idempotent. Returns the number of messages updated.
func (s *Service) MarkSeen(ctx context.Context, caller string, ids []string) (int, error) {
	if caller == "" || len(ids) == 0 {
		return 0, domain.ErrInvalidInput
	}

	bySender, err := s.store.MarkSeen(ctx, caller, ids)
	if err != nil {
		return 0, err
	}

	count := 0
	var all []string
	for sender, senderIDs := range bySender {
		s.pusher.Notify(ctx, sender, domain.SeenEvent(senderIDs, caller))
		count += len(senderIDs)
		all = append(all, senderIDs...)
	}
	if count > 0 {
		s.feed.MessagesSeen(ctx, caller, all)
	}
	return count, nil
}
