// Package channel holds the live push transports. A Channel is the
// server-to-client half of one user's connection; the registry maps a user
// id to at most one Channel per process.
package channel

import "github.com/vibelink/messaging/internal/domain"

// Channel is a non-blocking push sink. Send reports whether the event was
// queued; a stalled consumer is disconnected rather than allowed to stall
// sends to other users. Done is closed exactly once when the channel is no
// longer usable.
type Channel interface {
	Send(ev domain.Event) bool
	Close()
	Done() <-chan struct{}
}
