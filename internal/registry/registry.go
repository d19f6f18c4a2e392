// Package registry holds the process-local map from user id to live push
// channel. It has no persistence; every process starts empty and relearns
// reachability as clients reconnect.
package registry

import (
	"context"
	"sync"

	"github.com/vibelink/messaging/internal/channel"
	"github.com/vibelink/messaging/internal/observability"
	"go.uber.org/zap"
)

// Registry keeps at most one channel per user id. A second connection for
// the same id replaces the first, but the old channel is closed before the
// new one is installed so no handle leaks.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]channel.Channel
}

func New() *Registry {
	return &Registry{channels: make(map[string]channel.Channel)}
}

func (r *Registry) Register(userID string, ch channel.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.channels[userID]; ok {
		log := observability.GetLogger(context.Background())
		log.Info("registry: replacing existing channel", zap.String("user_id", userID))
		old.Close()
	}
	r.channels[userID] = ch
}

// Unregister removes the mapping only if it still points at ch. A late
// unregister from a replaced channel must not evict its replacement.
func (r *Registry) Unregister(userID string, ch channel.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.channels[userID]; ok && current == ch {
		delete(r.channels, userID)
	}
}

func (r *Registry) Lookup(userID string) (channel.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[userID]
	return ch, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.channels {
		ch.Close()
	}
	r.channels = make(map[string]channel.Channel)
}
