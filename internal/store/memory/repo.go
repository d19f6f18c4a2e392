// Package memory holds an in-process MessageStore used by tests and by
// local development runs that have no database configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/store"
)

const defaultConversationLimit = 200

type Repository struct {
	mu       sync.RWMutex
	messages map[string]*domain.Message
	order    []string // ids in insertion order, tie-break for equal timestamps
}

func New() *Repository {
	return &Repository{messages: make(map[string]*domain.Message)}
}

func (r *Repository) Create(_ context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *m
	r.messages[m.ID] = &cp
	r.order = append(r.order, m.ID)
	return nil
}

func (r *Repository) Get(_ context.Context, id string) (*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.messages[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *Repository) Conversation(_ context.Context, userA, userB string, page store.Page) ([]*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Message
	for _, id := range r.order {
		m := r.messages[id]
		if !betweenPair(m, userA, userB) {
			continue
		}
		if !page.Before.IsZero() && !m.CreatedAt.Before(page.Before) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}

	sortAscending(out)

	limit := page.Limit
	if limit <= 0 {
		limit = defaultConversationLimit
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *Repository) RecentForUser(_ context.Context, userID string) ([]*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[string]*domain.Message)
	for _, id := range r.order {
		m := r.messages[id]
		if m.ToUserID != userID {
			continue
		}
		prev, ok := latest[m.FromUserID]
		if !ok || !m.CreatedAt.Before(prev.CreatedAt) {
			latest[m.FromUserID] = m
		}
	}

	out := make([]*domain.Message, 0, len(latest))
	for _, m := range latest {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Repository) MarkDeliveredForRecipient(_ context.Context, userID string) (store.BySender, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(store.BySender)
	for _, id := range r.order {
		m := r.messages[id]
		if m.ToUserID == userID && !m.Delivered {
			m.Delivered = true
			out[m.FromUserID] = append(out[m.FromUserID], m.ID)
		}
	}
	return out, nil
}

func (r *Repository) MarkSeen(_ context.Context, recipient string, ids []string) (store.BySender, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(store.BySender)
	for _, id := range ids {
		m, ok := r.messages[id]
		if !ok || m.ToUserID != recipient || m.Seen {
			continue
		}
		m.Seen = true
		m.Delivered = true
		out[m.FromUserID] = append(out[m.FromUserID], m.ID)
	}
	return out, nil
}

func (r *Repository) MarkSeenForConversationRead(_ context.Context, viewer, otherParty string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for _, id := range r.order {
		m := r.messages[id]
		if m.FromUserID == otherParty && m.ToUserID == viewer && !m.Seen {
			m.Seen = true
			m.Delivered = true
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

func betweenPair(m *domain.Message, a, b string) bool {
	return (m.FromUserID == a && m.ToUserID == b) ||
		(m.FromUserID == b && m.ToUserID == a)
}

func sortAscending(msgs []*domain.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}
