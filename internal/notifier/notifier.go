// Package notifier is the best-effort push component. It is never a source
// of truth: if the target has no live channel the event is dropped and the
// client reconciles from the store on its next fetch or reconnect sweep.
package notifier

import (
	"context"
	"encoding/json"

	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/fanout"
	"github.com/vibelink/messaging/internal/observability"
	"github.com/vibelink/messaging/internal/presence"
	"github.com/vibelink/messaging/internal/registry"
	"go.uber.org/zap"
)

type Notifier struct {
	registry   *registry.Registry
	presence   *presence.Presence // nil in single-process deployments
	router     *fanout.Router     // nil in single-process deployments
	instanceID string
}

func New(reg *registry.Registry, pres *presence.Presence, router *fanout.Router, instanceID string) *Notifier {
	return &Notifier{
		registry:   reg,
		presence:   pres,
		router:     router,
		instanceID: instanceID,
	}
}

// remoteEnvelope carries an event across instances, addressed to one user.
type remoteEnvelope struct {
	UserID string       `json:"user_id"`
	Event  domain.Event `json:"event"`
}

// Notify pushes ev to userID at most once. Push failures are swallowed;
// nothing downstream may depend on them.
func (n *Notifier) Notify(ctx context.Context, userID string, ev domain.Event) {
	if ch, ok := n.registry.Lookup(userID); ok {
		if ch.Send(ev) {
			observability.PushesTotal.WithLabelValues(string(ev.Type), "local").Inc()
			return
		}
	}

	if n.presence == nil || n.router == nil {
		observability.PushesTotal.WithLabelValues(string(ev.Type), "dropped").Inc()
		return
	}

	log := observability.GetLogger(ctx)
	inst, err := n.presence.Lookup(ctx, userID)
	if err != nil {
		log.Warn("notifier: presence lookup failed", zap.String("user_id", userID), zap.Error(err))
		observability.PushesTotal.WithLabelValues(string(ev.Type), "dropped").Inc()
		return
	}
	if inst == "" || inst == n.instanceID {
		observability.PushesTotal.WithLabelValues(string(ev.Type), "dropped").Inc()
		return
	}

	payload, err := json.Marshal(remoteEnvelope{UserID: userID, Event: ev})
	if err != nil {
		return
	}
	if err := n.router.Publish(ctx, inst, payload); err != nil {
		log.Warn("notifier: remote publish failed", zap.String("instance", inst), zap.Error(err))
		observability.PushesTotal.WithLabelValues(string(ev.Type), "dropped").Inc()
		return
	}
	observability.PushesTotal.WithLabelValues(string(ev.Type), "remote").Inc()
}

// IsReachable reports whether userID has a live channel here or, when the
// distributed registry is wired, on any instance. It decides the initial
// delivered flag at send time.
func (n *Notifier) IsReachable(ctx context.Context, userID string) bool {
	if _, ok := n.registry.Lookup(userID); ok {
		return true
	}
	if n.presence == nil {
		return false
	}
	inst, err := n.presence.Lookup(ctx, userID)
	return err == nil && inst != ""
}

// DeliverLocal is the fanout subscriber handler: an event published by a
// peer instance lands here and is pushed to the local channel, if any.
func (n *Notifier) DeliverLocal(payload []byte) {
	var env remoteEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		observability.GetLogger(context.Background()).Error("notifier: bad remote envelope", zap.Error(err))
		return
	}

	if ch, ok := n.registry.Lookup(env.UserID); ok {
		if ch.Send(env.Event) {
			observability.PushesTotal.WithLabelValues(string(env.Event.Type), "relayed").Inc()
		}
	}
}
