// Package fanout relays push events between process instances over Redis
// pub/sub. Each instance subscribes to its own channel; the notifier
// publishes to whichever instance presence says owns the target user.
package fanout

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/vibelink/messaging/internal/observability"
	"go.uber.org/zap"
)

type Router struct {
	client     *redis.Client
	instanceID string
}

func New(client *redis.Client, instanceID string) *Router {
	return &Router{client: client, instanceID: instanceID}
}

func (r *Router) channel(id string) string {
	return "notify:" + id
}

func (r *Router) Publish(ctx context.Context, target string, payload []byte) error {
	return r.client.Publish(ctx, r.channel(target), payload).Err()
}

func (r *Router) Subscribe(ctx context.Context, handler func([]byte)) {
	channelName := r.channel(r.instanceID)
	pubsub := r.client.Subscribe(ctx, channelName)

	go func() {
		log := observability.GetLogger(ctx)
		log.Info("fanout: subscribed", zap.String("channel", channelName))
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				log.Info("fanout: subscription loop stopping: context canceled")
				return
			case msg, ok := <-ch:
				if !ok {
					log.Warn("fanout: pubsub channel closed")
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()
}
