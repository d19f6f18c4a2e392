// Package presence tracks which process instance currently owns a user's
// channel, in Redis, so notifications can cross process boundaries. It is
// only wired when Redis is configured; a single-process deployment runs
// without it.
package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const TTL = 60 * time.Second

type Presence struct {
	client     *redis.Client
	instanceID string
}

func New(client *redis.Client, instanceID string) *Presence {
	return &Presence{client: client, instanceID: instanceID}
}

func key(userID string) string {
	return "presence:user:" + userID
}

func (p *Presence) Register(ctx context.Context, userID string) error {
	return p.client.Set(ctx, key(userID), p.instanceID, TTL).Err()
}

// Unregister drops the mapping only if this instance still owns it, so a
// fast reconnect onto another instance is not clobbered by the old
// connection's teardown.
func (p *Presence) Unregister(ctx context.Context, userID string) error {
	owner, err := p.client.Get(ctx, key(userID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if owner != p.instanceID {
		return nil
	}
	return p.client.Del(ctx, key(userID)).Err()
}

func (p *Presence) Refresh(ctx context.Context, userID string) error {
	return p.client.Expire(ctx, key(userID), TTL).Err()
}

// Lookup returns the instance id owning the user's channel, or "" when the
// user is not reachable anywhere.
func (p *Presence) Lookup(ctx context.Context, userID string) (string, error) {
	inst, err := p.client.Get(ctx, key(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return inst, nil
}

// StartHeartbeat refreshes the presence TTL until done closes. Bound to the
// channel lifetime by the caller.
func StartHeartbeat(p *Presence, userID string, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(TTL / 3)
		defer ticker.Stop()

		ctx := context.Background()
		for {
			select {
			case <-ticker.C:
				_ = p.Refresh(ctx, userID)
			case <-done:
				return
			}
		}
	}()
}
