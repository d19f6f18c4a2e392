package notifier

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/registry"
)

type recordingChannel struct {
	sent []domain.Event
	full bool
	done chan struct{}
}

func newRecordingChannel() *recordingChannel {
	return &recordingChannel{done: make(chan struct{})}
}

func (c *recordingChannel) Send(ev domain.Event) bool {
	if c.full {
		return false
	}
	c.sent = append(c.sent, ev)
	return true
}

func (c *recordingChannel) Close()                {}
func (c *recordingChannel) Done() <-chan struct{} { return c.done }

func TestNotifyLocalChannel(t *testing.T) {
	reg := registry.New()
	ch := newRecordingChannel()
	reg.Register("alice", ch)

	n := New(reg, nil, nil, "inst-1")
	n.Notify(context.Background(), "alice", domain.SeenEvent([]string{"m1"}, "bob"))

	require.Len(t, ch.sent, 1)
	require.Equal(t, domain.EventSeen, ch.sent[0].Type)
	require.Equal(t, []string{"m1"}, ch.sent[0].MessageIDs)
}

func TestNotifyDropsWhenAbsent(t *testing.T) {
	n := New(registry.New(), nil, nil, "inst-1")

	// Must not panic or block; the event is simply dropped.
	n.Notify(context.Background(), "nobody", domain.ConnectedEvent("nobody"))
}

func TestNotifyDropsWhenSendFails(t *testing.T) {
	reg := registry.New()
	ch := newRecordingChannel()
	ch.full = true
	reg.Register("alice", ch)

	n := New(reg, nil, nil, "inst-1")
	n.Notify(context.Background(), "alice", domain.ConnectedEvent("alice"))

	require.Empty(t, ch.sent)
}

func TestIsReachable(t *testing.T) {
	reg := registry.New()
	n := New(reg, nil, nil, "inst-1")

	require.False(t, n.IsReachable(context.Background(), "alice"))

	reg.Register("alice", newRecordingChannel())
	require.True(t, n.IsReachable(context.Background(), "alice"))
}

func TestDeliverLocal(t *testing.T) {
	reg := registry.New()
	ch := newRecordingChannel()
	reg.Register("alice", ch)

	n := New(reg, nil, nil, "inst-1")

	payload, err := json.Marshal(remoteEnvelope{
		UserID: "alice",
		Event:  domain.DeliveredEvent([]string{"m1", "m2"}, "bob"),
	})
	require.NoError(t, err)

	n.DeliverLocal(payload)

	require.Len(t, ch.sent, 1)
	require.Equal(t, domain.EventDelivered, ch.sent[0].Type)
	require.Equal(t, []string{"m1", "m2"}, ch.sent[0].MessageIDs)
	require.Equal(t, "bob", ch.sent[0].ToUserID)
}

func TestDeliverLocalBadPayload(t *testing.T) {
	n := New(registry.New(), nil, nil, "inst-1")
	n.DeliverLocal([]byte("not json")) // must not panic
}
