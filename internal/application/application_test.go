package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/store"
	"github.com/vibelink/messaging/internal/store/memory"
)

type pushedEvent struct {
	userID string
	event  domain.Event
}

// fakePusher records pushes and lets tests toggle who is reachable.
type fakePusher struct {
	reachable map[string]bool
	pushed    []pushedEvent
}

func newFakePusher(reachable ...string) *fakePusher {
	m := make(map[string]bool)
	for _, u := range reachable {
		m[u] = true
	}
	return &fakePusher{reachable: m}
}

func (f *fakePusher) Notify(_ context.Context, userID string, ev domain.Event) {
	f.pushed = append(f.pushed, pushedEvent{userID: userID, event: ev})
}

func (f *fakePusher) IsReachable(_ context.Context, userID string) bool {
	return f.reachable[userID]
}

func (f *fakePusher) eventsFor(userID string, t domain.EventType) []domain.Event {
	var out []domain.Event
	for _, p := range f.pushed {
		if p.userID == userID && p.event.Type == t {
			out = append(out, p.event)
		}
	}
	return out
}

type fakeUploader struct {
	fail bool
}

func (f *fakeUploader) UploadImage(_ context.Context, fileName string, _ []byte) (string, error) {
	if f.fail {
		return "", domain.ErrUploadFailed
	}
	return "https://cdn.test/" + fileName + "?tr=w-1280,q-auto,f-webp", nil
}

func (f *fakeUploader) UploadFile(_ context.Context, fileName, _ string, _ []byte) (string, error) {
	if f.fail {
		return "", domain.ErrUploadFailed
	}
	return "https://cdn.test/" + fileName, nil
}

func newTestService(pusher *fakePusher) (*Service, *memory.Repository) {
	st := memory.New()
	return New(st, pusher, &fakeUploader{}, nil), st
}

func TestSendAndHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	svc, _ := newTestService(pusher)

	sent, err := svc.SendMessage(ctx, SendCommand{FromUserID: "alice", ToUserID: "bob", Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, domain.KindText, sent.Kind)

	msgs, err := svc.History(ctx, "bob", "alice", store.Page{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, sent.ID, msgs[0].ID)
	require.Equal(t, "hi", msgs[0].Body)
}

func TestHistoryOrderingAscending(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	svc, _ := newTestService(pusher)

	var ids []string
	for _, text := range []string{"one", "two", "three"} {
		m, err := svc.SendMessage(ctx, SendCommand{FromUserID: "alice", ToUserID: "bob", Text: text})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	msgs, err := svc.History(ctx, "alice", "bob", store.Page{})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		require.Equal(t, ids[i], m.ID, "history must be ascending by creation order")
	}
}

func TestLiveRecipientDeliveredImmediately(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher("bob")
	svc, _ := newTestService(pusher)

	sent, err := svc.SendMessage(ctx, SendCommand{FromUserID: "alice", ToUserID: "bob", Text: "hi"})
	require.NoError(t, err)
	require.True(t, sent.Delivered)

	msgEvents := pusher.eventsFor("bob", domain.EventMessage)
	require.Len(t, msgEvents, 1)
	require.Equal(t, sent.ID, msgEvents[0].Message.ID)

	delEvents := pusher.eventsFor("alice", domain.EventDelivered)
	require.Len(t, delEvents, 1)
	require.Equal(t, []string{sent.ID}, delEvents[0].MessageIDs)
	require.Equal(t, "bob", delEvents[0].ToUserID)
}

func TestOfflineRecipientSweptOnReconnect(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	svc, st := newTestService(pusher)

	sent, err := svc.SendMessage(ctx, SendCommand{FromUserID: "alice", ToUserID: "bob", Text: "hi"})
	require.NoError(t, err)
	require.False(t, sent.Delivered)
	require.Empty(t, pusher.pushed, "no push while recipient is offline")

	// Bob opens a channel: the sweep flips the message and tells Alice.
	require.NoError(t, svc.SweepDelivered(ctx, "bob"))

	stored, err := st.Get(ctx, sent.ID)
	require.NoError(t, err)
	require.True(t, stored.Delivered)

	delEvents := pusher.eventsFor("alice", domain.EventDelivered)
	require.Len(t, delEvents, 1)
	require.Equal(t, []string{sent.ID}, delEvents[0].MessageIDs)
	require.Equal(t, "bob", delEvents[0].ToUserID)

	// Nothing left to sweep; no duplicate notification.
	require.NoError(t, svc.SweepDelivered(ctx, "bob"))
	require.Len(t, pusher.eventsFor("alice", domain.EventDelivered), 1)
}

func TestSeenImpliesDelivered(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	svc, st := newTestService(pusher)

	sent, err := svc.SendMessage(ctx, SendCommand{FromUserID: "alice", ToUserID: "bob", Text: "hi"})
	require.NoError(t, err)
	require.False(t, sent.Delivered)

	updated, err := svc.MarkSeen(ctx, "bob", []string{sent.ID})
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	stored, err := st.Get(ctx, sent.ID)
	require.NoError(t, err)
	require.True(t, stored.Seen)
	require.True(t, stored.Delivered, "seen must imply delivered")
}

func TestMarkSeenIdempotent(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	svc, _ := newTestService(pusher)

	sent, err := svc.SendMessage(ctx, SendCommand{FromUserID: "alice", ToUserID: "bob", Text: "hi"})
	require.NoError(t, err)

	first, err := svc.MarkSeen(ctx, "bob", []string{sent.ID})
	require.NoError(t, err)
	require.Equal(t, 1, first)
	require.Len(t, pusher.eventsFor("alice", domain.EventSeen), 1)

	second, err := svc.MarkSeen(ctx, "bob", []string{sent.ID})
	require.NoError(t, err)
	require.Equal(t, 0, second)
	require.Len(t, pusher.eventsFor("alice", domain.EventSeen), 1, "no double notify")
}

func TestMarkSeenAuthorization(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	svc, st := newTestService(pusher)

	sent, err := svc.SendMessage(ctx, SendCommand{FromUserID: "alice", ToUserID: "bob", Text: "hi"})
	require.NoError(t, err)

	// carol cannot mark bob's inbound messages seen by guessing ids.
	updated, err := svc.MarkSeen(ctx, "carol", []string{sent.ID})
	require.NoError(t, err)
	require.Equal(t, 0, updated)

	stored, err := st.Get(ctx, sent.ID)
	require.NoError(t, err)
	require.False(t, stored.Seen)
}

func TestMarkSeenSkipsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	svc, _ := newTestService(pusher)

	sent, err := svc.SendMessage(ctx, SendCommand{FromUserID: "alice", ToUserID: "bob", Text: "hi"})
	require.NoError(t, err)

	updated, err := svc.MarkSeen(ctx, "bob", []string{"no-such-id", sent.ID})
	require.NoError(t, err)
	require.Equal(t, 1, updated)
}

func TestImageOnlyMessage(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	svc, _ := newTestService(pusher)

	sent, err := svc.SendMessage(ctx, SendCommand{
		FromUserID: "alice",
		ToUserID:   "bob",
		Image:      &Attachment{FileName: "cat.jpg", Data: []byte{0xff}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.KindImage, sent.Kind)
	require.NotEmpty(t, sent.MediaURL)
	require.Empty(t, sent.Body)

	// Bob fetches the conversation: the message appears once, seen.
	msgs, err := svc.History(ctx, "bob", "alice", store.Page{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.True(t, msgs[0].Seen)

	seenEvents := pusher.eventsFor("alice", domain.EventSeen)
	require.Len(t, seenEvents, 1)
	require.Equal(t, "bob", seenEvents[0].By)
}

func TestImageTakesPrecedenceOverFile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newFakePusher())

	sent, err := svc.SendMessage(ctx, SendCommand{
		FromUserID: "alice",
		ToUserID:   "bob",
		Image:      &Attachment{FileName: "cat.jpg", Data: []byte{1}},
		File:       &Attachment{FileName: "doc.pdf", MimeType: "application/pdf", Data: []byte{2}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.KindImage, sent.Kind)
}

func TestEmptySendRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newFakePusher())

	_, err := svc.SendMessage(ctx, SendCommand{FromUserID: "alice", ToUserID: "bob"})
	require.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestFailedUploadPersistsNothing(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	st := memory.New()
	svc := New(st, pusher, &fakeUploader{fail: true}, nil)

	_, err := svc.SendMessage(ctx, SendCommand{
		FromUserID: "alice",
		ToUserID:   "bob",
		Image:      &Attachment{FileName: "cat.jpg", Data: []byte{1}},
	})
	require.ErrorIs(t, err, domain.ErrUploadFailed)

	msgs, err := st.Conversation(ctx, "alice", "bob", store.Page{})
	require.NoError(t, err)
	require.Empty(t, msgs, "failed upload must not leave a partial message")
}

func TestHistorySecondReadDoesNotRenotify(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	svc, _ := newTestService(pusher)

	_, err := svc.SendMessage(ctx, SendCommand{FromUserID: "alice", ToUserID: "bob", Text: "hi"})
	require.NoError(t, err)

	_, err = svc.History(ctx, "bob", "alice", store.Page{})
	require.NoError(t, err)
	require.Len(t, pusher.eventsFor("alice", domain.EventSeen), 1)

	_, err = svc.History(ctx, "bob", "alice", store.Page{})
	require.NoError(t, err)
	require.Len(t, pusher.eventsFor("alice", domain.EventSeen), 1)
}

func TestRecentReturnsLatestPerCounterpart(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newFakePusher())

	_, err := svc.SendMessage(ctx, SendCommand{FromUserID: "alice", ToUserID: "bob", Text: "old"})
	require.NoError(t, err)
	newest, err := svc.SendMessage(ctx, SendCommand{FromUserID: "alice", ToUserID: "bob", Text: "new"})
	require.NoError(t, err)
	fromCarol, err := svc.SendMessage(ctx, SendCommand{FromUserID: "carol", ToUserID: "bob", Text: "hey"})
	require.NoError(t, err)

	msgs, err := svc.Recent(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	byID := map[string]bool{msgs[0].ID: true, msgs[1].ID: true}
	require.True(t, byID[newest.ID])
	require.True(t, byID[fromCarol.ID])
}
