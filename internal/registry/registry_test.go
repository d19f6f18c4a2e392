package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vibelink/messaging/internal/domain"
)

type stubChannel struct {
	closed int
	done   chan struct{}
}

func newStubChannel() *stubChannel {
	return &stubChannel{done: make(chan struct{})}
}

func (s *stubChannel) Send(domain.Event) bool { return true }

func (s *stubChannel) Close() {
	if s.closed == 0 {
		close(s.done)
	}
	s.closed++
}

func (s *stubChannel) Done() <-chan struct{} { return s.done }

func TestRegisterAndLookup(t *testing.T) {
	reg := New()
	ch := newStubChannel()

	reg.Register("alice", ch)

	got, ok := reg.Lookup("alice")
	require.True(t, ok)
	require.Same(t, ch, got.(*stubChannel))
	require.Equal(t, 1, reg.Len())

	_, ok = reg.Lookup("bob")
	require.False(t, ok)
}

func TestRegisterReplacementClosesOld(t *testing.T) {
	reg := New()
	first := newStubChannel()
	second := newStubChannel()

	reg.Register("alice", first)
	reg.Register("alice", second)

	require.Equal(t, 1, first.closed, "old channel must be closed on replacement")
	require.Equal(t, 0, second.closed)

	got, ok := reg.Lookup("alice")
	require.True(t, ok)
	require.Same(t, second, got.(*stubChannel))
	require.Equal(t, 1, reg.Len())
}

func TestLateUnregisterDoesNotEvictReplacement(t *testing.T) {
	reg := New()
	first := newStubChannel()
	second := newStubChannel()

	reg.Register("alice", first)
	reg.Register("alice", second)

	// The replaced connection's teardown fires after the new one is
	// installed; it must be a no-op.
	reg.Unregister("alice", first)

	got, ok := reg.Lookup("alice")
	require.True(t, ok)
	require.Same(t, second, got.(*stubChannel))
}

func TestUnregisterRemovesOwnChannel(t *testing.T) {
	reg := New()
	ch := newStubChannel()

	reg.Register("alice", ch)
	reg.Unregister("alice", ch)

	_, ok := reg.Lookup("alice")
	require.False(t, ok)
	require.Equal(t, 0, reg.Len())
}

func TestCloseAll(t *testing.T) {
	reg := New()
	a := newStubChannel()
	b := newStubChannel()

	reg.Register("alice", a)
	reg.Register("bob", b)
	reg.CloseAll()

	require.Equal(t, 1, a.closed)
	require.Equal(t, 1, b.closed)
	require.Equal(t, 0, reg.Len())
}
