package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/observability"
	"go.uber.org/zap"
)

const (
	streamQueueSize   = 128
	keepAliveInterval = 25 * time.Second
)

// Stream is a Server-Sent Events channel. Events are queued by Send and
// written by Serve on the handler goroutine, which stays parked for the
// lifetime of the connection. A keep-alive comment defeats idle-timeout
// intermediaries.
type Stream struct {
	UserID string

	queue  chan []byte
	done   chan struct{}
	closed atomic.Int32
}

func NewStream(userID string) *Stream {
	return &Stream{
		UserID: userID,
		queue:  make(chan []byte, streamQueueSize),
		done:   make(chan struct{}),
	}
}

func (s *Stream) Done() <-chan struct{} {
	return s.done
}

func (s *Stream) Send(ev domain.Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		return false
	}
	frame := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, data))

	if s.closed.Load() == 1 {
		return false
	}
	select {
	case s.queue <- frame:
		return true
	default:
		log := observability.GetLogger(context.Background())
		log.Warn("stream: backpressure overflow, dropping connection",
			zap.String("user_id", s.UserID))
		s.Close()
		return false
	}
}

func (s *Stream) Close() {
	if !s.closed.CompareAndSwap(0, 1) {
		return
	}
	close(s.done)
}

// Serve writes queued frames until the client disconnects or the stream is
// closed. It must be called from the HTTP handler goroutine and blocks for
// the lifetime of the connection.
func (s *Stream) Serve(ctx context.Context, w http.ResponseWriter) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		s.Close()
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer func() {
		keepAlive.Stop()
		s.Close()
	}()

	for {
		select {
		case frame := <-s.queue:
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}
