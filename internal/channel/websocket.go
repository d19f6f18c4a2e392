package channel

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/observability"
	"go.uber.org/zap"
)

const (
	sendQueueSize = 128
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
)

// Session is a WebSocket-backed channel. All writes go through a bounded
// queue drained by a single write loop; the read side is owned by the HTTP
// handler.
type Session struct {
	ID     string
	UserID string

	conn      *websocket.Conn
	sendQueue chan []byte
	done      chan struct{}
	closed    atomic.Int32
}

func NewSession(id, userID string, conn *websocket.Conn) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		conn:      conn,
		sendQueue: make(chan []byte, sendQueueSize),
		done:      make(chan struct{}),
	}
}

func (s *Session) Start() {
	go s.writeLoop()
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Send(ev domain.Event) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		return false
	}
	return s.trySend(payload)
}

func (s *Session) trySend(msg []byte) bool {
	if s.closed.Load() == 1 {
		return false
	}
	select {
	case s.sendQueue <- msg:
		return true
	default:
		log := observability.GetLogger(context.Background())
		log.Warn("session: backpressure overflow, dropping connection",
			zap.String("user_id", s.UserID))
		s.CloseWithReason(websocket.CloseInternalServerErr, "backpressure overflow")
		return false
	}
}

func (s *Session) Close() {
	s.CloseWithReason(websocket.CloseNormalClosure, "server closing")
}

func (s *Session) CloseWithReason(code int, reason string) {
	if !s.closed.CompareAndSwap(0, 1) {
		return
	}

	close(s.done)

	if s.conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		s.conn.Close()
	}
}

// ReadLoop discards inbound frames (the client never sends application data
// on this channel) while keeping the pong deadline fresh. It returns when
// the peer disconnects.
func (s *Session) ReadLoop() {
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log := observability.GetLogger(context.Background())
				log.Error("session: read loop error", zap.String("user_id", s.UserID), zap.Error(err))
			}
			return
		}
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	log := observability.GetLogger(context.Background())
	for {
		select {
		case msg := <-s.sendQueue:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Error("session: write error", zap.String("user_id", s.UserID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error("session: ping error", zap.String("user_id", s.UserID), zap.Error(err))
				return
			}
		case <-s.done:
			return
		}
	}
}
