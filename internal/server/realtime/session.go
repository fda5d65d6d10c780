package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Junhyukkkk/anondocs-server/internal/logging"
	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
)

// Session is one authenticated connection. The principal is bound at
// connection establishment and immutable for the session's lifetime; the
// session holds no other state of its own.
//
// Inbound frames are read and handled sequentially by a single loop, so
// commands from one connection are processed in send order and a command
// runs to completion before the next one starts. Outbound frames flow
// through the subscriber handle and a dedicated writer pump.
type Session struct {
	id        string
	principal *models.Principal
	conn      *websocket.Conn
	broker    *Broker
	router    *Router
	sub       *Subscriber
	logger    logging.Logger
	done      chan struct{}
}

func newSession(principal *models.Principal, conn *websocket.Conn, broker *Broker, router *Router, logger logging.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:        id,
		principal: principal,
		conn:      conn,
		broker:    broker,
		router:    router,
		sub:       NewSubscriber(sendBuffer),
		logger:    logger.With("module", "session", "session_id", id, "user_id", principal.ID),
		done:      make(chan struct{}),
	}
}

// run serves the connection until the peer disconnects or a transport error
// occurs. On exit every subscription of this session is dropped from the
// broker.
func (s *Session) run(ctx context.Context) {
	s.logger.Info(ctx, "session started")

	go s.writeLoop(ctx)

	defer func() {
		close(s.done)
		s.broker.DropSubscriber(s.sub)
		_ = s.conn.Close()
		s.logger.Info(ctx, "session closed")
	}()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn(ctx, "read error", "error", err)
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.logger.Warn(ctx, "malformed frame", "error", err)
			continue
		}

		switch frame.Type {
		case FrameSubscribe:
			if key, ok := s.resolveKey(frame.Destination); ok {
				s.broker.Subscribe(key, s.sub)
				s.logger.Debug(ctx, "subscribed", "destination", frame.Destination)
			} else {
				s.logger.Warn(ctx, "invalid subscription destination", "destination", frame.Destination)
			}
		case FrameUnsubscribe:
			if key, ok := s.resolveKey(frame.Destination); ok {
				s.broker.Unsubscribe(key, s.sub)
			}
		case FrameSend:
			// Synchronous: preserves per-connection ordering.
			s.router.Handle(ctx, s.principal, frame.Destination, frame.Body)
		default:
			s.logger.Warn(ctx, "unknown frame type", "type", frame.Type)
		}
	}
}

func (s *Session) writeLoop(ctx context.Context) {
	for {
		select {
		case raw := <-s.sub.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				s.logger.Warn(ctx, "write error", "error", err)
				_ = s.conn.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// resolveKey maps a subscription destination to a broker key. Public topics
// pass through; "/user/..." destinations are rewritten against the
// session's own principal, so a session can only subscribe to its own
// private queues.
func (s *Session) resolveKey(destination string) (string, bool) {
	switch {
	case strings.HasPrefix(destination, "/topic/"):
		return destination, true
	case strings.HasPrefix(destination, "/user/"):
		return userQueueKey(s.principal.Email, destination), true
	default:
		return "", false
	}
}
