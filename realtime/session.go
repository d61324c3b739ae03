package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"driftchat/models"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 256
)

// Session owns one live websocket connection for one user. The handle ID
// distinguishes it from any earlier or later connection of the same user,
// which is what makes the registry's stale-close guard work.
type Session struct {
	ID     uuid.UUID
	UserID int64

	conn     *websocket.Conn
	send     chan models.Envelope
	quit     chan struct{}
	quitOnce sync.Once
	registry *Registry
	log      *logrus.Entry
}

// NewSession wraps an upgraded connection for the given user.
func NewSession(registry *Registry, conn *websocket.Conn, userID int64) *Session {
	id := uuid.New()
	return &Session{
		ID:       id,
		UserID:   userID,
		conn:     conn,
		send:     make(chan models.Envelope, sendBufferSize),
		quit:     make(chan struct{}),
		registry: registry,
		log: logrus.WithFields(logrus.Fields{
			"component": "session",
			"user_id":   userID,
			"handle_id": id,
		}),
	}
}

// Run registers the session and starts the read and write pumps. It
// returns immediately; the session unregisters itself when the
// connection drops.
func (s *Session) Run() {
	s.registry.Register(s)
	go s.writePump()
	go s.readPump()
}

// Send queues an event for delivery without blocking. Events for a dead
// session or one whose buffer is full are dropped; a slow connection
// must not stall the caller.
func (s *Session) Send(env models.Envelope) bool {
	select {
	case <-s.quit:
		return false
	default:
	}

	select {
	case s.send <- env:
		return true
	default:
		s.log.WithField("event", env.Type).Warn("send buffer full, dropping event")
		return false
	}
}

func (s *Session) close() {
	s.quitOnce.Do(func() {
		close(s.quit)
		s.conn.Close()
	})
}

func (s *Session) readPump() {
	defer func() {
		s.registry.Unregister(s)
		s.close()
	}()

	for {
		var env models.Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Warn("read error")
			}
			return
		}

		switch env.Type {
		case models.EventPing:
			s.Send(models.NewEnvelope(models.EventPong, nil))
		default:
			s.log.WithField("event", env.Type).Debug("ignoring unknown event")
		}
	}
}

func (s *Session) writePump() {
	defer s.close()

	for {
		select {
		case <-s.quit:
			return
		case env := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(env); err != nil {
				s.log.WithError(err).Debug("write error")
				return
			}
		}
	}
}
