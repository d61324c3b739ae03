package client

import (
	"time"

	"github.com/gorilla/websocket"

	"driftchat/models"
)

// Conn is the controller's view of an open connection. It exists so the
// reconnection and keepalive logic can be exercised without a network.
type Conn interface {
	ReadEnvelope() (models.Envelope, error)
	WriteEnvelope(models.Envelope) error
	Close() error
}

// Dialer opens a Conn to the given websocket URL, failing after timeout.
type Dialer interface {
	Dial(url string, timeout time.Duration) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket.
type WebsocketDialer struct{}

func (WebsocketDialer) Dial(url string, timeout time.Duration) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadEnvelope() (models.Envelope, error) {
	var env models.Envelope
	err := c.conn.ReadJSON(&env)
	return env, err
}

func (c *wsConn) WriteEnvelope(env models.Envelope) error {
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(env)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
