// Package client implements the client half of the realtime protocol: a
// connection controller with keepalive and reconnection, and an ordered,
// deduplicated per-conversation message view.
package client

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"driftchat/models"
)

// State is the connection lifecycle phase of a Controller.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// ErrNotDisconnected is returned by Open when the controller already has
// a live or pending connection. Close first.
var ErrNotDisconnected = errors.New("client: already connected or connecting")

// ErrClosed is returned by Open when Close raced the handshake.
var ErrClosed = errors.New("client: controller closed")

const (
	defaultHandshakeTimeout = 20 * time.Second
	defaultPingInterval     = 25 * time.Second
)

// Options tune the controller. Zero values pick the reference defaults.
type Options struct {
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	Policy           ReconnectPolicy
	Dialer           Dialer
}

// Controller owns one websocket connection to the chat server. Open dials
// once; after that, transport loss is healed by an internal reconnect
// loop governed by the ReconnectPolicy, with unbounded attempts. A ping
// is sent every PingInterval while connected; the pong reply is recorded
// for diagnostics only and never used as a failure detector.
//
// Callbacks are invoked with the controller's lock held so that Close can
// guarantee no event fires after it returns; callbacks must not call back
// into the Controller.
type Controller struct {
	serverURL        string
	dialer           Dialer
	policy           ReconnectPolicy
	handshakeTimeout time.Duration
	pingInterval     time.Duration
	log              *logrus.Entry

	mu       sync.Mutex
	state    State
	conn     Conn
	userID   int64
	done     chan struct{}
	closed   bool
	lastPong time.Time

	onPresence func([]int64)
	onMessage  func(models.Message)
	onState    func(State)
}

// NewController creates a controller for the server at serverURL
// (e.g. "ws://localhost:8080").
func NewController(serverURL string, opts Options) *Controller {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	if opts.Policy == nil {
		opts.Policy = DefaultPolicy()
	}
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer{}
	}
	return &Controller{
		serverURL:        strings.TrimRight(serverURL, "/"),
		dialer:           opts.Dialer,
		policy:           opts.Policy,
		handshakeTimeout: opts.HandshakeTimeout,
		pingInterval:     opts.PingInterval,
		log:              logrus.WithField("component", "client_controller"),
	}
}

// OnPresence registers the handler for full online-user-set updates.
func (c *Controller) OnPresence(fn func(userIDs []int64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPresence = fn
}

// OnMessage registers the handler for delivered messages. Registering
// replaces any previous handler; there is never more than one.
func (c *Controller) OnMessage(fn func(msg models.Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

// OnStateChange registers the handler for lifecycle transitions.
func (c *Controller) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastPong returns when the last heartbeat reply arrived.
func (c *Controller) LastPong() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPong
}

// Open dials the server, tagging the connection with userID. Valid only
// from the disconnected state. A handshake failure returns the error and
// leaves the controller disconnected; it is the caller's decision to try
// again.
func (c *Controller) Open(userID int64) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrNotDisconnected
	}
	c.userID = userID
	c.closed = false
	c.done = make(chan struct{})
	done := c.done
	c.transitionLocked(StateConnecting)
	c.mu.Unlock()

	conn, err := c.dialer.Dial(c.dialURL(userID), c.handshakeTimeout)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("handshake failed: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.transitionLocked(StateConnected)
	c.mu.Unlock()

	go c.run(conn, done)
	return nil
}

// Close detaches every registered handler, stops the keepalive ticker and
// closes the transport. Idempotent: closing a disconnected controller is
// a no-op. After Close returns, no callback will fire.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed || c.done == nil || c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.onPresence = nil
	c.onMessage = nil
	c.onState = nil
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// run serves the connection and reconnects forever until Close.
func (c *Controller) run(conn Conn, done chan struct{}) {
	for {
		err := c.serve(conn, done)
		select {
		case <-done:
			return
		default:
		}

		c.log.WithError(err).Warn("connection lost, retrying")
		c.setState(StateReconnecting)

		conn = c.reconnect(done)
		if conn == nil {
			return
		}
		c.setState(StateConnected)
	}
}

// serve reads events until the connection fails, running the keepalive
// ticker alongside.
func (c *Controller) serve(conn Conn, done chan struct{}) error {
	stop := make(chan struct{})
	defer close(stop)
	go c.keepalive(conn, stop, done)

	for {
		env, err := conn.ReadEnvelope()
		if err != nil {
			return err
		}
		c.dispatch(env)
	}
}

func (c *Controller) keepalive(conn Conn, stop, done chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-done:
			return
		case <-ticker.C:
			// A failed write surfaces through the read loop.
			_ = conn.WriteEnvelope(models.NewEnvelope(models.EventPing, nil))
		}
	}
}

// reconnect dials until it succeeds or the controller is closed. Attempts
// are unbounded; the policy rate-limits them.
func (c *Controller) reconnect(done chan struct{}) Conn {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	for attempt := 0; ; attempt++ {
		select {
		case <-done:
			return nil
		case <-time.After(c.policy.NextDelay(attempt)):
		}

		c.setState(StateConnecting)
		conn, err := c.dialer.Dial(c.dialURL(userID), c.handshakeTimeout)
		if err != nil {
			c.log.WithError(err).WithField("attempt", attempt+1).Debug("reconnect failed")
			c.setState(StateReconnecting)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return nil
		}
		c.conn = conn
		c.mu.Unlock()
		return conn
	}
}

func (c *Controller) dispatch(env models.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	switch env.Type {
	case models.EventOnlineUsers:
		var userIDs []int64
		if err := unmarshalPayload(env, &userIDs); err != nil {
			c.log.WithError(err).Warn("bad presence payload")
			return
		}
		if c.onPresence != nil {
			c.onPresence(userIDs)
		}
	case models.EventNewMessage:
		var msg models.Message
		if err := unmarshalPayload(env, &msg); err != nil {
			c.log.WithError(err).Warn("bad message payload")
			return
		}
		if c.onMessage != nil {
			c.onMessage(msg)
		}
	case models.EventPong:
		c.lastPong = time.Now()
	default:
		c.log.WithField("event", env.Type).Debug("ignoring unknown event")
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.transitionLocked(s)
}

// transitionLocked changes state and notifies. Caller holds c.mu.
func (c *Controller) transitionLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onState != nil {
		c.onState(s)
	}
}

func (c *Controller) dialURL(userID int64) string {
	return fmt.Sprintf("%s/ws?userId=%d", c.serverURL, userID)
}
