package client

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftchat/models"
)

var errConnClosed = errors.New("fake conn closed")

type fakeConn struct {
	in        chan models.Envelope
	out       chan models.Envelope
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan models.Envelope, 16),
		out:    make(chan models.Envelope, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadEnvelope() (models.Envelope, error) {
	select {
	case env := <-c.in:
		return env, nil
	case <-c.closed:
		return models.Envelope{}, errConnClosed
	}
}

func (c *fakeConn) WriteEnvelope(env models.Envelope) error {
	select {
	case <-c.closed:
		return errConnClosed
	case c.out <- env:
		return nil
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

type dialResult struct {
	conn *fakeConn
	err  error
}

// fakeDialer hands out scripted results; once the script is exhausted
// every dial fails, standing in for an unreachable server.
type fakeDialer struct {
	mu     sync.Mutex
	script []dialResult
	calls  int
}

func (d *fakeDialer) Dial(url string, timeout time.Duration) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if len(d.script) == 0 {
		return nil, errors.New("no server")
	}
	next := d.script[0]
	d.script = d.script[1:]
	if next.err != nil {
		return nil, next.err
	}
	return next.conn, nil
}

func (d *fakeDialer) push(results ...dialResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.script = append(d.script, results...)
}

func newTestController(d *fakeDialer) *Controller {
	return NewController("ws://test", Options{
		HandshakeTimeout: 100 * time.Millisecond,
		PingInterval:     10 * time.Millisecond,
		Policy:           CappedBackoff{Initial: time.Millisecond, Max: 2 * time.Millisecond},
		Dialer:           d,
	})
}

func TestOpenHandshakeFailure(t *testing.T) {
	d := &fakeDialer{}
	d.push(dialResult{err: errors.New("refused")})

	c := newTestController(d)
	err := c.Open(1)
	require.Error(t, err)
	assert.Equal(t, StateDisconnected, c.State())

	// No retry happens on its own: the dialer saw exactly one attempt.
	time.Sleep(20 * time.Millisecond)
	d.mu.Lock()
	assert.Equal(t, 1, d.calls)
	d.mu.Unlock()
}

func TestOpenTwiceReturnsError(t *testing.T) {
	d := &fakeDialer{}
	conn := newFakeConn()
	d.push(dialResult{conn: conn})

	c := newTestController(d)
	require.NoError(t, c.Open(1))
	defer c.Close()

	assert.ErrorIs(t, c.Open(2), ErrNotDisconnected)
}

func TestDispatchPresenceAndMessages(t *testing.T) {
	d := &fakeDialer{}
	conn := newFakeConn()
	d.push(dialResult{conn: conn})

	c := newTestController(d)
	presence := make(chan []int64, 4)
	messages := make(chan models.Message, 4)
	c.OnPresence(func(ids []int64) { presence <- ids })
	c.OnMessage(func(m models.Message) { messages <- m })

	require.NoError(t, c.Open(1))
	defer c.Close()

	conn.in <- models.NewEnvelope(models.EventOnlineUsers, []int64{1, 2})
	conn.in <- models.NewEnvelope(models.EventNewMessage, models.Message{ID: 5, SenderID: 2, ReceiverID: 1, Text: "yo"})

	select {
	case ids := <-presence:
		assert.ElementsMatch(t, []int64{1, 2}, ids)
	case <-time.After(time.Second):
		t.Fatal("presence update not dispatched")
	}

	select {
	case msg := <-messages:
		assert.Equal(t, int64(5), msg.ID)
		assert.Equal(t, "yo", msg.Text)
	case <-time.After(time.Second):
		t.Fatal("message not dispatched")
	}
}

func TestKeepalivePingPong(t *testing.T) {
	d := &fakeDialer{}
	conn := newFakeConn()
	d.push(dialResult{conn: conn})

	c := newTestController(d)
	require.NoError(t, c.Open(1))
	defer c.Close()

	select {
	case env := <-conn.out:
		assert.Equal(t, models.EventPing, env.Type)
	case <-time.After(time.Second):
		t.Fatal("no ping sent")
	}

	require.True(t, c.LastPong().IsZero())
	conn.in <- models.NewEnvelope(models.EventPong, nil)
	require.Eventually(t, func() bool {
		return !c.LastPong().IsZero()
	}, time.Second, 5*time.Millisecond, "pong not recorded")
}

func TestReconnectAfterTransportLoss(t *testing.T) {
	d := &fakeDialer{}
	conn1 := newFakeConn()
	conn2 := newFakeConn()
	d.push(
		dialResult{conn: conn1},
		dialResult{err: errors.New("still down")},
		dialResult{conn: conn2},
	)

	c := newTestController(d)

	var mu sync.Mutex
	var states []State
	c.OnStateChange(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})
	messages := make(chan models.Message, 4)
	c.OnMessage(func(m models.Message) { messages <- m })

	require.NoError(t, c.Open(1))
	defer c.Close()

	// Drop the transport out from under the controller.
	conn1.Close()

	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, time.Second, 5*time.Millisecond, "controller did not reconnect")

	mu.Lock()
	assert.Contains(t, states, StateReconnecting)
	mu.Unlock()

	// Handlers survive the reconnect.
	conn2.in <- models.NewEnvelope(models.EventNewMessage, models.Message{ID: 9, SenderID: 2, ReceiverID: 1, Text: "back"})
	select {
	case msg := <-messages:
		assert.Equal(t, int64(9), msg.ID)
	case <-time.After(time.Second):
		t.Fatal("message not dispatched after reconnect")
	}
}

func TestCloseIsIdempotentAndSilencesEvents(t *testing.T) {
	d := &fakeDialer{}
	conn := newFakeConn()
	d.push(dialResult{conn: conn})

	c := newTestController(d)
	fired := make(chan struct{}, 4)
	c.OnPresence(func([]int64) { fired <- struct{}{} })

	require.NoError(t, c.Open(1))

	c.Close()
	c.Close() // closing twice is a no-op
	assert.Equal(t, StateDisconnected, c.State())

	// Events arriving after teardown must not reach a detached handler.
	c.dispatch(models.NewEnvelope(models.EventOnlineUsers, []int64{1}))
	select {
	case <-fired:
		t.Fatal("event fired into a closed controller")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCloseStopsReconnectAttempts(t *testing.T) {
	d := &fakeDialer{}
	conn := newFakeConn()
	d.push(dialResult{conn: conn})

	c := newTestController(d)
	require.NoError(t, c.Open(1))

	conn.Close()
	require.Eventually(t, func() bool {
		return c.State() != StateConnected
	}, time.Second, time.Millisecond)

	c.Close()
	time.Sleep(20 * time.Millisecond)
	d.mu.Lock()
	callsAfterClose := d.calls
	d.mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	d.mu.Lock()
	assert.Equal(t, callsAfterClose, d.calls, "dialing continued after Close")
	d.mu.Unlock()
	assert.Equal(t, StateDisconnected, c.State())
}
