package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftchat/models"
)

func newTestSession(r *Registry, userID int64) *Session {
	// No transport: tests interact with the send buffer directly.
	return NewSession(r, nil, userID)
}

func drainPresence(t *testing.T, s *Session) []int64 {
	t.Helper()
	var last []int64
	for {
		select {
		case env := <-s.send:
			require.Equal(t, models.EventOnlineUsers, env.Type)
			last = nil
			require.NoError(t, json.Unmarshal(env.Payload, &last))
		default:
			return last
		}
	}
}

func TestRegisterThenSnapshot(t *testing.T) {
	r := NewRegistry()
	a := newTestSession(r, 1)
	b := newTestSession(r, 2)

	r.Register(a)
	r.Register(b)

	assert.ElementsMatch(t, []int64{1, 2}, r.Snapshot())
	assert.True(t, r.IsOnline(1))
	assert.True(t, r.IsOnline(2))
	assert.False(t, r.IsOnline(3))
}

func TestSnapshotMatchesOperationHistory(t *testing.T) {
	r := NewRegistry()
	a := newTestSession(r, 1)
	b := newTestSession(r, 2)
	c := newTestSession(r, 3)

	r.Register(a)
	r.Register(b)
	r.Register(c)
	r.Unregister(b)

	assert.ElementsMatch(t, []int64{1, 3}, r.Snapshot())

	r.Unregister(a)
	r.Unregister(c)
	assert.Empty(t, r.Snapshot())
}

func TestUnregisterStaleHandleIsNoOp(t *testing.T) {
	r := NewRegistry()
	old := newTestSession(r, 1)
	fresh := newTestSession(r, 1)

	r.Register(old)
	r.Register(fresh) // replaces old, last connection wins

	// The old connection's close arrives after the replacement: the
	// handle no longer matches, so the user stays online.
	r.Unregister(old)
	assert.True(t, r.IsOnline(1))
	require.NotNil(t, r.Lookup(1))
	assert.Equal(t, fresh.ID, r.Lookup(1).ID)

	r.Unregister(fresh)
	assert.False(t, r.IsOnline(1))
}

func TestTwoTabsOrderingDependentOutcome(t *testing.T) {
	// First tab connects, second tab connects and closes immediately.
	// Whether the user ends up online depends on which handle is current
	// when the second close lands.
	r := NewRegistry()
	tab1 := newTestSession(r, 7)
	tab2 := newTestSession(r, 7)

	r.Register(tab1)
	r.Register(tab2)
	r.Unregister(tab2)
	// tab2 was current, so its close takes effect.
	assert.False(t, r.IsOnline(7))

	r = NewRegistry()
	tab1 = newTestSession(r, 7)
	tab2 = newTestSession(r, 7)

	r.Register(tab1)
	r.Register(tab2)
	r.Register(tab1) // tab1 re-registers, becoming current again
	r.Unregister(tab2)
	// tab2's close no longer matches: the user stays online.
	assert.True(t, r.IsOnline(7))
}

func TestEveryMutationBroadcastsFullSet(t *testing.T) {
	r := NewRegistry()
	a := newTestSession(r, 1)
	b := newTestSession(r, 2)

	r.Register(a)
	assert.ElementsMatch(t, []int64{1}, drainPresence(t, a))

	r.Register(b)
	assert.ElementsMatch(t, []int64{1, 2}, drainPresence(t, a))
	assert.ElementsMatch(t, []int64{1, 2}, drainPresence(t, b))

	r.Unregister(b)
	assert.ElementsMatch(t, []int64{1}, drainPresence(t, a))
}

func TestBroadcastNeverBlocksOnSlowSession(t *testing.T) {
	r := NewRegistry()
	slow := newTestSession(r, 1)
	r.Register(slow)

	// Fill the slow session's buffer; later mutations must still return.
	for i := 0; i < sendBufferSize+10; i++ {
		slow.Send(models.NewEnvelope(models.EventPong, nil))
	}

	done := make(chan struct{})
	go func() {
		r.Register(newTestSession(r, 2))
		r.Unregister(slow)
		close(done)
	}()

	select {
	case <-done:
	case <-timeout(t):
		t.Fatal("registry mutation blocked on a slow session")
	}
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	r := NewRegistry()
	done := make(chan struct{})

	for u := int64(1); u <= 8; u++ {
		go func(userID int64) {
			for i := 0; i < 100; i++ {
				s := newTestSession(r, userID)
				r.Register(s)
				r.Unregister(s)
			}
			done <- struct{}{}
		}(u)
	}

	for i := 0; i < 8; i++ {
		select {
		case <-done:
		case <-timeout(t):
			t.Fatal("concurrent registry churn deadlocked")
		}
	}
	assert.Empty(t, r.Snapshot())
}
