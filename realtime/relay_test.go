package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftchat/models"
)

func TestDeliverToOnlineReceiver(t *testing.T) {
	r := NewRegistry()
	relay := NewRelay(r)

	receiver := newTestSession(r, 2)
	r.Register(receiver)
	drainPresence(t, receiver)

	msg := &models.Message{ID: 10, SenderID: 1, ReceiverID: 2, Text: "hi", CreatedAt: time.Now()}
	relay.Deliver(msg)

	select {
	case env := <-receiver.send:
		require.Equal(t, models.EventNewMessage, env.Type)
		var got models.Message
		require.NoError(t, json.Unmarshal(env.Payload, &got))
		assert.Equal(t, msg.ID, got.ID)
		assert.Equal(t, "hi", got.Text)
	default:
		t.Fatal("expected a new_message event for the online receiver")
	}
}

func TestDeliverToOfflineReceiverIsNoOp(t *testing.T) {
	r := NewRegistry()
	relay := NewRelay(r)

	online := newTestSession(r, 1)
	r.Register(online)
	drainPresence(t, online)

	before := r.Snapshot()

	// Receiver 2 is offline: no panic, no event, no registry change.
	relay.Deliver(&models.Message{ID: 11, SenderID: 1, ReceiverID: 2, Text: "hello?"})

	assert.ElementsMatch(t, before, r.Snapshot())
	select {
	case env := <-online.send:
		t.Fatalf("unexpected event %q for uninvolved session", env.Type)
	default:
	}
}

func TestDeliverNeverEchoesToSender(t *testing.T) {
	r := NewRegistry()
	relay := NewRelay(r)

	sender := newTestSession(r, 1)
	receiver := newTestSession(r, 2)
	r.Register(sender)
	r.Register(receiver)
	drainPresence(t, sender)
	drainPresence(t, receiver)

	relay.Deliver(&models.Message{ID: 12, SenderID: 1, ReceiverID: 2, Text: "hey"})

	select {
	case env := <-sender.send:
		t.Fatalf("sender received %q, expected no echo", env.Type)
	default:
	}

	select {
	case env := <-receiver.send:
		assert.Equal(t, models.EventNewMessage, env.Type)
	default:
		t.Fatal("receiver got nothing")
	}
}
