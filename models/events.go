package models

import "encoding/json"

// Event types exchanged over the websocket.
const (
	EventOnlineUsers = "online_users" // server -> client, full online id set
	EventNewMessage  = "new_message"  // server -> client, delivered message
	EventPing        = "ping"         // client -> server, app-level heartbeat
	EventPong        = "pong"         // server -> client, heartbeat reply
)

// Envelope is the wire format for real-time events
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an Envelope. Marshaling errors are
// not possible for the payload types used here, so they are swallowed.
func NewEnvelope(eventType string, payload interface{}) Envelope {
	env := Envelope{Type: eventType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err == nil {
			env.Payload = data
		}
	}
	return env
}
