package models

import "time"

// Message represents a direct message between two users. Exactly one of
// Text/Image is set. ReplyToID may reference a message that no longer
// exists; consumers render it without a preview in that case.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	ReplyToID  *int64    `json:"reply_to_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConversationKey identifies the unordered user pair a message belongs to.
type ConversationKey struct {
	A, B int64
}

// NewConversationKey normalizes the pair so {1,2} and {2,1} compare equal.
func NewConversationKey(userA, userB int64) ConversationKey {
	if userA > userB {
		userA, userB = userB, userA
	}
	return ConversationKey{A: userA, B: userB}
}

// Key returns the conversation the message belongs to.
func (m *Message) Key() ConversationKey {
	return NewConversationKey(m.SenderID, m.ReceiverID)
}
