package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"driftchat/models"
)

// ErrEmptyDraft is returned by Send when neither text nor image is set.
var ErrEmptyDraft = errors.New("client: message needs text or an image")

// ErrNoActiveConversation is returned by Send when no peer is selected.
var ErrNoActiveConversation = errors.New("client: no active conversation")

// Draft is an outgoing message before it is persisted.
type Draft struct {
	Text      string
	Image     string
	ReplyToID *int64
}

// HistoryFetcher loads the stored conversation with a peer, oldest first.
type HistoryFetcher interface {
	FetchMessages(peerID int64) ([]models.Message, error)
}

// MessageSender persists a draft addressed to a peer and returns the
// stored message.
type MessageSender interface {
	SendMessage(peerID int64, draft Draft) (*models.Message, error)
}

// MessageSource delivers inbound messages to at most one handler;
// registering replaces the previous handler. A Controller satisfies this.
type MessageSource interface {
	OnMessage(fn func(models.Message))
}

// ConversationView is the ordered, deduplicated message list for the
// conversation currently on screen. It consumes live deliveries from a
// MessageSource and the caller's own confirmed sends; switching peers
// rebuilds the list wholesale from the HistoryFetcher.
type ConversationView struct {
	selfID  int64
	history HistoryFetcher
	sender  MessageSender
	source  MessageSource

	mu         sync.Mutex
	activePeer int64
	messages   []models.Message
	subToken   uuid.UUID // uuid.Nil when unsubscribed
}

// NewConversationView creates a view for the given local user.
func NewConversationView(selfID int64, history HistoryFetcher, sender MessageSender, source MessageSource) *ConversationView {
	return &ConversationView{
		selfID:  selfID,
		history: history,
		sender:  sender,
		source:  source,
	}
}

// SetActiveConversation switches the view to the conversation with
// peerID: the message list is replaced from history and the live
// subscription is (re)established.
func (v *ConversationView) SetActiveConversation(peerID int64) error {
	msgs, err := v.history.FetchMessages(peerID)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	v.mu.Lock()
	v.activePeer = peerID
	v.messages = msgs
	v.mu.Unlock()

	v.SubscribeToMessages()
	return nil
}

// ClearActiveConversation drops the selection and the in-memory list.
func (v *ConversationView) ClearActiveConversation() {
	v.UnsubscribeFromMessages()
	v.mu.Lock()
	v.activePeer = 0
	v.messages = nil
	v.mu.Unlock()
}

// SubscribeToMessages starts consuming live deliveries. Subscribing while
// already subscribed replaces the existing registration; it never stacks
// a second one.
func (v *ConversationView) SubscribeToMessages() {
	v.mu.Lock()
	v.subToken = uuid.New()
	v.mu.Unlock()

	// The source holds a single handler slot, so re-registering is what
	// keeps double subscription from duplicating appends.
	v.source.OnMessage(v.handleIncoming)
}

// UnsubscribeFromMessages stops consuming live deliveries. Idempotent.
func (v *ConversationView) UnsubscribeFromMessages() {
	v.mu.Lock()
	v.subToken = uuid.Nil
	v.mu.Unlock()

	v.source.OnMessage(nil)
}

// Send validates the draft, persists it through the sender, and appends
// the confirmed message. Nothing is shown for a failed send.
func (v *ConversationView) Send(draft Draft) (*models.Message, error) {
	if draft.Text == "" && draft.Image == "" {
		return nil, ErrEmptyDraft
	}

	v.mu.Lock()
	peer := v.activePeer
	v.mu.Unlock()
	if peer == 0 {
		return nil, ErrNoActiveConversation
	}

	msg, err := v.sender.SendMessage(peer, draft)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	v.mu.Lock()
	v.appendLocked(*msg)
	v.mu.Unlock()
	return msg, nil
}

// Messages returns a copy of the current list, oldest first.
func (v *ConversationView) Messages() []models.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Message, len(v.messages))
	copy(out, v.messages)
	return out
}

// ResolveReply looks up the message a reply refers to in the current
// list. A dangling reference resolves to nothing: the caller renders the
// message without a preview.
func (v *ConversationView) ResolveReply(msg models.Message) (models.Message, bool) {
	if msg.ReplyToID == nil {
		return models.Message{}, false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, m := range v.messages {
		if m.ID == *msg.ReplyToID {
			return m, true
		}
	}
	return models.Message{}, false
}

// NeedsDateSeparator reports whether a date separator belongs between two
// consecutive messages: the local calendar date changed.
func NeedsDateSeparator(prev, cur models.Message) bool {
	p := prev.CreatedAt.Local()
	c := cur.CreatedAt.Local()
	return p.Year() != c.Year() || p.Month() != c.Month() || p.Day() != c.Day()
}

// handleIncoming filters a live delivery against the conversation that is
// active at the moment it arrives, not the one active at subscribe time.
func (v *ConversationView) handleIncoming(msg models.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.subToken == uuid.Nil || v.activePeer == 0 {
		return
	}
	if msg.Key() != models.NewConversationKey(v.selfID, v.activePeer) {
		return
	}
	v.appendLocked(msg)
}

// appendLocked appends keeping order and dropping duplicates by id.
// Caller holds v.mu.
func (v *ConversationView) appendLocked(msg models.Message) {
	for _, m := range v.messages {
		if m.ID == msg.ID {
			return
		}
	}
	// Deliveries can arrive while history for a just-opened conversation
	// is still settling; keep the list ordered by creation time.
	if n := len(v.messages); n > 0 && msg.CreatedAt.Before(v.messages[n-1].CreatedAt) {
		for i, m := range v.messages {
			if msg.CreatedAt.Before(m.CreatedAt) {
				v.messages = append(v.messages[:i], append([]models.Message{msg}, v.messages[i:]...)...)
				return
			}
		}
	}
	v.messages = append(v.messages, msg)
}

var _ MessageSource = (*Controller)(nil)
