package realtime

import (
	"github.com/sirupsen/logrus"

	"driftchat/models"
)

// Relay pushes persisted messages to their recipient's live connection.
// Delivery is best-effort: an offline recipient simply fetches the
// message from history the next time they open the conversation.
type Relay struct {
	registry *Registry
	log      *logrus.Entry
}

// NewRelay creates a relay backed by the given registry.
func NewRelay(registry *Registry) *Relay {
	return &Relay{
		registry: registry,
		log:      logrus.WithField("component", "relay"),
	}
}

// Deliver attempts live delivery of a persisted message. The sender's own
// connection is never targeted; the sender appends locally after the send
// request succeeds. Offline recipients are a silent no-op.
func (r *Relay) Deliver(msg *models.Message) {
	sess := r.registry.Lookup(msg.ReceiverID)
	if sess == nil {
		r.log.WithFields(logrus.Fields{
			"message_id":  msg.ID,
			"receiver_id": msg.ReceiverID,
		}).Debug("receiver offline, skipping live delivery")
		return
	}

	sess.Send(models.NewEnvelope(models.EventNewMessage, msg))
}
