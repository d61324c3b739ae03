// Package realtime tracks live websocket connections and performs
// best-effort delivery of presence updates and new messages to them.
package realtime

import (
	"sync"

	"github.com/sirupsen/logrus"

	"driftchat/models"
)

// Registry is the authoritative map of online users to their current
// connection. At most one session per user: a new connection for an
// already-present user replaces the old entry (last connection wins), the
// replaced session is left to close on its own.
//
// All methods are safe for concurrent use and never block on I/O;
// presence broadcasts are pushed through buffered per-session channels
// and dropped for consumers that cannot keep up.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	log *logrus.Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]*Session),
		log:      logrus.WithField("component", "registry"),
	}
}

// Register inserts or replaces the session for sess.UserID and broadcasts
// the new online set to every connected session.
func (r *Registry) Register(sess *Session) {
	r.mu.Lock()
	r.sessions[sess.UserID] = sess
	userIDs, targets := r.presenceLocked()
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"user_id":   sess.UserID,
		"handle_id": sess.ID,
		"online":    len(userIDs),
	}).Info("user connected")

	broadcastPresence(userIDs, targets)
}

// Unregister removes the entry for sess.UserID, but only if the stored
// session is the caller's own. A close racing a newer connection's
// Register is a no-op: the newer session stays registered.
func (r *Registry) Unregister(sess *Session) {
	r.mu.Lock()
	cur, ok := r.sessions[sess.UserID]
	if !ok || cur.ID != sess.ID {
		r.mu.Unlock()
		r.log.WithFields(logrus.Fields{
			"user_id":   sess.UserID,
			"handle_id": sess.ID,
		}).Debug("stale unregister ignored")
		return
	}
	delete(r.sessions, sess.UserID)
	userIDs, targets := r.presenceLocked()
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"user_id":   sess.UserID,
		"handle_id": sess.ID,
		"online":    len(userIDs),
	}).Info("user disconnected")

	broadcastPresence(userIDs, targets)
}

// Lookup returns the current session for userID, or nil if offline.
func (r *Registry) Lookup(userID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[userID]
}

// IsOnline reports whether userID currently holds a live connection.
func (r *Registry) IsOnline(userID int64) bool {
	return r.Lookup(userID) != nil
}

// Snapshot returns the IDs of all currently connected users.
func (r *Registry) Snapshot() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	userIDs := make([]int64, 0, len(r.sessions))
	for id := range r.sessions {
		userIDs = append(userIDs, id)
	}
	return userIDs
}

// presenceLocked collects the online id set and the sessions to notify.
// Caller must hold r.mu.
func (r *Registry) presenceLocked() ([]int64, []*Session) {
	userIDs := make([]int64, 0, len(r.sessions))
	targets := make([]*Session, 0, len(r.sessions))
	for id, sess := range r.sessions {
		userIDs = append(userIDs, id)
		targets = append(targets, sess)
	}
	return userIDs, targets
}

// broadcastPresence pushes the full online id set to every session. The
// payload is always the complete set, not a diff, so clients replace
// their local view wholesale and cannot drift.
func broadcastPresence(userIDs []int64, targets []*Session) {
	env := models.NewEnvelope(models.EventOnlineUsers, userIDs)
	for _, sess := range targets {
		sess.Send(env)
	}
}
