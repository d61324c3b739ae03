// Package handlers wires HTTP routes to the database and the realtime
// core.
package handlers

import (
	"encoding/json"
	"net/http"

	"driftchat/realtime"
	"driftchat/storage"
)

// Handler bundles the dependencies shared by all routes. The presence
// registry and relay are injected here instead of living as package
// globals so their lifecycle is owned by main.
type Handler struct {
	registry *realtime.Registry
	relay    *realtime.Relay
	images   *storage.ImageStore
}

// New creates the route handler set.
func New(registry *realtime.Registry, relay *realtime.Relay, images *storage.ImageStore) *Handler {
	return &Handler{
		registry: registry,
		relay:    relay,
		images:   images,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
