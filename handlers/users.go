package handlers

import (
	"net/http"

	"driftchat/database"
	"driftchat/middleware"
	"driftchat/models"
)

// GetUsers returns every other user for the sidebar, annotated with their
// online status from the presence registry
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	users, err := database.ListUsers(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get users")
		return
	}

	for i := range users {
		users[i].Online = h.registry.IsOnline(users[i].ID)
	}

	if users == nil {
		users = []models.UserResponse{}
	}
	writeJSON(w, http.StatusOK, users)
}

// SearchUsers searches users by username
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, []models.UserResponse{})
		return
	}

	users, err := database.SearchUsers(query, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	for i := range users {
		users[i].Online = h.registry.IsOnline(users[i].ID)
	}

	if users == nil {
		users = []models.UserResponse{}
	}
	writeJSON(w, http.StatusOK, users)
}
