package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"driftchat/database"
	"driftchat/middleware"
	"driftchat/models"
)

type sendMessageRequest struct {
	Text      string `json:"text"`
	Image     string `json:"image"`
	ReplyToID *int64 `json:"reply_to_id"`
}

// GetMessages returns the conversation between the current user and
// another user, oldest first
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	vars := mux.Vars(r)
	otherUserID, err := strconv.ParseInt(vars["userId"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	messages, err := database.GetMessagesBetweenUsers(user.ID, otherUserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get messages")
		return
	}

	if messages == nil {
		messages = []models.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// SendMessage persists a new message and attempts live delivery to the
// recipient's connection
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	vars := mux.Vars(r)
	receiverID, err := strconv.ParseInt(vars["userId"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Text == "" && req.Image == "" {
		writeError(w, http.StatusBadRequest, "Message text or image is required")
		return
	}

	if _, err := database.GetUserByID(receiverID); err != nil {
		writeError(w, http.StatusNotFound, "Recipient not found")
		return
	}

	image := ""
	if req.Image != "" {
		image, err = h.images.SaveDataURL(req.Image)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid image")
			return
		}
	}

	message, err := database.CreateMessage(user.ID, receiverID, req.Text, image, req.ReplyToID)
	if err != nil {
		logrus.WithError(err).Error("failed to create message")
		writeError(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	// Live delivery only after the message is durably stored.
	h.relay.Deliver(message)

	writeJSON(w, http.StatusCreated, message)
}
