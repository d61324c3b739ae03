package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"driftchat/database"
	"driftchat/middleware"
)

type signupRequest struct {
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"` // email or username
	Password string `json:"password"`
}

type updateProfileRequest struct {
	FullName   string `json:"full_name"`
	Username   string `json:"username"`
	ProfilePic string `json:"profile_pic"`
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Signup handles user registration
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.FullName == "" || req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if len(req.Username) < 3 || len(req.Username) > 30 {
		writeError(w, http.StatusBadRequest, "Username must be 3-30 characters")
		return
	}
	if !usernameRe.MatchString(req.Username) {
		writeError(w, http.StatusBadRequest, "Username can only contain letters, numbers, and underscores")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	if _, err := database.GetUserByEmail(req.Email); err == nil {
		writeError(w, http.StatusConflict, "Email already exists")
		return
	}
	if _, err := database.GetUserByUsername(req.Username); err == nil {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	user, err := database.CreateUser(req.Username, req.FullName, req.Email, string(hashed))
	if err != nil {
		logrus.WithError(err).Error("failed to create user")
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	if err := middleware.GenerateToken(w, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	writeJSON(w, http.StatusCreated, user.ToResponse())
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	// Allow login with either email or username
	user, err := database.GetUserByEmail(strings.ToLower(req.Email))
	if err != nil {
		user, err = database.GetUserByUsername(req.Email)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := middleware.GenerateToken(w, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, user.ToResponse())
}

// Logout clears the auth cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearToken(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Check returns the current authenticated user
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, user.ToResponse())
}

// UpdateProfile updates profile picture, full name and username
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fullName = user.FullName
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = user.Username
	} else if username != user.Username {
		if len(username) < 3 || len(username) > 30 || !usernameRe.MatchString(username) {
			writeError(w, http.StatusBadRequest, "Invalid username")
			return
		}
		if _, err := database.GetUserByUsername(username); err == nil {
			writeError(w, http.StatusConflict, "Username already taken")
			return
		}
	}

	profilePic := user.ProfilePic
	if req.ProfilePic != "" {
		saved, err := h.images.SaveDataURL(req.ProfilePic)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid profile picture")
			return
		}
		profilePic = saved
	}

	updated, err := database.UpdateProfile(user.ID, fullName, username, profilePic)
	if err != nil {
		logrus.WithError(err).Error("failed to update profile")
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, updated.ToResponse())
}
