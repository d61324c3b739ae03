package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"driftchat/models"
)

// APIClient talks to the chat server's REST API. It carries the auth
// cookie across calls and satisfies HistoryFetcher and MessageSender for
// a ConversationView.
type APIClient struct {
	baseURL string
	http    *http.Client
}

// NewAPIClient creates a client for the server at baseURL
// (e.g. "http://localhost:8080").
func NewAPIClient(baseURL string) *APIClient {
	jar, _ := cookiejar.New(nil)
	return &APIClient{
		baseURL: baseURL,
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
	}
}

type credentials struct {
	FullName string `json:"full_name,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers an account and stores the auth cookie.
func (c *APIClient) Signup(fullName, username, email, password string) (*models.UserResponse, error) {
	var user models.UserResponse
	err := c.post("/api/auth/signup", credentials{
		FullName: fullName, Username: username, Email: email, Password: password,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates with email or username and stores the auth cookie.
func (c *APIClient) Login(emailOrUsername, password string) (*models.UserResponse, error) {
	var user models.UserResponse
	err := c.post("/api/auth/login", credentials{Email: emailOrUsername, Password: password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FetchUsers returns the sidebar user list with online flags.
func (c *APIClient) FetchUsers() ([]models.UserResponse, error) {
	var users []models.UserResponse
	if err := c.get("/api/messages/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FetchMessages returns the conversation with peerID, oldest first.
func (c *APIClient) FetchMessages(peerID int64) ([]models.Message, error) {
	var msgs []models.Message
	if err := c.get(fmt.Sprintf("/api/messages/%d", peerID), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage persists a draft addressed to peerID.
func (c *APIClient) SendMessage(peerID int64, draft Draft) (*models.Message, error) {
	body := map[string]interface{}{
		"text":  draft.Text,
		"image": draft.Image,
	}
	if draft.ReplyToID != nil {
		body["reply_to_id"] = *draft.ReplyToID
	}

	var msg models.Message
	if err := c.post(fmt.Sprintf("/api/messages/send/%d", peerID), body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *APIClient) get(path string, out interface{}) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *APIClient) post(path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var (
	_ HistoryFetcher = (*APIClient)(nil)
	_ MessageSender  = (*APIClient)(nil)
)
