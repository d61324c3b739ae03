package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"driftchat/middleware"
)

// Router builds the full route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/signup", h.Signup).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	auth.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	auth.Handle("/check", middleware.Auth(http.HandlerFunc(h.Check))).Methods(http.MethodGet)
	auth.Handle("/update-profile", middleware.Auth(http.HandlerFunc(h.UpdateProfile))).Methods(http.MethodPut)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/messages/users", middleware.Auth(http.HandlerFunc(h.GetUsers))).Methods(http.MethodGet)
	api.Handle("/messages/send/{userId:[0-9]+}", middleware.Auth(http.HandlerFunc(h.SendMessage))).Methods(http.MethodPost)
	api.Handle("/messages/{userId:[0-9]+}", middleware.Auth(http.HandlerFunc(h.GetMessages))).Methods(http.MethodGet)
	api.Handle("/users/search", middleware.Auth(http.HandlerFunc(h.SearchUsers))).Methods(http.MethodGet)

	r.HandleFunc("/ws", h.HandleWebSocket)

	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.images.Dir()))))

	return r
}
