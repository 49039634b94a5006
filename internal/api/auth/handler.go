package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/skillhunt/messaging-backend/internal/directory"
	"github.com/skillhunt/messaging-backend/internal/session"
	"github.com/skillhunt/messaging-backend/internal/storage/memory"
)

// Handler serves registration and login, issuing session tokens.
type Handler struct {
	Users    *memory.UserStore
	Sessions *session.Manager
	Names    *directory.Memory
}

type credentials struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Password    string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "hashing password", http.StatusInternalServerError)
		return
	}
	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Email
	}
	user, err := h.Users.Create(req.Email, displayName, string(hash))
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if h.Names != nil {
		h.Names.Put(user.ID, user.DisplayName)
	}
	log.Printf("[AUTH] registered user %s", user.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	user, ok := h.Users.GetByEmail(req.Email)
	if !ok {
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
		return
	}
	token, err := h.Sessions.Issue(user.ID)
	if err != nil {
		http.Error(w, "issuing session token", http.StatusInternalServerError)
		return
	}
	log.Printf("[AUTH] user %s logged in", user.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"token": token, "user": user})
}
