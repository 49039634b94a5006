package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/skillhunt/messaging-backend/internal/models"
)

// UserStore manages registered users in memory.
type UserStore struct {
	mu      sync.RWMutex
	users   map[string]*models.User // userID -> user
	byEmail map[string]string       // email -> userID
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

// Create registers a new user. The email must be unused.
func (s *UserStore) Create(email, displayName, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return nil, fmt.Errorf("%w: email already registered", models.ErrValidation)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
	}
	s.users[user.ID] = user
	s.byEmail[email] = user.ID
	return user, nil
}

// Get returns the user by id.
func (s *UserStore) Get(userID string) (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	return user, ok
}

// GetByEmail returns the user registered under the email.
func (s *UserStore) GetByEmail(email string) (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, false
	}
	return s.users[id], true
}
