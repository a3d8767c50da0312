package client

import (
	"slices"
	"sync"

	"github.com/xela07ax/webapi-auth-demo/internal/domain"
)

// MemoryStore — Store в памяти процесса.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]any)}
}

func (s *MemoryStore) Save(token string, user domain.UserIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Roles = slices.Clone(user.Roles)
	s.entries[TokenKey] = token
	s.entries[UserKey] = user
	return nil
}

func (s *MemoryStore) Load() (*ClientSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, okToken := s.entries[TokenKey].(string)
	user, okUser := s.entries[UserKey].(domain.UserIdentity)
	if !okToken || !okUser || token == "" {
		return nil, ErrNoSession
	}
	user.Roles = slices.Clone(user.Roles)
	return &ClientSession{Token: token, User: user}, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, TokenKey)
	delete(s.entries, UserKey)
	return nil
}
