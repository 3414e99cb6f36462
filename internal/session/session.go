package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"patient-portal/internal/models"
)

// UserKey is the storage key holding the JSON-serialized current user.
const UserKey = "user"

// Storage is the persistent key/value store the session writes through to.
type Storage interface {
	// GetItem returns the stored value and whether the key exists.
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Context holds the authenticated patient for the whole process. It is loaded
// once at start-up and every change is persisted before the setter returns.
type Context struct {
	mu            sync.RWMutex
	storage       Storage
	user          *models.User
	authenticated bool
	listeners     []func(*models.User)
}

// Load reads the persisted user from storage. A missing entry means nobody is
// logged in. An entry that no longer decodes is removed and treated the same.
func Load(ctx context.Context, storage Storage) (*Context, error) {
	s := &Context{storage: storage}

	raw, ok, err := storage.GetItem(ctx, UserKey)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok || raw == "" || raw == "null" {
		return s, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		if rmErr := storage.RemoveItem(ctx, UserKey); rmErr != nil {
			return nil, fmt.Errorf("discard unreadable session: %w", rmErr)
		}
		return s, nil
	}
	s.user = &user
	s.authenticated = true
	return s, nil
}

// CurrentUser returns a copy of the logged-in user, or nil.
func (s *Context) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// IsAuthenticated reports whether a user is logged in.
func (s *Context) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// SetCurrentUser replaces the current user and persists it. nil logs out and
// removes the stored entry. The in-memory state only changes once storage
// accepted the write.
func (s *Context) SetCurrentUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()

	if user == nil {
		if err := s.storage.RemoveItem(ctx, UserKey); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("clear session: %w", err)
		}
	} else {
		raw, err := json.Marshal(user)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("encode session: %w", err)
		}
		if err := s.storage.SetItem(ctx, UserKey, string(raw)); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("persist session: %w", err)
		}
	}

	s.user = user.Clone()
	s.authenticated = user != nil
	listeners := make([]func(*models.User), len(s.listeners))
	copy(listeners, s.listeners)
	current := s.user.Clone()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(current.Clone())
	}
	return nil
}

// Logout clears the current user.
func (s *Context) Logout(ctx context.Context) error {
	return s.SetCurrentUser(ctx, nil)
}

// OnChange registers fn to run after every successful SetCurrentUser.
func (s *Context) OnChange(fn func(*models.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
