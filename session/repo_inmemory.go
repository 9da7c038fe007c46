package session

import (
	"context"
	"errors"
	"sync"
)

// InMemoryRepo is a thread-safe in-memory implementation of Repo
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Data
}

// NewInMemoryRepo creates a new in-memory session repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]Data),
	}
}

// Get retrieves session data by session ID. Unknown sessions yield empty data.
func (r *InMemoryRepo) Get(_ context.Context, sessionID string) (Data, error) {
	if sessionID == "" {
		return Data{}, errors.New("sessionID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Return a copy to prevent external modifications
	return r.sessions[sessionID].clone(), nil
}

// Update applies fn to the session's data under the repository lock, creating
// the session when it does not exist. When fn returns an error nothing is
// stored.
func (r *InMemoryRepo) Update(_ context.Context, sessionID string, fn func(*Data) error) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data := r.sessions[sessionID].clone()
	if err := fn(&data); err != nil {
		return err
	}
	r.sessions[sessionID] = data
	return nil
}

// Delete removes a session entirely
func (r *InMemoryRepo) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}
