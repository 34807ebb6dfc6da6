package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InMemoryStore implements SessionStore with process-local storage.
// Sessions do not survive a restart; that is intentional.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *zap.Logger
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore(logger *zap.Logger) *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// newSessionID combines a random component with a time component so that
// identifiers stay unique across the process lifetime.
func newSessionID() string {
	return fmt.Sprintf("session_%s_%d", uuid.NewString(), time.Now().UnixNano())
}

// GetOrCreate returns the session for id when it exists, otherwise a blank
// session under a fresh identifier. The bool reports whether the session is new.
func (s *InMemoryStore) GetOrCreate(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if session, exists := s.sessions[id]; exists {
			return session, false
		}
	}

	session := &Session{
		ID:        newSessionID(),
		History:   []Message{},
		CreatedAt: time.Now(),
	}
	s.sessions[session.ID] = session

	s.logger.Debug("Created session", zap.String("session_id", session.ID))
	return session, true
}

// Get retrieves a session by ID
func (s *InMemoryStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, NewSessionNotFoundError(id)
	}

	return session, nil
}

// Delete removes a session; deleting an absent id is a no-op
func (s *InMemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}

// SweepExpired removes every session strictly older than maxAge and
// returns how many were removed. Sessions aged exactly maxAge are kept.
func (s *InMemoryStore) SweepExpired(maxAge time.Duration) int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if now.Sub(session.CreatedAt) > maxAge {
			delete(s.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info("Swept expired sessions",
			zap.Int("removed", removed),
			zap.Int("remaining", len(s.sessions)))
	}

	return removed
}

// Len reports the number of live sessions
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// StartSweeper runs SweepExpired every interval until ctx is cancelled.
// It runs independently of request handling and never blocks it.
func (s *InMemoryStore) StartSweeper(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepExpired(maxAge)
			}
		}
	}()
}
