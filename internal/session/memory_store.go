package session

import (
	"context"
	"sync"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryStore implements Store with in-process storage. Used when Redis is
// not configured, and by tests. Sessions expire lazily on access.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	ttl      time.Duration
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
	}
}

func (s *MemoryStore) Create(ctx context.Context, account *models.Account) (*models.Session, error) {
	sess := newSession(account)

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *sess
	s.sessions[sess.ID] = &stored
	return sess, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}
	if time.Since(sess.LastRequest) > s.ttl {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}

	sess.LastRequest = time.Now()
	copied := *sess
	return &copied, nil
}

func (s *MemoryStore) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) AddFlash(ctx context.Context, id, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return ErrNotFound
	}
	sess.Flash = append(sess.Flash, message)
	return nil
}

func (s *MemoryStore) ConsumeFlash(ctx context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}
	flash := sess.Flash
	sess.Flash = nil
	return flash, nil
}
