package match

import (
	"context"
	"errors"
	"sync"
)

// ErrDuplicateMatch is returned by Store.Create when the id is already taken.
var ErrDuplicateMatch = errors.New("match id already exists")

// Store persists whole Match records. Put overwrites the full object; callers
// never patch fields in place.
type Store interface {
	Create(ctx context.Context, m *Match) error
	Get(ctx context.Context, matchID string) (*Match, error)
	Put(ctx context.Context, m *Match) error
}

// MemoryStore keeps matches in process memory for the lifetime of the
// process. Matches are not visible to other instances, so deployments with
// more than one replica must use RedisStore instead.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[string]*Match
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{matches: make(map[string]*Match)}
}

// Create inserts a new match.
func (s *MemoryStore) Create(_ context.Context, m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.matches[m.ID]; exists {
		return ErrDuplicateMatch
	}
	s.matches[m.ID] = m.Clone()
	return nil
}

// Get returns a copy of the stored match.
func (s *MemoryStore) Get(_ context.Context, matchID string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m.Clone(), nil
}

// Put replaces an existing match.
func (s *MemoryStore) Put(_ context.Context, m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[m.ID]; !ok {
		return ErrMatchNotFound
	}
	s.matches[m.ID] = m.Clone()
	return nil
}

// Len reports how many matches are held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}
