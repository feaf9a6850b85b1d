package corridor

import (
	"context"
	"sync"

	"github.com/margdarshak/backend/internal/domain"
)

// MemoryStore keeps corridor requests in process memory. Updates on the
// same request id are serialized by the store mutex; readers get copies so
// a concurrent update can never expose partial state.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*domain.CorridorRequest
}

// NewMemoryStore creates an empty in-memory corridor store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string]*domain.CorridorRequest)}
}

func (s *MemoryStore) Put(ctx context.Context, req *domain.CorridorRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *req
	s.requests[req.RequestID] = &stored
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, requestID string) (*domain.CorridorRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *req
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, requestID string, fn func(*domain.CorridorRequest)) (*domain.CorridorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	fn(req)
	out := *req
	return &out, nil
}
