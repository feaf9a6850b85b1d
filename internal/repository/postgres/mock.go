package postgres

import (
	"context"
	"sort"
	"sync"

	"github.com/margdarshak/backend/internal/domain"
)

// MockRepository implements domain.TrafficRepository in memory for
// demo mode and tests
type MockRepository struct {
	mu     sync.Mutex
	points []domain.TrafficPoint
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SaveTrafficPoint appends the observation in memory
func (r *MockRepository) SaveTrafficPoint(ctx context.Context, point domain.TrafficPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, point)
	return nil
}

// GetHistory returns stored severities for the segment, oldest first
func (r *MockRepository) GetHistory(ctx context.Context, segmentID, city string, intervalMin, limit int) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []domain.TrafficPoint
	for _, p := range r.points {
		if p.SegmentID == segmentID && p.City == city && p.IntervalMin == intervalMin {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.Before(matched[j].Timestamp) })
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}

	out := make([]float64, 0, len(matched))
	for _, p := range matched {
		out = append(out, p.Severity)
	}
	return out, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
