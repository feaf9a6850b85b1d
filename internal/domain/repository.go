package domain

import (
	"context"
	"time"
)

// TrafficPoint is one persisted severity sample for a road segment.
type TrafficPoint struct {
	SegmentID   string    `json:"segment_id"`
	City        string    `json:"city"`
	Severity    float64   `json:"severity"`
	IntervalMin int       `json:"interval_min"`
	Timestamp   time.Time `json:"ts"`
}

// TrafficRepository persists live traffic samples and serves history.
// This follows the Dependency Inversion Principle - domain defines the interface
type TrafficRepository interface {
	// SaveTrafficPoint persists a single severity observation
	SaveTrafficPoint(ctx context.Context, point TrafficPoint) error

	// GetHistory returns the most recent severity values for a segment,
	// oldest first, up to limit entries
	GetHistory(ctx context.Context, segmentID, city string, intervalMin, limit int) ([]float64, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}

// CorridorStore holds corridor request state keyed by request id. Updates on
// the same id are serialized by the implementation.
type CorridorStore interface {
	// Put stores a freshly created request
	Put(ctx context.Context, req *CorridorRequest) error

	// Get returns the request or ErrNotFound
	Get(ctx context.Context, requestID string) (*CorridorRequest, error)

	// Update applies fn to the stored request under the store's lock,
	// or returns ErrNotFound for an unknown id
	Update(ctx context.Context, requestID string, fn func(*CorridorRequest)) (*CorridorRequest, error)
}

// RoadCache caches the stitched road network per city. A miss is normal
// control flow, not an error; Put is best-effort.
type RoadCache interface {
	Get(ctx context.Context, city string) (*RoadNetwork, bool)
	Put(ctx context.Context, network *RoadNetwork) error
	Invalidate(ctx context.Context, city string)
}
