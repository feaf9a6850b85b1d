package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/margdarshak/backend/internal/domain"
)

// TrafficRepository implements domain.TrafficRepository on PostgreSQL
type TrafficRepository struct {
	pool *pgxpool.Pool
}

// NewTrafficRepository creates a new PostgreSQL traffic repository
func NewTrafficRepository(pool *pgxpool.Pool) *TrafficRepository {
	return &TrafficRepository{pool: pool}
}

// SaveTrafficPoint persists a single severity observation
func (r *TrafficRepository) SaveTrafficPoint(ctx context.Context, point domain.TrafficPoint) error {
	query := `
		INSERT INTO traffic_points (
			segment_id, city, severity, interval_min, ts
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		point.SegmentID, point.City, point.Severity, point.IntervalMin, point.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save traffic point: %w", err)
	}

	return nil
}

// GetHistory returns the most recent severity values for a segment, oldest
// first, up to limit entries
func (r *TrafficRepository) GetHistory(ctx context.Context, segmentID, city string, intervalMin, limit int) ([]float64, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT severity FROM (
			SELECT severity, ts
			FROM traffic_points
			WHERE segment_id = $1 AND city = $2 AND interval_min = $3
			ORDER BY ts DESC
			LIMIT $4
		) recent
		ORDER BY ts ASC
	`

	rows, err := r.pool.Query(ctx, query, segmentID, city, intervalMin, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query traffic history: %w", err)
	}
	defer rows.Close()

	var results []float64
	for rows.Next() {
		var severity float64
		if err := rows.Scan(&severity); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan traffic row: %w", err)
		}
		results = append(results, severity)
	}

	return results, nil
}

// Health checks database connectivity
func (r *TrafficRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
