// Package provider contains one adapter per third-party backend. Each
// adapter translates that backend's payload into the canonical domain types
// or returns a structured ProviderError; nothing downstream of this package
// branches on provider identity.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/margdarshak/backend/internal/domain"
)

// RouteProvider computes one or more drivable routes between two points.
// Implementations return routes with distance, duration and path populated;
// waypoint annotation happens in the routing layer.
type RouteProvider interface {
	// Name identifies the provider in logs, metrics and waypoint ids
	Name() string

	// FetchRoutes returns at least one route or an error. When
	// alternatives is set, providers that support multiple paths per
	// call return all of them.
	FetchRoutes(ctx context.Context, origin, dest domain.Coordinate, alternatives bool) ([]domain.Route, error)
}

// FlowProvider returns a live traffic observation near a point.
type FlowProvider interface {
	FlowAt(ctx context.Context, lat, lon float64) (domain.TrafficSample, error)
}

// MapDataProvider returns raw road-way fragments inside a bounding box.
type MapDataProvider interface {
	Ways(ctx context.Context, bbox domain.BoundingBox) ([]domain.WayFragment, error)
}

// Geocoder resolves free-text place names.
type Geocoder interface {
	// Locate returns a representative point for the place
	Locate(ctx context.Context, place string) (domain.Coordinate, string, error)

	// BoundingBox returns the place's bounding box
	BoundingBox(ctx context.Context, place string) (domain.BoundingBox, error)
}

// doWithRetry runs fn up to retries+1 times with exponential backoff,
// retrying only failures a ProviderError marks retryable (429/5xx).
func doWithRetry(ctx context.Context, retries int, backoff time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var pe *domain.ProviderError
		if !errors.As(lastErr, &pe) || !pe.Retryable() || attempt == retries {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return lastErr
}

// pathFromLonLat converts a [[lon, lat], ...] coordinate array into a path.
func pathFromLonLat(coords [][]float64) []domain.Coordinate {
	path := make([]domain.Coordinate, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		path = append(path, domain.Coordinate{Lat: c[1], Lon: c[0]})
	}
	return path
}
