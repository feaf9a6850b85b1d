// Package corridor plans and tracks emergency vehicle corridors: a primary
// route, traffic-aware alternatives and ETA-annotated waypoints per request.
package corridor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/margdarshak/backend/internal/domain"
)

const (
	// alternatives requested from the route synthesizer per corridor
	requestedAlternatives = 3

	// above this primary severity the operator sees two alternatives
	congestedSeverityPct = 50.0
)

// RoutePlanner produces candidate routes for a coordinate pair.
type RoutePlanner interface {
	Alternatives(ctx context.Context, origin, dest domain.Coordinate, k int) ([]domain.Route, error)
}

// TrafficScorer rates a single route's congestion.
type TrafficScorer interface {
	Score(ctx context.Context, route domain.Route) domain.TrafficScore
}

// Metrics counts corridor lifecycle events; nil disables instrumentation.
type Metrics interface {
	CorridorCreated()
	PositionUpdated()
}

// Planner owns the corridor request lifecycle.
type Planner struct {
	routes  RoutePlanner
	scorer  TrafficScorer
	store   domain.CorridorStore
	metrics Metrics
}

// NewPlanner wires the corridor planner; metrics may be nil.
func NewPlanner(routes RoutePlanner, scorer TrafficScorer, store domain.CorridorStore, m Metrics) *Planner {
	return &Planner{routes: routes, scorer: scorer, store: store, metrics: m}
}

// Create computes scored candidate routes for a new corridor, picks the
// cheapest as primary and stores the request in the active state.
func (p *Planner) Create(ctx context.Context, vehicleID string, origin, dest domain.Coordinate) (*domain.CorridorRequest, error) {
	if !origin.Valid() || !dest.Valid() {
		return nil, domain.ErrInvalidCoordinate
	}

	routes, err := p.routes.Alternatives(ctx, origin, dest, requestedAlternatives)
	if err != nil {
		return nil, fmt.Errorf("corridor: route synthesis failed: %w", err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("corridor: no candidate routes for (%f,%f)->(%f,%f)", origin.Lat, origin.Lon, dest.Lat, dest.Lon)
	}

	for i := range routes {
		score := p.scorer.Score(ctx, routes[i])
		routes[i].Traffic = score
		routes[i].BaseDurationS = routes[i].DurationS
		routes[i].DurationS *= delayMultiplier(score.SeverityPct)
	}
	sort.SliceStable(routes, func(i, j int) bool {
		return routeCost(routes[i]) < routeCost(routes[j])
	})

	primary := routes[0]
	req := &domain.CorridorRequest{
		RequestID:    uuid.NewString(),
		VehicleID:    vehicleID,
		Origin:       origin,
		Dest:         dest,
		Status:       domain.StatusActive,
		Route:        primary,
		AllRoutes:    routes,
		CorridorPlan: buildPlan(primary, routes[1:]),
		CreatedAt:    time.Now(),
	}

	if err := p.store.Put(ctx, req); err != nil {
		return nil, fmt.Errorf("corridor: storing request %s: %w", req.RequestID, err)
	}
	if p.metrics != nil {
		p.metrics.CorridorCreated()
	}
	return req, nil
}

// UpdatePosition overwrites the vehicle's last known position. The route and
// plan are left untouched; re-planning from a live position is a separate
// Create call.
func (p *Planner) UpdatePosition(ctx context.Context, requestID string, pos domain.Position) (*domain.CorridorRequest, error) {
	req, err := p.store.Update(ctx, requestID, func(r *domain.CorridorRequest) {
		r.LastPosition = pos
	})
	if err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.PositionUpdated()
	}
	return req, nil
}

// Status returns the stored corridor state or ErrNotFound.
func (p *Planner) Status(ctx context.Context, requestID string) (*domain.CorridorRequest, error) {
	return p.store.Get(ctx, requestID)
}

// delayMultiplier inflates travel time in proportion to congestion: +50% at
// full severity.
func delayMultiplier(severityPct float64) float64 {
	return 1 + (severityPct/100)*0.5
}

// routeCost ranks candidates by congestion-weighted duration.
func routeCost(r domain.Route) float64 {
	return r.DurationS * (1 + r.Traffic.SeverityPct/200)
}

// buildPlan assembles the operator-facing plan: the primary's waypoints with
// delay-scaled ETAs, plus the visible alternatives. Heavier congestion on
// the primary exposes one extra alternative.
func buildPlan(primary domain.Route, rest []domain.Route) domain.CorridorPlan {
	mult := delayMultiplier(primary.Traffic.SeverityPct)
	intersections := make([]domain.Waypoint, len(primary.Intersections))
	for i, wp := range primary.Intersections {
		scaled := wp.EtaS * mult
		wp.EtaEpoch += scaled - wp.EtaS
		wp.EtaS = scaled
		intersections[i] = wp
	}

	visible := 1
	if primary.Traffic.SeverityPct > congestedSeverityPct {
		visible = 2
	}
	if visible > len(rest) {
		visible = len(rest)
	}
	alternatives := make([]domain.AlternativeRoute, 0, visible)
	for i := 0; i < visible; i++ {
		alternatives = append(alternatives, domain.AlternativeRoute{
			ID:      fmt.Sprintf("alt_%d", i+1),
			Route:   rest[i],
			Traffic: rest[i].Traffic,
		})
	}
	return domain.CorridorPlan{Intersections: intersections, Alternatives: alternatives}
}
