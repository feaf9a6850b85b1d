package routing

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/margdarshak/backend/internal/domain"
	"github.com/margdarshak/backend/internal/provider"
	"github.com/margdarshak/backend/pkg/geoutils"
)

const (
	// two routes are the same if distance, duration and endpoint all agree
	dupDistanceM    = 50.0
	dupDurationS    = 5.0
	dupEndpointSepM = 40.0

	maxNudgeAttempts = 12
)

// destination nudge magnitudes in degrees; negatives probe the other side
var nudgeMagnitudes = []float64{0.0006, 0.0009, 0.0018, 0.0025, -0.0009, -0.0018}

// each magnitude is tried along these (lat, lon) direction multipliers
var nudgeDirections = [][2]float64{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// origin jitters cycle alongside the destination nudges
var originJitters = [][2]float64{{0, 0}, {0.0006, 0}, {-0.0006, 0}, {0, 0.0006}, {0, -0.0006}}

// Synthesizer assembles a deduplicated set of distinct routes for a pair of
// coordinates: every path the providers hand back directly, topped up with
// nudged re-computations when the union falls short.
type Synthesizer struct {
	primary   provider.RouteProvider
	secondary provider.RouteProvider
	tertiary  provider.RouteProvider // nil when not configured
	racer     *Racer
}

// NewSynthesizer wires the synthesizer; tertiary may be nil.
func NewSynthesizer(primary, secondary, tertiary provider.RouteProvider, racer *Racer) *Synthesizer {
	return &Synthesizer{primary: primary, secondary: secondary, tertiary: tertiary, racer: racer}
}

// providerBatch tags one provider's response with its priority and the
// waypoint id prefix its routes carry.
type providerBatch struct {
	priority int
	prefix   string
	routes   []domain.Route
	err      error
	name     string
}

// Alternatives returns up to k+1 distinct routes (primary plus alternatives),
// ordered primary first. It fails only on invalid coordinates: a total
// provider outage is covered by the racer's fallback chain.
func (s *Synthesizer) Alternatives(ctx context.Context, origin, dest domain.Coordinate, k int) ([]domain.Route, error) {
	if !origin.Valid() || !dest.Valid() {
		return nil, domain.ErrInvalidCoordinate
	}
	if k < 0 {
		k = 0
	}
	limit := k + 1
	now := time.Now()

	routes := s.collectProviderRoutes(ctx, origin, dest, now)
	routes = dedupe(routes, limit)

	if len(routes) == 0 {
		base, err := s.racer.Compute(ctx, origin, dest)
		if err != nil {
			return nil, err
		}
		routes = append(routes, base)
	}

	routes = s.nudgeForMore(ctx, origin, dest, routes, limit)
	if len(routes) > limit {
		routes = routes[:limit]
	}
	return routes, nil
}

// collectProviderRoutes queries all configured providers concurrently and
// flattens their responses in priority order.
func (s *Synthesizer) collectProviderRoutes(ctx context.Context, origin, dest domain.Coordinate, now time.Time) []domain.Route {
	type query struct {
		p            provider.RouteProvider
		priority     int
		prefix       string
		alternatives bool
	}
	queries := []query{}
	if s.primary != nil {
		queries = append(queries, query{s.primary, 0, "INT_GH", false})
	}
	if s.secondary != nil {
		queries = append(queries, query{s.secondary, 1, "INT_OSRM", true})
	}
	if s.tertiary != nil {
		queries = append(queries, query{s.tertiary, 2, "INT_ORS", true})
	}

	batches := make([]providerBatch, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q query) {
			defer wg.Done()
			routes, err := q.p.FetchRoutes(ctx, origin, dest, q.alternatives)
			batches[i] = providerBatch{priority: q.priority, prefix: q.prefix, routes: routes, err: err, name: q.p.Name()}
		}(i, q)
	}
	wg.Wait()

	var out []domain.Route
	for _, b := range batches {
		if b.err != nil {
			log.Printf("routing: synthesizer skipping %s: %v", b.name, b.err)
			continue
		}
		for idx, route := range b.routes {
			if !route.Valid() {
				continue
			}
			prefix := b.prefix
			if b.priority > 0 {
				prefix = fmt.Sprintf("%s_%d", b.prefix, idx)
			}
			annotate(&route, prefix, now)
			out = append(out, route)
		}
	}
	return out
}

// nudgeForMore tops up the route set by re-racing slightly displaced
// coordinate pairs until the limit or the attempt budget is reached.
func (s *Synthesizer) nudgeForMore(ctx context.Context, origin, dest domain.Coordinate, routes []domain.Route, limit int) []domain.Route {
	if len(routes) >= limit || s.racer == nil {
		return routes
	}
	attempts := 0
	for _, mag := range nudgeMagnitudes {
		for _, dir := range nudgeDirections {
			if len(routes) >= limit || attempts >= maxNudgeAttempts {
				return routes
			}
			jitter := originJitters[attempts%len(originJitters)]
			attempts++

			nudgedOrigin := domain.Coordinate{Lat: origin.Lat + jitter[0], Lon: origin.Lon + jitter[1]}
			nudgedDest := domain.Coordinate{Lat: dest.Lat + mag*dir[0], Lon: dest.Lon + mag*dir[1]}
			if !nudgedOrigin.Valid() || !nudgedDest.Valid() {
				continue
			}

			route, err := s.racer.Compute(ctx, nudgedOrigin, nudgedDest)
			if err != nil {
				continue
			}
			if containsDuplicate(routes, route) {
				continue
			}
			routes = append(routes, route)
		}
	}
	return routes
}

// dedupe drops later routes that duplicate an earlier one, capped at limit.
func dedupe(routes []domain.Route, limit int) []domain.Route {
	out := make([]domain.Route, 0, limit)
	for _, r := range routes {
		if len(out) >= limit {
			break
		}
		if containsDuplicate(out, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func containsDuplicate(routes []domain.Route, candidate domain.Route) bool {
	for _, r := range routes {
		if isDuplicate(r, candidate) {
			return true
		}
	}
	return false
}

// isDuplicate applies the distance/duration/endpoint similarity test. The
// endpoint check only applies when both routes expose a path.
func isDuplicate(a, b domain.Route) bool {
	if math.Abs(a.DistanceM-b.DistanceM) >= dupDistanceM {
		return false
	}
	if math.Abs(a.DurationS-b.DurationS) >= dupDurationS {
		return false
	}
	aEnd, aOK := a.End()
	bEnd, bOK := b.End()
	if aOK && bOK {
		return geoutils.Distance(aEnd.Point(), bEnd.Point()) < dupEndpointSepM
	}
	return true
}
