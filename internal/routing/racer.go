package routing

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/margdarshak/backend/internal/domain"
	"github.com/margdarshak/backend/internal/provider"
)

// Metrics receives racing outcomes. Implementations must be safe for
// concurrent use; a nil Metrics disables instrumentation.
type Metrics interface {
	RaceWin(provider string)
	ProviderFailure(provider string)
	FallbackUsed(tier string)
	ObserveRace(d time.Duration)
}

// raceResult is the tagged message each adapter goroutine pushes onto the
// shared completion channel.
type raceResult struct {
	provider string
	priority int
	routes   []domain.Route
	err      error
}

// Racer launches all configured providers concurrently and returns the
// first structurally valid response by arrival, with a priority-ordered
// drain at the deadline. Its Compute contract never fails for valid input:
// total provider outage falls through to the geometric tiers.
type Racer struct {
	providers []provider.RouteProvider // priority order: primary first
	fallback  *GeometricFallback
	deadline  time.Duration
	metrics   Metrics
}

// NewRacer creates a racer over the given providers, primary first.
func NewRacer(fallback *GeometricFallback, deadline time.Duration, m Metrics, providers ...provider.RouteProvider) *Racer {
	return &Racer{
		providers: providers,
		fallback:  fallback,
		deadline:  deadline,
		metrics:   m,
	}
}

// Compute returns exactly one route for a valid origin/dest pair. Provider
// failures are logged and absorbed; only coordinate validation can fail.
func (r *Racer) Compute(ctx context.Context, origin, dest domain.Coordinate) (domain.Route, error) {
	if !origin.Valid() || !dest.Valid() {
		return domain.Route{}, domain.ErrInvalidCoordinate
	}

	start := time.Now()
	route, err := r.race(ctx, origin, dest)
	if r.metrics != nil {
		r.metrics.ObserveRace(time.Since(start))
	}

	now := time.Now()
	if err == nil {
		annotate(&route, "INT", now)
		return route, nil
	}

	log.Printf("routing: providers failed or timed out: %v -- falling back to snapping/straight", err)
	fallbackRoute, tier := r.fallback.Route(ctx, origin, dest, now)
	if r.metrics != nil {
		r.metrics.FallbackUsed(tier)
	}
	return fallbackRoute, nil
}

// race runs one racing round under the shared deadline.
func (r *Racer) race(ctx context.Context, origin, dest domain.Coordinate) (domain.Route, error) {
	if len(r.providers) == 0 {
		return domain.Route{}, fmt.Errorf("no providers configured")
	}

	raceCtx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()

	// buffered so abandoned stragglers never block or touch shared state
	results := make(chan raceResult, len(r.providers))
	for i, p := range r.providers {
		go func(p provider.RouteProvider, priority int) {
			routes, err := p.FetchRoutes(raceCtx, origin, dest, false)
			results <- raceResult{provider: p.Name(), priority: priority, routes: routes, err: err}
		}(p, i)
	}

	failures := make([]string, 0, len(r.providers))
	pending := len(r.providers)
	for pending > 0 {
		select {
		case res := <-results:
			pending--
			if route, ok := r.consider(res, &failures); ok {
				return route, nil
			}
		case <-raceCtx.Done():
			// deadline: drain whatever is already buffered, highest
			// priority first, then give up on stragglers
			buffered := drain(results)
			for _, res := range buffered {
				if route, ok := r.consider(res, &failures); ok {
					return route, nil
				}
			}
			return domain.Route{}, fmt.Errorf("no provider returned a valid route in time (%s)", strings.Join(failures, "; "))
		}
	}
	return domain.Route{}, fmt.Errorf("all providers failed (%s)", strings.Join(failures, "; "))
}

// consider validates one tagged result, recording failures.
func (r *Racer) consider(res raceResult, failures *[]string) (domain.Route, bool) {
	if res.err != nil {
		log.Printf("routing: provider %s failed: %v", res.provider, res.err)
		if r.metrics != nil {
			r.metrics.ProviderFailure(res.provider)
		}
		*failures = append(*failures, fmt.Sprintf("%s: %v", res.provider, res.err))
		return domain.Route{}, false
	}
	for _, route := range res.routes {
		if route.Valid() {
			if r.metrics != nil {
				r.metrics.RaceWin(res.provider)
			}
			return route, true
		}
	}
	*failures = append(*failures, fmt.Sprintf("%s: returned no valid route", res.provider))
	return domain.Route{}, false
}

// drain empties the buffered channel without blocking and orders the
// results by provider priority.
func drain(ch chan raceResult) []raceResult {
	var out []raceResult
	for {
		select {
		case res := <-ch:
			out = append(out, res)
		default:
			// insertion sort by priority; at most three entrants
			for i := 1; i < len(out); i++ {
				for j := i; j > 0 && out[j].priority < out[j-1].priority; j-- {
					out[j], out[j-1] = out[j-1], out[j]
				}
			}
			return out
		}
	}
}
