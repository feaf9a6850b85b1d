package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/margdarshak/backend/internal/domain"
	"github.com/margdarshak/backend/pkg/geoutils"
)

const (
	// assumed travel speed for geometric routes (~40 km/h)
	fallbackSpeedMps = 11.11

	snapSamplePoints = 36
	maxSnapDistM     = 400.0
	minSnapSpacingM  = 3.0
	destCloseM       = 10.0

	straightLinePoints = 20

	maxSnapCandidates = 5000
)

// RoadSource supplies cached road geometry for snapping.
type RoadSource interface {
	RoadsForCity(ctx context.Context, city string, maxRoads, targetSegments int) ([]domain.RoadSegment, error)
}

// GeometricFallback builds routes without any routing provider: first by
// snapping an interpolated line onto known road coordinates, then by raw
// straight-line interpolation.
type GeometricFallback struct {
	roads    RoadSource
	cityHint string
}

// NewGeometricFallback creates the last-resort route builder
func NewGeometricFallback(roads RoadSource, cityHint string) *GeometricFallback {
	return &GeometricFallback{roads: roads, cityHint: cityHint}
}

// Route returns a usable geometric route plus the tier that produced it,
// "snapped" or "straight". It never fails: a snapping error degrades to the
// straight-line tier.
func (g *GeometricFallback) Route(ctx context.Context, origin, dest domain.Coordinate, now time.Time) (domain.Route, string) {
	if route, err := g.snappedRoute(ctx, origin, dest, now); err == nil {
		return route, "snapped"
	}
	return g.straightRoute(origin, dest, now), "straight"
}

// snappedRoute interpolates points between origin and dest and pins each to
// the nearest cached road coordinate within the snap radius.
func (g *GeometricFallback) snappedRoute(ctx context.Context, origin, dest domain.Coordinate, now time.Time) (domain.Route, error) {
	if g.roads == nil {
		return domain.Route{}, fmt.Errorf("fallback: no road source configured")
	}
	segments, err := g.roads.RoadsForCity(ctx, g.cityHint, 400, 200)
	if err != nil {
		return domain.Route{}, fmt.Errorf("fallback: road lookup failed: %w", err)
	}

	candidates := make([]orb.Point, 0, maxSnapCandidates)
	for _, seg := range segments {
		for _, c := range seg.Coordinates {
			candidates = append(candidates, c.Point())
			if len(candidates) >= maxSnapCandidates {
				break
			}
		}
		if len(candidates) >= maxSnapCandidates {
			break
		}
	}
	if len(candidates) == 0 {
		return domain.Route{}, fmt.Errorf("fallback: no road coordinates available")
	}

	samples := geoutils.Interpolate(origin.Point(), dest.Point(), snapSamplePoints)
	snapped := make([]orb.Point, 0, len(samples))
	for _, s := range samples {
		pt := s
		if near, dist := nearestPoint(candidates, s); dist <= maxSnapDistM {
			pt = near
		}
		// skip points pinned onto the same road coordinate
		if len(snapped) > 0 && geoutils.Distance(pt, snapped[len(snapped)-1]) <= minSnapSpacingM {
			continue
		}
		snapped = append(snapped, pt)
	}
	destPt := dest.Point()
	if len(snapped) == 0 || geoutils.Distance(snapped[len(snapped)-1], destPt) > destCloseM {
		snapped = append(snapped, destPt)
	}

	return geometricRoute(snapped, "INT_SF", now), nil
}

// straightRoute is the unconditional last tier.
func (g *GeometricFallback) straightRoute(origin, dest domain.Coordinate, now time.Time) domain.Route {
	pts := geoutils.Interpolate(origin.Point(), dest.Point(), straightLinePoints)
	return geometricRoute(pts, "INT_SL", now)
}

// geometricRoute derives distance from cumulative great-circle length and
// duration from the assumed constant speed.
func geometricRoute(pts []orb.Point, prefix string, now time.Time) domain.Route {
	dist := geoutils.PathLength(pts)
	duration := dist / fallbackSpeedMps
	if duration < 1 {
		duration = 1
	}
	route := domain.Route{
		DistanceM: dist,
		DurationS: duration,
		Path:      domain.LineToPath(orb.LineString(pts)),
	}
	annotate(&route, prefix, now)
	return route
}

func nearestPoint(candidates []orb.Point, p orb.Point) (orb.Point, float64) {
	best := candidates[0]
	bestDist := geoutils.Distance(p, best)
	for _, c := range candidates[1:] {
		if d := geoutils.Distance(p, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}
