// Package routing races route providers against a shared deadline and
// guarantees a usable route through a geometric fallback chain.
package routing

import (
	"fmt"
	"time"

	"github.com/margdarshak/backend/internal/domain"
	"github.com/margdarshak/backend/pkg/geoutils"
)

// corridor waypoints sit at fixed fractional offsets along the path
var waypointFractions = []float64{0.25, 0.5, 0.75}

// waypointsFor produces ETA-annotated waypoints at the fractional offsets.
// The index of the chosen path point is floor(frac * (n-1)). A degenerate
// single-point path yields one zero-ETA waypoint at that point.
func waypointsFor(path []domain.Coordinate, durationS float64, prefix string, now time.Time) []domain.Waypoint {
	nowEpoch := float64(now.Unix())
	n := len(path)
	if n < 2 {
		if n == 0 {
			return nil
		}
		return []domain.Waypoint{{
			ID:       fmt.Sprintf("%s_1", prefix),
			Lat:      path[0].Lat,
			Lon:      path[0].Lon,
			EtaS:     0,
			EtaEpoch: nowEpoch,
		}}
	}

	waypoints := make([]domain.Waypoint, 0, len(waypointFractions))
	for i, frac := range waypointFractions {
		idx := int(frac * float64(n-1))
		if idx > n-1 {
			idx = n - 1
		}
		pt := path[idx]
		etaS := durationS * frac
		waypoints = append(waypoints, domain.Waypoint{
			ID:       fmt.Sprintf("%s_%d", prefix, i+1),
			Lat:      pt.Lat,
			Lon:      pt.Lon,
			EtaS:     etaS,
			EtaEpoch: nowEpoch + etaS,
		})
	}
	return waypoints
}

// annotate fills in a route's waypoints and encoded polyline in place.
func annotate(r *domain.Route, prefix string, now time.Time) {
	r.Intersections = waypointsFor(r.Path, r.DurationS, prefix, now)
	if r.Polyline == "" {
		r.Polyline = geoutils.EncodePolyline(domain.PathToLine(r.Path))
	}
}
