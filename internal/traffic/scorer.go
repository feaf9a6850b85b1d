// Package traffic condenses live flow observations into per-route
// congestion scores.
package traffic

import (
	"context"
	"log"

	"github.com/margdarshak/backend/internal/domain"
	"github.com/margdarshak/backend/internal/provider"
	"github.com/margdarshak/backend/pkg/geoutils"
)

const (
	maxSamplePoints = 8

	// severity assumed when no live observation could be obtained
	defaultSeverityPct = 10.0
)

// Scorer averages live severity over strided samples of a route's path.
type Scorer struct {
	flow provider.FlowProvider
}

// NewScorer creates a route traffic scorer
func NewScorer(flow provider.FlowProvider) *Scorer {
	return &Scorer{flow: flow}
}

// Score samples up to 8 evenly-strided points along the route and averages
// the observed severity, clamped to [0,100]. Points without a usable
// severity fall back to a jam-factor-derived estimate; a route with no
// observations at all scores the 10% default.
func (s *Scorer) Score(ctx context.Context, route domain.Route) domain.TrafficScore {
	if s.flow == nil || len(route.Path) == 0 {
		return domain.TrafficScore{SeverityPct: defaultSeverityPct}
	}

	points := stride(route.Path, maxSamplePoints)

	var severitySum, jamSum float64
	var severityN, jamN int
	for _, p := range points {
		sample, err := s.flow.FlowAt(ctx, p.Lat, p.Lon)
		if err != nil {
			log.Printf("traffic: flow lookup at (%.5f, %.5f) failed: %v", p.Lat, p.Lon, err)
			continue
		}
		if sample.JamFactor > 0 {
			jamSum += sample.JamFactor
			jamN++
		}
		if sample.Severity > 0 {
			severitySum += sample.Severity
			severityN++
		}
	}

	score := domain.TrafficScore{}
	if jamN > 0 {
		score.AvgJamFactor = jamSum / float64(jamN)
	}
	switch {
	case severityN > 0:
		score.SeverityPct = severitySum / float64(severityN)
	case jamN > 0:
		// jam factor runs 0..10; scale to a percentage
		score.SeverityPct = score.AvgJamFactor * 10
	default:
		score.SeverityPct = defaultSeverityPct
	}
	score.SeverityPct = geoutils.Clamp(score.SeverityPct, 0, 100)
	return score
}

// stride picks up to maxN evenly spaced points, always including the first.
func stride(path []domain.Coordinate, maxN int) []domain.Coordinate {
	if len(path) <= maxN {
		return path
	}
	step := len(path) / maxN
	out := make([]domain.Coordinate, 0, maxN)
	for i := 0; i < len(path) && len(out) < maxN; i += step {
		out = append(out, path[i])
	}
	return out
}
