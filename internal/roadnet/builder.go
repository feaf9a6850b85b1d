// Package roadnet acquires raw way fragments for a city, stitches them into
// continuous polylines and serves the result from a city-keyed cache. The
// pipeline never returns an empty road set: when the map backend yields
// nothing it falls back to a synthetic grid covering the bounding box.
package roadnet

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/margdarshak/backend/internal/domain"
	"github.com/margdarshak/backend/internal/provider"
	"github.com/margdarshak/backend/pkg/geoutils"
)

const (
	expandStepDeg = 0.01
	maxExpandDeg  = 0.10

	// roads longer than this get split into ~equal arc-length pieces
	splitLengthM = 2000.0
)

// fallbackBBox covers greater Mumbai; used when geocoding fails.
var fallbackBBox = domain.BoundingBox{South: 18.85, West: 72.65, North: 19.35, East: 73.1}

// Builder produces the stitched road network for a city.
type Builder struct {
	mapData  provider.MapDataProvider
	geocoder provider.Geocoder
	cache    domain.RoadCache
}

// NewBuilder creates a road network builder
func NewBuilder(mapData provider.MapDataProvider, geocoder provider.Geocoder, cache domain.RoadCache) *Builder {
	return &Builder{mapData: mapData, geocoder: geocoder, cache: cache}
}

// RoadsForCity returns up to maxRoads stitched segments for the city,
// splitting long roads as needed to reach targetSegments. Results are cached
// per city; cache failures are non-fatal.
func (b *Builder) RoadsForCity(ctx context.Context, city string, maxRoads, targetSegments int) ([]domain.RoadSegment, error) {
	if maxRoads <= 0 {
		maxRoads = 200
	}
	if targetSegments <= 0 {
		targetSegments = maxRoads
	}

	if b.cache != nil {
		if network, ok := b.cache.Get(ctx, city); ok {
			want := targetSegments
			if maxRoads < want {
				want = maxRoads
			}
			if len(network.Roads) >= want {
				roads := network.Roads
				if len(roads) > maxRoads {
					roads = roads[:maxRoads]
				}
				return roads, nil
			}
		}
	}

	network, err := b.build(ctx, city, maxRoads, targetSegments)
	if err != nil {
		return nil, err
	}

	if b.cache != nil {
		if err := b.cache.Put(ctx, network); err != nil {
			log.Printf("roadnet: failed to cache roads for %s: %v", city, err)
		}
	}
	return network.Roads, nil
}

func (b *Builder) build(ctx context.Context, city string, maxRoads, targetSegments int) (*domain.RoadNetwork, error) {
	base := b.resolveBBox(ctx, city)

	var merged []domain.RoadSegment
	var bbox domain.BoundingBox
	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		expand := float64(step) * expandStepDeg
		bbox = base.Expand(expand)
		fragments := b.fetchFragments(ctx, bbox, maxRoads)
		merged = mergeFragments(fragments)
		if len(merged) >= targetSegments || expand >= maxExpandDeg {
			break
		}
	}

	roads := reachTargetCount(merged, targetSegments)
	if len(roads) > maxRoads {
		sort.Slice(roads, func(i, j int) bool { return roads[i].LengthM > roads[j].LengthM })
		roads = roads[:maxRoads]
	}

	return &domain.RoadNetwork{
		City:  city,
		Roads: roads,
		BBox:  boundsOf(roads, bbox),
	}, nil
}

// resolveBBox geocodes the city, falling back to the hardcoded box.
func (b *Builder) resolveBBox(ctx context.Context, city string) domain.BoundingBox {
	if b.geocoder == nil {
		return fallbackBBox
	}
	bbox, err := b.geocoder.BoundingBox(ctx, city)
	if err != nil {
		log.Printf("roadnet: geocoding %q failed, using fallback bbox: %v", city, err)
		return fallbackBBox
	}
	return bbox
}

// fetchFragments queries the map backend, substituting a synthetic grid when
// the query fails or comes back empty.
func (b *Builder) fetchFragments(ctx context.Context, bbox domain.BoundingBox, maxRoads int) []domain.WayFragment {
	var fragments []domain.WayFragment
	if b.mapData != nil {
		var err error
		fragments, err = b.mapData.Ways(ctx, bbox)
		if err != nil {
			log.Printf("roadnet: map-data query failed: %v", err)
			fragments = nil
		}
	}
	if len(fragments) == 0 {
		fragments = syntheticGrid(bbox, maxRoads)
	}
	return fragments
}

// mergeFragments groups raw ways by name, stitches each group and sorts the
// merged roads by length descending.
func mergeFragments(fragments []domain.WayFragment) []domain.RoadSegment {
	groups := make(map[string][][]orb.Point)
	order := make([]string, 0)
	for _, f := range fragments {
		if len(f.Coordinates) < 2 {
			continue
		}
		if _, seen := groups[f.Name]; !seen {
			order = append(order, f.Name)
		}
		groups[f.Name] = append(groups[f.Name], domain.PathToLine(f.Coordinates))
	}

	var merged []domain.RoadSegment
	for _, name := range order {
		stitched := stitchFragments(groups[name], stitchThreshM, angleThreshDeg, clusterThreshM)
		for idx, poly := range stitched {
			if len(poly) < 2 {
				continue
			}
			shortName := name
			if len(shortName) > 30 {
				shortName = shortName[:30]
			}
			merged = append(merged, domain.RoadSegment{
				ID:          fmt.Sprintf("merged_%s_%d", shortName, idx),
				Name:        name,
				Coordinates: domain.LineToPath(poly),
				LengthM:     geoutils.PathLength(poly),
			})
		}
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].LengthM > merged[j].LengthM })
	return merged
}

// reachTargetCount splits the longest roads into arc-length pieces until the
// target is met, then pads with remaining whole roads if still short.
func reachTargetCount(roads []domain.RoadSegment, target int) []domain.RoadSegment {
	result := make([]domain.RoadSegment, 0, target)
	for _, r := range roads {
		if len(result) >= target {
			break
		}
		remaining := target - len(result)
		parts := 1
		if r.LengthM > splitLengthM && remaining > 1 {
			est := int(math.Round(r.LengthM / splitLengthM))
			if est > remaining {
				est = remaining
			}
			if est > 1 {
				parts = est
			}
		}
		line := domain.PathToLine(r.Coordinates)
		for i, piece := range splitPolylineEvenly(line, parts) {
			if len(result) >= target {
				break
			}
			result = append(result, domain.RoadSegment{
				ID:          fmt.Sprintf("%s_part_%d", r.ID, i),
				Name:        r.Name,
				Coordinates: domain.LineToPath(piece),
				LengthM:     geoutils.PathLength(piece),
			})
		}
	}

	if len(result) < target {
		included := make(map[string]bool, len(result))
		for _, seg := range result {
			included[seg.ID] = true
		}
		for _, r := range roads {
			if len(result) >= target {
				break
			}
			if included[r.ID+"_part_0"] || included[r.ID] {
				continue
			}
			result = append(result, r)
		}
	}
	return result
}

// syntheticGrid fabricates horizontal and vertical line segments covering
// the box so the pipeline never returns empty.
func syntheticGrid(bbox domain.BoundingBox, maxRoads int) []domain.WayFragment {
	latSpan := bbox.North - bbox.South
	lonSpan := bbox.East - bbox.West
	numLines := int(math.Sqrt(float64(maxRoads) / 4))
	if numLines < 2 {
		numLines = 2
	}
	const numPoints = 6

	var fragments []domain.WayFragment
	for i := 0; i < numLines && len(fragments) < maxRoads; i++ {
		lat := bbox.South + float64(i+1)*latSpan/float64(numLines+1)
		coords := make([]domain.Coordinate, 0, numPoints)
		for k := 0; k < numPoints; k++ {
			coords = append(coords, domain.Coordinate{
				Lat: lat,
				Lon: bbox.West + lonSpan*float64(k)/float64(numPoints-1),
			})
		}
		fragments = append(fragments, domain.WayFragment{
			ID:          fmt.Sprintf("synthetic_H_%d", len(fragments)),
			Name:        fmt.Sprintf("Synthetic H Road %d", i),
			Coordinates: coords,
		})
	}
	for j := 0; j < numLines && len(fragments) < maxRoads; j++ {
		lon := bbox.West + float64(j+1)*lonSpan/float64(numLines+1)
		coords := make([]domain.Coordinate, 0, numPoints)
		for k := 0; k < numPoints; k++ {
			coords = append(coords, domain.Coordinate{
				Lat: bbox.South + latSpan*float64(k)/float64(numPoints-1),
				Lon: lon,
			})
		}
		fragments = append(fragments, domain.WayFragment{
			ID:          fmt.Sprintf("synthetic_V_%d", len(fragments)),
			Name:        fmt.Sprintf("Synthetic V Road %d", j),
			Coordinates: coords,
		})
	}
	return fragments
}

// boundsOf computes the min/max box over all road coordinates, defaulting to
// the query box for empty input.
func boundsOf(roads []domain.RoadSegment, fallback domain.BoundingBox) domain.BoundingBox {
	first := true
	var out domain.BoundingBox
	for _, r := range roads {
		for _, c := range r.Coordinates {
			if first {
				out = domain.BoundingBox{South: c.Lat, West: c.Lon, North: c.Lat, East: c.Lon}
				first = false
				continue
			}
			if c.Lat < out.South {
				out.South = c.Lat
			}
			if c.Lat > out.North {
				out.North = c.Lat
			}
			if c.Lon < out.West {
				out.West = c.Lon
			}
			if c.Lon > out.East {
				out.East = c.Lon
			}
		}
	}
	if first {
		return fallback
	}
	return out
}
