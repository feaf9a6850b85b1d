// Package sim generates per-segment traffic time series for a city so the
// dashboard and predictors have data before any real telemetry arrives.
package sim

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"

	"github.com/margdarshak/backend/internal/domain"
	"github.com/margdarshak/backend/internal/provider"
)

const (
	minSpatialPoints = 3
	maxSpatialPoints = 8

	// gaussian kernel width for spatial smoothing
	smoothSigma = 1.5
)

// RoadSource supplies road segments to simulate over.
type RoadSource interface {
	RoadsForCity(ctx context.Context, city string, maxRoads, targetSegments int) ([]domain.RoadSegment, error)
}

// WeatherSource supplies current conditions for the simulated city.
type WeatherSource interface {
	Current(ctx context.Context, city string) (domain.Weather, error)
}

// Row is one simulated observation at a spatial point and time step.
type Row struct {
	Segment      string  `json:"segment"`
	RoadName     string  `json:"road_name"`
	Time         int     `json:"time"`
	VehicleCount int     `json:"vehicle_count"`
	Speed        float64 `json:"speed"`
	Weather      string  `json:"weather"`
	TempC        float64 `json:"temp"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	LengthM      float64 `json:"length_m"`
}

// Series is a full simulation result plus the map center of the segments.
type Series struct {
	Rows      []Row   `json:"rows"`
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
}

// Simulator seeds baselines from live flow where available and layers
// smoothed spatial and sinusoidal temporal variation on top.
type Simulator struct {
	roads   RoadSource
	flow    provider.FlowProvider
	weather WeatherSource
	rand    *rand.Rand
}

// NewSimulator wires the simulator; flow and weather may be nil.
func NewSimulator(roads RoadSource, flow provider.FlowProvider, weather WeatherSource) *Simulator {
	return &Simulator{
		roads:   roads,
		flow:    flow,
		weather: weather,
		rand:    rand.New(rand.NewSource(rand.Int63())),
	}
}

// Run simulates numSegments road segments over timeSteps steps.
func (s *Simulator) Run(ctx context.Context, city string, numSegments, timeSteps int) (*Series, error) {
	if numSegments <= 0 {
		numSegments = 5
	}
	if timeSteps <= 0 {
		timeSteps = 10
	}

	maxRoads := numSegments * 3
	if maxRoads < 200 {
		maxRoads = 200
	}
	roads, err := s.roads.RoadsForCity(ctx, city, maxRoads, numSegments)
	if err != nil {
		return nil, fmt.Errorf("sim: loading roads for %s: %w", city, err)
	}
	if len(roads) > numSegments {
		roads = roads[:numSegments]
	}

	conditions := s.currentWeather(ctx, city)

	series := &Series{}
	var centerLatSum, centerLonSum float64
	for _, road := range roads {
		sampled := spatialSamples(road.Coordinates)
		speeds, counts := s.baselines(ctx, sampled)
		speeds = gaussianSmooth(speeds, smoothSigma)
		counts = gaussianSmooth(counts, smoothSigma)

		for t := 0; t < timeSteps; t++ {
			trend := 1 + 0.15*math.Sin(2*math.Pi*float64(t)/float64(timeSteps)+s.rand.Float64())
			for i, pt := range sampled {
				speed := speeds[i] * (1 + s.rand.NormFloat64()*0.08*trend)
				if speed < 1 {
					speed = 1
				}
				count := counts[i] * (1 + s.rand.NormFloat64()*0.12*trend)
				if count < 0 {
					count = 0
				}
				series.Rows = append(series.Rows, Row{
					Segment:      road.ID,
					RoadName:     road.Name,
					Time:         t,
					VehicleCount: int(count),
					Speed:        speed,
					Weather:      conditions.Condition,
					TempC:        conditions.TempC,
					Lat:          pt.Lat,
					Lon:          pt.Lon,
					LengthM:      road.LengthM,
				})
			}
		}

		cLat, cLon := centroid(road.Coordinates)
		centerLatSum += cLat
		centerLonSum += cLon
	}

	if len(roads) > 0 {
		series.CenterLat = centerLatSum / float64(len(roads))
		series.CenterLon = centerLonSum / float64(len(roads))
	}
	return series, nil
}

func (s *Simulator) currentWeather(ctx context.Context, city string) domain.Weather {
	if s.weather == nil {
		return domain.Weather{TempC: 25, Condition: "Clear", City: city, IsMock: true}
	}
	w, err := s.weather.Current(ctx, city)
	if err != nil {
		log.Printf("sim: weather lookup for %s failed: %v", city, err)
		return domain.Weather{TempC: 25, Condition: "Clear", City: city, IsMock: true}
	}
	return w
}

// baselines seeds per-point speed and vehicle-count baselines from live
// flow, with random values when no provider is available.
func (s *Simulator) baselines(ctx context.Context, points []domain.Coordinate) (speeds, counts []float64) {
	speeds = make([]float64, len(points))
	counts = make([]float64, len(points))
	for i, p := range points {
		var sample domain.TrafficSample
		var err error
		if s.flow != nil {
			sample, err = s.flow.FlowAt(ctx, p.Lat, p.Lon)
		}
		if s.flow == nil || err != nil {
			speeds[i] = 15 + s.rand.Float64()*40
			counts[i] = float64(5 + s.rand.Intn(115))
			continue
		}
		speeds[i] = sample.Speed
		if speeds[i] <= 0 {
			speeds[i] = 20 + s.rand.Float64()*30
		}
		counts[i] = math.Max(1, 20+sample.JamFactor*15+float64(s.rand.Intn(10)-5))
	}
	return speeds, counts
}

// spatialSamples picks 3..8 evenly spaced coordinates along the road.
func spatialSamples(coords []domain.Coordinate) []domain.Coordinate {
	if len(coords) == 0 {
		return nil
	}
	n := len(coords) / 2
	if n < minSpatialPoints {
		n = minSpatialPoints
	}
	if n > maxSpatialPoints {
		n = maxSpatialPoints
	}
	if n > len(coords) {
		n = len(coords)
	}
	out := make([]domain.Coordinate, 0, n)
	for i := 0; i < n; i++ {
		idx := 0
		if n > 1 {
			idx = i * (len(coords) - 1) / (n - 1)
		}
		out = append(out, coords[idx])
	}
	return out
}

// gaussianSmooth convolves values with a normalized gaussian kernel centered
// on each point, keeping the series length unchanged.
func gaussianSmooth(values []float64, sigma float64) []float64 {
	if len(values) < 2 {
		return values
	}
	half := float64(len(values)-1) / 2
	kernel := make([]float64, len(values))
	var kernelSum float64
	for i := range kernel {
		d := float64(i) - half
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		kernelSum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= kernelSum
	}

	out := make([]float64, len(values))
	center := len(kernel) / 2
	for i := range values {
		var sum, weight float64
		for k, kv := range kernel {
			j := i + k - center
			if j < 0 || j >= len(values) {
				continue
			}
			sum += values[j] * kv
			weight += kv
		}
		if weight > 0 {
			out[i] = sum / weight
		} else {
			out[i] = values[i]
		}
	}
	return out
}

func centroid(coords []domain.Coordinate) (float64, float64) {
	if len(coords) == 0 {
		return 0, 0
	}
	var latSum, lonSum float64
	for _, c := range coords {
		latSum += c.Lat
		lonSum += c.Lon
	}
	n := float64(len(coords))
	return latSum / n, lonSum / n
}
