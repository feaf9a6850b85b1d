package sim

import (
	"context"
	"math"
	"testing"

	"github.com/margdarshak/backend/internal/domain"
)

type fakeRoads struct {
	segments []domain.RoadSegment
}

func (f *fakeRoads) RoadsForCity(ctx context.Context, city string, maxRoads, targetSegments int) ([]domain.RoadSegment, error) {
	return f.segments, nil
}

type fakeFlow struct{}

func (fakeFlow) FlowAt(ctx context.Context, lat, lon float64) (domain.TrafficSample, error) {
	return domain.TrafficSample{Speed: 40, JamFactor: 3}, nil
}

func testSegments() []domain.RoadSegment {
	coords := make([]domain.Coordinate, 0, 20)
	for i := 0; i < 20; i++ {
		coords = append(coords, domain.Coordinate{Lat: 19.07, Lon: 72.87 + float64(i)*0.001})
	}
	return []domain.RoadSegment{
		{ID: "seg-1", Name: "Link Road", Coordinates: coords, LengthM: 2100},
		{ID: "seg-2", Name: "Hill Road", Coordinates: coords[:6], LengthM: 520},
	}
}

func TestSimulatorProducesRowsForEverySegmentAndStep(t *testing.T) {
	s := NewSimulator(&fakeRoads{segments: testSegments()}, fakeFlow{}, nil)

	series, err := s.Run(context.Background(), "Mumbai", 2, 5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(series.Rows) == 0 {
		t.Fatal("empty series")
	}

	steps := map[string]map[int]int{}
	for _, row := range series.Rows {
		if row.Speed < 1 {
			t.Errorf("speed %.2f below floor", row.Speed)
		}
		if row.VehicleCount < 0 {
			t.Errorf("negative vehicle count %d", row.VehicleCount)
		}
		if row.LengthM <= 0 {
			t.Errorf("missing segment length in row for %s", row.Segment)
		}
		if steps[row.Segment] == nil {
			steps[row.Segment] = map[int]int{}
		}
		steps[row.Segment][row.Time]++
	}
	for _, id := range []string{"seg-1", "seg-2"} {
		if len(steps[id]) != 5 {
			t.Errorf("segment %s covered %d time steps, want 5", id, len(steps[id]))
		}
	}

	// spatial sampling is capped
	perStep := steps["seg-1"][0]
	if perStep < 3 || perStep > 8 {
		t.Errorf("seg-1 has %d spatial points per step, want 3..8", perStep)
	}

	if math.Abs(series.CenterLat-19.07) > 0.01 {
		t.Errorf("center latitude %.4f far from the segments", series.CenterLat)
	}
}

func TestSimulatorSurvivesMissingProviders(t *testing.T) {
	s := NewSimulator(&fakeRoads{segments: testSegments()}, nil, nil)

	series, err := s.Run(context.Background(), "Mumbai", 2, 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, row := range series.Rows {
		if row.Weather == "" {
			t.Error("rows must carry a weather condition even without a provider")
		}
		if row.Speed < 1 {
			t.Errorf("speed %.2f below floor", row.Speed)
		}
	}
}

func TestGaussianSmoothPullsTowardNeighbors(t *testing.T) {
	in := []float64{10, 10, 100, 10, 10}
	out := gaussianSmooth(in, 1.5)
	if len(out) != len(in) {
		t.Fatalf("length changed: %d", len(out))
	}
	if out[2] >= 100 {
		t.Errorf("peak not smoothed: %.1f", out[2])
	}
	if out[0] <= 10 {
		t.Errorf("neighbors not lifted: %.1f", out[0])
	}
}
