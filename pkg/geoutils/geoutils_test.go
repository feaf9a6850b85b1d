package geoutils

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestDistance(t *testing.T) {
	// Mumbai CST to Gateway of India, roughly 1.9km
	a := orb.Point{72.8355, 18.9398}
	b := orb.Point{72.8347, 18.9220}
	d := Distance(a, b)
	if d < 1800 || d > 2100 {
		t.Errorf("Distance = %.1f m, want roughly 1.9-2.0 km", d)
	}
	if Distance(a, a) != 0 {
		t.Errorf("Distance to self must be 0, got %f", Distance(a, a))
	}
}

func TestBearing(t *testing.T) {
	origin := orb.Point{72.87, 19.07}
	north := orb.Point{72.87, 19.17}
	east := orb.Point{72.97, 19.07}

	if br := Bearing(origin, north); math.Abs(br) > 1 && math.Abs(br-360) > 1 {
		t.Errorf("bearing due north = %.2f, want ~0", br)
	}
	if br := Bearing(origin, east); math.Abs(br-90) > 1 {
		t.Errorf("bearing due east = %.2f, want ~90", br)
	}
}

func TestAngleDiff(t *testing.T) {
	cases := []struct{ a, b, want float64 }{
		{10, 20, 10},
		{350, 10, 20},
		{0, 180, 180},
		{90, 90, 0},
		{355, 5, 10},
	}
	for _, c := range cases {
		if got := AngleDiff(c.a, c.b); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("AngleDiff(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestInterpolate(t *testing.T) {
	a := orb.Point{72.0, 19.0}
	b := orb.Point{73.0, 20.0}

	pts := Interpolate(a, b, 5)
	if len(pts) != 5 {
		t.Fatalf("expected 5 points, got %d", len(pts))
	}
	if pts[0] != a || pts[4] != b {
		t.Errorf("endpoints not preserved: %v ... %v", pts[0], pts[4])
	}
	mid := pts[2]
	if math.Abs(mid[0]-72.5) > 1e-9 || math.Abs(mid[1]-19.5) > 1e-9 {
		t.Errorf("midpoint = %v, want (72.5, 19.5)", mid)
	}

	if got := Interpolate(a, b, 1); len(got) != 2 {
		t.Errorf("n<2 must yield endpoints, got %d points", len(got))
	}
}

func TestPathLength(t *testing.T) {
	a := orb.Point{72.87, 19.07}
	b := orb.Point{72.90, 19.10}
	direct := Distance(a, b)
	viaPoints := PathLength(Interpolate(a, b, 10))
	// collinear interpolation should be within a fraction of a percent
	if math.Abs(viaPoints-direct) > direct*0.01 {
		t.Errorf("PathLength over interpolated line = %.1f, direct = %.1f", viaPoints, direct)
	}
	if PathLength([]orb.Point{a}) != 0 {
		t.Error("single point path must have zero length")
	}
}

func TestCentroid(t *testing.T) {
	pts := []orb.Point{{72, 19}, {74, 21}}
	c := Centroid(pts)
	if c[0] != 73 || c[1] != 20 {
		t.Errorf("Centroid = %v, want (73, 20)", c)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(150, 0, 100) != 100 {
		t.Error("clamp above max")
	}
	if Clamp(-5, 0, 100) != 0 {
		t.Error("clamp below min")
	}
	if Clamp(42, 0, 100) != 42 {
		t.Error("clamp inside range")
	}
}

func TestEncodePolyline(t *testing.T) {
	// reference vector from the polyline format specification
	pts := []orb.Point{{-120.2, 38.5}, {-120.95, 40.7}, {-126.453, 43.252}}
	got := EncodePolyline(pts)
	want := "_p~iF~ps|U_ulLnnqC_mqNvxq`@"
	if got != want {
		t.Errorf("EncodePolyline = %q, want %q", got, want)
	}
	if EncodePolyline(nil) != "" {
		t.Error("empty path must encode to an empty string")
	}
}
