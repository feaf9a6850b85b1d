package roadnet

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/margdarshak/backend/pkg/geoutils"
)

// eastwardLine builds a west-to-east polyline starting at (lat, lon) with
// the given number of ~100m steps.
func eastwardLine(lat, lon float64, steps int) []orb.Point {
	const stepDeg = 0.001 // ~105m of longitude at Mumbai's latitude
	line := make([]orb.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		line = append(line, orb.Point{lon + float64(i)*stepDeg, lat})
	}
	return line
}

func TestStitchJoinsAlignedNearbyFragments(t *testing.T) {
	// two collinear fragments, gap ~10m, bearings identical
	a := eastwardLine(19.07, 72.870, 3)
	b := eastwardLine(19.07, 72.8731, 3) // starts ~10m past a's end

	gap := geoutils.Distance(a[len(a)-1], b[0])
	if gap > 15 {
		t.Fatalf("test setup: gap = %.1f m, want ~10 m", gap)
	}

	out := stitchFragments([][]orb.Point{a, b}, stitchThreshM, angleThreshDeg, clusterThreshM)
	if len(out) != 1 {
		t.Fatalf("expected one stitched polyline, got %d", len(out))
	}
	if len(out[0]) != len(a)+len(b) {
		t.Errorf("stitched polyline has %d points, want %d", len(out[0]), len(a)+len(b))
	}
}

func TestStitchRejectsDistantFragments(t *testing.T) {
	// same bearing but ~500m gap: never joined
	a := eastwardLine(19.07, 72.870, 3)
	b := eastwardLine(19.07, 72.8778, 3)

	gap := geoutils.Distance(a[len(a)-1], b[0])
	if gap < 400 {
		t.Fatalf("test setup: gap = %.1f m, want ~500 m", gap)
	}

	out := stitchFragments([][]orb.Point{a, b}, stitchThreshM, angleThreshDeg, clusterThreshM)
	if len(out) != 2 {
		t.Fatalf("distant fragments must stay separate, got %d polylines", len(out))
	}
}

func TestStitchRejectsPerpendicularFragments(t *testing.T) {
	// endpoints touch but the candidate runs due north: bearing gate rejects
	a := eastwardLine(19.07, 72.870, 3)
	end := a[len(a)-1]
	b := []orb.Point{
		{end[0] + 0.00005, end[1]},
		{end[0] + 0.00005, end[1] + 0.001},
		{end[0] + 0.00005, end[1] + 0.002},
	}

	out := stitchFragments([][]orb.Point{a, b}, stitchThreshM, angleThreshDeg, clusterThreshM)
	if len(out) != 2 {
		t.Fatalf("perpendicular fragments must stay separate, got %d polylines", len(out))
	}
}

func TestStitchJoinsReversedFragment(t *testing.T) {
	a := eastwardLine(19.07, 72.870, 3)
	b := eastwardLine(19.07, 72.8731, 3)
	// reverse b so its *end* touches a's end
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}

	out := stitchFragments([][]orb.Point{a, b}, stitchThreshM, angleThreshDeg, clusterThreshM)
	if len(out) != 1 {
		t.Fatalf("expected reversed fragment to be joined, got %d polylines", len(out))
	}
	// resulting polyline must be monotonic west-to-east
	pts := out[0]
	for i := 1; i < len(pts); i++ {
		if pts[i][0] < pts[i-1][0] {
			t.Fatalf("stitched polyline not directionally consistent at %d", i)
		}
	}
}

func TestClusterSeparatesDistantSameNamedWays(t *testing.T) {
	// two same-named roads ~20km apart must land in different clusters
	north := eastwardLine(19.25, 72.87, 3)
	south := eastwardLine(19.05, 72.87, 3)

	clusters := clusterByCentroid([][]orb.Point{north, south}, clusterThreshM)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
}

func TestOrderIfNeededKeepsGoodOrder(t *testing.T) {
	line := eastwardLine(19.07, 72.87, 5)
	out := orderIfNeeded(line)
	for i := range line {
		if out[i] != line[i] {
			t.Fatalf("well-ordered line must be preserved, differs at %d", i)
		}
	}
}

func TestOrderIfNeededReordersScrambledPoints(t *testing.T) {
	line := eastwardLine(19.07, 72.87, 40)
	scrambled := make([]orb.Point, len(line))
	copy(scrambled, line)
	// swap two far-apart points to create a huge internal gap
	scrambled[1], scrambled[38] = scrambled[38], scrambled[1]

	out := orderIfNeeded(scrambled)
	for i := 1; i < len(out); i++ {
		if geoutils.Distance(out[i-1], out[i]) > 250 {
			t.Fatalf("re-ordered line still has a %0.fm gap at %d",
				geoutils.Distance(out[i-1], out[i]), i)
		}
	}
}

func TestSplitPolylineEvenly(t *testing.T) {
	line := eastwardLine(19.07, 72.87, 40) // ~4.2km

	pieces := splitPolylineEvenly(line, 4)
	if len(pieces) != 4 {
		t.Fatalf("expected 4 pieces, got %d", len(pieces))
	}
	for i, p := range pieces {
		if len(p) < 2 {
			t.Errorf("piece %d has %d points, want >=2", i, len(p))
		}
		// pieces are windows of original points, never interpolated
		for _, pt := range p {
			found := false
			for _, orig := range line {
				if pt == orig {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("piece %d contains interpolated point %v", i, pt)
			}
		}
	}

	if got := splitPolylineEvenly(line, 1); len(got) != 1 {
		t.Errorf("parts=1 must return the original polyline")
	}
}
