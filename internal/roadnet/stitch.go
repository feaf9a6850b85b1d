package roadnet

import (
	"github.com/paulmach/orb"

	"github.com/margdarshak/backend/pkg/geoutils"
)

// stitch joining thresholds. Endpoints must be close AND the adjoining
// segment bearings must align, so perpendicular or unrelated fragments that
// merely share a name are never merged.
const (
	stitchThreshM   = 60.0
	angleThreshDeg  = 35.0
	clusterThreshM  = 2000.0
	reorderAbsGapM  = 200.0
	reorderGapRatio = 5.0
)

// orderIfNeeded keeps the fragment's point order unless an internal gap is
// large enough to indicate badly ordered geometry, in which case it performs
// a local nearest-neighbor re-order within the fragment only.
func orderIfNeeded(coords []orb.Point) []orb.Point {
	out := make([]orb.Point, len(coords))
	copy(out, coords)
	if len(coords) < 3 {
		return out
	}

	var maxGap, sumGap float64
	for i := 0; i < len(coords)-1; i++ {
		g := geoutils.Distance(coords[i], coords[i+1])
		sumGap += g
		if g > maxGap {
			maxGap = g
		}
	}
	avgGap := sumGap / float64(len(coords)-1)
	threshold := reorderAbsGapM
	if r := reorderGapRatio * avgGap; r > threshold {
		threshold = r
	}
	if maxGap < threshold {
		return out
	}

	remaining := out[1:]
	ordered := make([]orb.Point, 0, len(out))
	ordered = append(ordered, out[0])
	for len(remaining) > 0 {
		last := ordered[len(ordered)-1]
		nearest := 0
		nearestDist := geoutils.Distance(last, remaining[0])
		for i := 1; i < len(remaining); i++ {
			if d := geoutils.Distance(last, remaining[i]); d < nearestDist {
				nearest, nearestDist = i, d
			}
		}
		ordered = append(ordered, remaining[nearest])
		remaining = append(remaining[:nearest], remaining[nearest+1:]...)
	}
	return ordered
}

// clusterByCentroid groups fragment indices by centroid proximity so
// geographically distant same-named ways are never considered together.
func clusterByCentroid(fragments [][]orb.Point, threshM float64) [][]int {
	centroids := make([]orb.Point, len(fragments))
	for i, f := range fragments {
		centroids[i] = geoutils.Centroid(f)
	}

	var clusters [][]int
	for i, c := range centroids {
		placed := false
		for ci, cl := range clusters {
			if geoutils.Distance(c, centroids[cl[0]]) <= threshM {
				clusters[ci] = append(cl, i)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []int{i})
		}
	}
	return clusters
}

// joinOp describes a candidate attachment of one fragment onto the base.
type joinOp struct {
	frag    int
	prepend bool
	reverse bool
}

// endBearing returns the bearing of the polyline's last segment (a→b into
// the endpoint) or first segment reversed, depending on direction.
func endBearing(line []orb.Point, fromStart bool) float64 {
	if len(line) < 2 {
		return 0
	}
	if fromStart {
		// leaving the first point backwards
		return geoutils.Bearing(line[1], line[0])
	}
	return geoutils.Bearing(line[len(line)-2], line[len(line)-1])
}

// startBearing returns the bearing with which a candidate fragment departs
// its joining endpoint.
func startBearing(line []orb.Point, reversed bool) float64 {
	if len(line) < 2 {
		return 0
	}
	if reversed {
		return geoutils.Bearing(line[len(line)-1], line[len(line)-2])
	}
	return geoutils.Bearing(line[0], line[1])
}

// findJoin looks for a fragment that can attach to either end of base under
// the distance and bearing constraints.
func findJoin(base []orb.Point, fragments [][]orb.Point, used []bool, stitchM, angleDeg float64) (joinOp, bool) {
	for j := range fragments {
		if used[j] {
			continue
		}
		cand := orderIfNeeded(fragments[j])
		candStart, candEnd := cand[0], cand[len(cand)-1]
		baseStart, baseEnd := base[0], base[len(base)-1]

		combos := []struct {
			basePt, candPt   orb.Point
			prepend, reverse bool
		}{
			{baseEnd, candStart, false, false},
			{baseEnd, candEnd, false, true},
			{baseStart, candEnd, true, false},
			{baseStart, candStart, true, true},
		}

		for _, c := range combos {
			if geoutils.Distance(c.basePt, c.candPt) > stitchM {
				continue
			}
			baseBear := endBearing(base, c.prepend)
			candBear := startBearing(cand, c.reverse)
			if geoutils.AngleDiff(baseBear, candBear) <= angleDeg {
				return joinOp{frag: j, prepend: c.prepend, reverse: c.reverse}, true
			}
		}
	}
	return joinOp{}, false
}

// applyJoin attaches the chosen fragment to base, dropping a duplicated
// shared endpoint when the two lines touch exactly.
func applyJoin(base []orb.Point, frag []orb.Point, op joinOp) []orb.Point {
	coords := make([]orb.Point, len(frag))
	copy(coords, frag)
	if op.reverse {
		for i, j := 0, len(coords)-1; i < j; i, j = i+1, j-1 {
			coords[i], coords[j] = coords[j], coords[i]
		}
	}
	if op.prepend {
		if geoutils.Distance(base[0], coords[len(coords)-1]) < 1e-6 {
			coords = coords[:len(coords)-1]
		}
		return append(coords, base...)
	}
	if geoutils.Distance(base[len(base)-1], coords[0]) < 1e-6 {
		coords = coords[1:]
	}
	return append(base, coords...)
}

// stitchFragments merges same-named way fragments into continuous polylines.
// Fragments are clustered first; within a cluster, fragments join end-to-end
// greedily while an attachable neighbor exists.
func stitchFragments(fragments [][]orb.Point, stitchM, angleDeg, clusterM float64) [][]orb.Point {
	if len(fragments) == 0 {
		return nil
	}

	var stitched [][]orb.Point
	for _, cluster := range clusterByCentroid(fragments, clusterM) {
		frags := make([][]orb.Point, len(cluster))
		for i, idx := range cluster {
			frags[i] = fragments[idx]
		}
		used := make([]bool, len(frags))

		for i := range frags {
			if used[i] {
				continue
			}
			base := orderIfNeeded(frags[i])
			used[i] = true
			for {
				op, ok := findJoin(base, frags, used, stitchM, angleDeg)
				if !ok {
					break
				}
				joined := orderIfNeeded(frags[op.frag])
				base = applyJoin(base, joined, op)
				used[op.frag] = true
			}
			stitched = append(stitched, base)
		}
	}
	return stitched
}
