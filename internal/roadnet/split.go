package roadnet

import (
	"github.com/paulmach/orb"

	"github.com/margdarshak/backend/pkg/geoutils"
)

// splitPolylineEvenly splits a polyline into parts contiguous pieces spaced
// evenly by arc length. Each piece spans a small window of the original
// points around its target offset so local continuity is preserved; points
// are never resampled or interpolated.
func splitPolylineEvenly(coords []orb.Point, parts int) [][]orb.Point {
	if parts <= 1 || len(coords) < 2 {
		return [][]orb.Point{coords}
	}
	totalLen := geoutils.PathLength(coords)
	if totalLen == 0 {
		return [][]orb.Point{coords}
	}

	cum := make([]float64, len(coords))
	for i := 1; i < len(coords); i++ {
		cum[i] = cum[i-1] + geoutils.Distance(coords[i-1], coords[i])
	}

	pieces := make([][]orb.Point, 0, parts)
	for p := 0; p < parts; p++ {
		target := float64(p) * totalLen / float64(parts)
		k := 0
		for k < len(cum)-1 && cum[k+1] < target {
			k++
		}
		start := k - 1
		if start < 0 {
			start = 0
		}
		end := k + 2
		if end > len(coords)-1 {
			end = len(coords) - 1
		}
		piece := make([]orb.Point, 0, end-start+1)
		piece = append(piece, coords[start:end+1]...)
		if len(piece) < 2 {
			piece = []orb.Point{coords[0], coords[len(coords)-1]}
		}
		pieces = append(pieces, piece)
	}
	return pieces
}
