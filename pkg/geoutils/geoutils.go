package geoutils

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b)
}

// Bearing returns the initial bearing from a to b in degrees [0, 360).
func Bearing(a, b orb.Point) float64 {
	br := geo.Bearing(a, b)
	return math.Mod(br+360, 360)
}

// AngleDiff returns the smallest absolute difference between two bearings
// in degrees [0, 180].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		return 360 - d
	}
	return d
}

// Interpolate returns n points evenly spaced on the straight segment from a
// to b, endpoints included. n < 2 yields just the endpoints.
func Interpolate(a, b orb.Point, n int) []orb.Point {
	if n < 2 {
		return []orb.Point{a, b}
	}
	pts := make([]orb.Point, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		pts = append(pts, orb.Point{
			Lerp(a[0], b[0], t),
			Lerp(a[1], b[1], t),
		})
	}
	return pts
}

// PathLength returns the cumulative great-circle length of a polyline in
// meters. Fewer than two points yields zero.
func PathLength(pts []orb.Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	return geo.LengthHaversine(orb.LineString(pts))
}

// Centroid returns the arithmetic mean of the polyline's points. This is the
// clustering centroid, not the geometric middle point.
func Centroid(pts []orb.Point) orb.Point {
	if len(pts) == 0 {
		return orb.Point{}
	}
	var lon, lat float64
	for _, p := range pts {
		lon += p[0]
		lat += p[1]
	}
	n := float64(len(pts))
	return orb.Point{lon / n, lat / n}
}

// Clamp limits a value between min and max
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// RoundTo rounds a float to specified decimal places
func RoundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// Lerp performs linear interpolation between two values
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// EncodePolyline encodes a path with the standard polyline algorithm at
// 1e-5 precision, the format route clients already consume.
func EncodePolyline(points []orb.Point) string {
	var buf []byte
	var prevLat, prevLon int64
	for _, p := range points {
		lat := int64(math.Round(p[1] * 1e5))
		lon := int64(math.Round(p[0] * 1e5))
		buf = appendPolylineValue(buf, lat-prevLat)
		buf = appendPolylineValue(buf, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return string(buf)
}

func appendPolylineValue(buf []byte, v int64) []byte {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		buf = append(buf, byte(0x20|(u&0x1f))+63)
		u >>= 5
	}
	return append(buf, byte(u)+63)
}
