package domain

import "github.com/paulmach/orb"

// Coordinate is a WGS84 point. The zero value (0,0) is treated as a
// missing/placeholder position and is never accepted as input.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate is inside lat/lon bounds and is not
// the (0,0) placeholder.
func (c Coordinate) Valid() bool {
	if c.Lat == 0 && c.Lon == 0 {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Point converts to an orb point (lon/lat order).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// FromPoint converts an orb point (lon/lat order) back to a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lon: p.Lon()}
}

// PathToLine converts a coordinate path to an orb line string.
func PathToLine(path []Coordinate) orb.LineString {
	line := make(orb.LineString, 0, len(path))
	for _, c := range path {
		line = append(line, c.Point())
	}
	return line
}

// LineToPath converts an orb line string to a coordinate path.
func LineToPath(line orb.LineString) []Coordinate {
	path := make([]Coordinate, 0, len(line))
	for _, p := range line {
		path = append(path, FromPoint(p))
	}
	return path
}

// Waypoint is a timed point along a route (a corridor intersection).
type Waypoint struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	EtaS     float64 `json:"eta_s"`
	EtaEpoch float64 `json:"eta_epoch"`
}

// TrafficScore is a route-level congestion summary.
type TrafficScore struct {
	AvgJamFactor float64 `json:"avg_jam_factor"`
	SeverityPct  float64 `json:"severity_pct"`
}

// TrafficSample is a single live flow observation at a point.
type TrafficSample struct {
	Speed      float64 `json:"speed"`
	JamFactor  float64 `json:"jamFactor"`
	TravelTime float64 `json:"travel_time"`
	Severity   float64 `json:"severity"`
}

// Route is the canonical drivable route representation. DurationS is the
// traffic-adjusted travel time once scoring has been applied; BaseDurationS
// keeps the provider's raw value for transparency.
type Route struct {
	DistanceM     float64      `json:"distance_m"`
	DurationS     float64      `json:"duration_s"`
	BaseDurationS float64      `json:"duration_s_base,omitempty"`
	Polyline      string       `json:"polyline"`
	Path          []Coordinate `json:"path"`
	Intersections []Waypoint   `json:"intersections"`
	Traffic       TrafficScore `json:"traffic"`
}

// Valid reports whether the route is structurally usable: a path of at least
// two points and non-negative distance/duration.
func (r Route) Valid() bool {
	return len(r.Path) >= 2 && r.DistanceM >= 0 && r.DurationS >= 0
}

// End returns the final path point, or false for an empty path.
func (r Route) End() (Coordinate, bool) {
	if len(r.Path) == 0 {
		return Coordinate{}, false
	}
	return r.Path[len(r.Path)-1], true
}
