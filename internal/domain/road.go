package domain

// BoundingBox is a south/west/north/east box in degrees.
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Expand grows the box by deg degrees on every side.
func (b BoundingBox) Expand(deg float64) BoundingBox {
	return BoundingBox{
		South: b.South - deg,
		West:  b.West - deg,
		North: b.North + deg,
		East:  b.East + deg,
	}
}

// RoadSegment is a continuous, directionally consistent polyline of a named
// road. Immutable once constructed.
type RoadSegment struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Coordinates []Coordinate `json:"coordinates"`
	LengthM     float64      `json:"length_m"`
}

// RoadNetwork is the cached road set for one city.
type RoadNetwork struct {
	City  string        `json:"city"`
	Roads []RoadSegment `json:"roads"`
	BBox  BoundingBox   `json:"bbox"`
}

// WayFragment is a raw map-data way as returned by the map backend: a
// name/ref and its ordered geometry, before any stitching.
type WayFragment struct {
	ID          string
	Name        string
	Coordinates []Coordinate
}
