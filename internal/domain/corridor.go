package domain

import "time"

// CorridorStatus is the lifecycle state of an emergency corridor request.
type CorridorStatus string

const (
	StatusActive    CorridorStatus = "active"
	StatusCompleted CorridorStatus = "completed"
	StatusCancelled CorridorStatus = "cancelled"
)

// Position is the latest reported vehicle position. Speed/bearing/timestamp
// are optional in GPS updates.
type Position struct {
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	SpeedMps   *float64 `json:"speed_mps,omitempty"`
	BearingDeg *float64 `json:"bearing_deg,omitempty"`
	Ts         *float64 `json:"ts,omitempty"`
}

// AlternativeRoute is a candidate route exposed to the operator alongside
// the primary.
type AlternativeRoute struct {
	ID      string       `json:"id"`
	Route   Route        `json:"route"`
	Traffic TrafficScore `json:"traffic"`
}

// CorridorPlan is the time-annotated plan for the primary route.
type CorridorPlan struct {
	Intersections []Waypoint         `json:"intersections"`
	Alternatives  []AlternativeRoute `json:"alternatives"`
}

// CorridorRequest is the full state of one emergency corridor. Owned by the
// corridor planner; AllRoutes is cost-sorted and never empty, and Route is
// always AllRoutes[0].
type CorridorRequest struct {
	RequestID    string         `json:"request_id"`
	VehicleID    string         `json:"vehicle_id"`
	Origin       Coordinate     `json:"origin"`
	Dest         Coordinate     `json:"dest"`
	Status       CorridorStatus `json:"status"`
	Route        Route          `json:"route"`
	AllRoutes    []Route        `json:"routes_all"`
	CorridorPlan CorridorPlan   `json:"corridor_plan"`
	LastPosition Position       `json:"last_position"`
	CreatedAt    time.Time      `json:"created_at"`
}
