package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/margdarshak/backend/internal/domain"
	"github.com/margdarshak/backend/internal/provider"
	"github.com/margdarshak/backend/internal/sim"
)

// RouteComputer produces a single best route.
type RouteComputer interface {
	Compute(ctx context.Context, origin, dest domain.Coordinate) (domain.Route, error)
}

// CorridorPlanner owns emergency corridor state.
type CorridorPlanner interface {
	Create(ctx context.Context, vehicleID string, origin, dest domain.Coordinate) (*domain.CorridorRequest, error)
	UpdatePosition(ctx context.Context, requestID string, pos domain.Position) (*domain.CorridorRequest, error)
	Status(ctx context.Context, requestID string) (*domain.CorridorRequest, error)
}

// RoadLister serves the stitched road network.
type RoadLister interface {
	RoadsForCity(ctx context.Context, city string, maxRoads, targetSegments int) ([]domain.RoadSegment, error)
}

// WeatherSource returns current conditions for a city.
type WeatherSource interface {
	Current(ctx context.Context, city string) (domain.Weather, error)
}

// TrafficSimulator generates per-segment traffic series.
type TrafficSimulator interface {
	Run(ctx context.Context, city string, numSegments, timeSteps int) (*sim.Series, error)
}

// PositionPublisher streams corridor position updates; nil disables it.
type PositionPublisher interface {
	PublishPosition(req *domain.CorridorRequest) error
}

// AuthConfig carries the credentials the API accepts.
type AuthConfig struct {
	APIKey        string
	JWTSecret     string
	AdminUser     string
	AdminPassword string
}

// Handler contains all HTTP handlers
type Handler struct {
	routes    RouteComputer
	planner   CorridorPlanner
	roads     RoadLister
	geocoder  provider.Geocoder
	flow      provider.FlowProvider
	weather   WeatherSource
	simulator TrafficSimulator
	repo      domain.TrafficRepository
	publisher PositionPublisher
	auth      AuthConfig
}

// NewHandler creates a new handler; geocoder, flow, weather, simulator and
// publisher may be nil when the corresponding backend is not configured.
func NewHandler(routes RouteComputer, planner CorridorPlanner, roads RoadLister,
	geocoder provider.Geocoder, flow provider.FlowProvider, weather WeatherSource,
	simulator TrafficSimulator, repo domain.TrafficRepository,
	publisher PositionPublisher, auth AuthConfig) *Handler {
	return &Handler{
		routes:    routes,
		planner:   planner,
		roads:     roads,
		geocoder:  geocoder,
		flow:      flow,
		weather:   weather,
		simulator: simulator,
		repo:      repo,
		publisher: publisher,
		auth:      auth,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	db := "ok"
	if h.repo != nil {
		if err := h.repo.Health(c.Context()); err != nil {
			db = "unavailable"
		}
	}
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "margdarshak-backend",
		"db":      db,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login issues a short-lived bearer token for the configured admin user.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if h.auth.AdminPassword == "" || req.Username != h.auth.AdminUser || req.Password != h.auth.AdminPassword {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": req.Username,
		"iat": now.Unix(),
		"exp": now.Add(4 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.auth.JWTSecret))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to sign token")
	}
	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
		"role":         "admin",
	})
}

// RequireAuth accepts either the x-api-key header or a bearer token.
func (h *Handler) RequireAuth(c *fiber.Ctx) error {
	if h.auth.APIKey != "" && c.Get("x-api-key") == h.auth.APIKey {
		return c.Next()
	}
	raw := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if raw != "" && raw != c.Get(fiber.HeaderAuthorization) {
		_, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			return []byte(h.auth.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err == nil {
			return c.Next()
		}
	}
	return fiber.NewError(fiber.StatusUnauthorized, "Invalid or missing credentials")
}

type routeRequest struct {
	OriginLat float64 `json:"origin_lat"`
	OriginLon float64 `json:"origin_lon"`
	DestLat   float64 `json:"dest_lat"`
	DestLon   float64 `json:"dest_lon"`
	VehicleID string  `json:"vehicle_id"`
}

// ComputeRoute returns the best single route between two points
func (h *Handler) ComputeRoute(c *fiber.Ctx) error {
	var req routeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	origin := domain.Coordinate{Lat: req.OriginLat, Lon: req.OriginLon}
	dest := domain.Coordinate{Lat: req.DestLat, Lon: req.DestLon}
	route, err := h.routes.Compute(c.Context(), origin, dest)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCoordinate) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid origin or destination coordinates")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to compute route")
	}
	return c.JSON(route)
}

type emergencyRequest struct {
	VehicleID string  `json:"vehicle_id"`
	OriginLat float64 `json:"origin_lat"`
	OriginLon float64 `json:"origin_lon"`
	DestLat   float64 `json:"dest_lat"`
	DestLon   float64 `json:"dest_lon"`
	Priority  string  `json:"priority"`
}

// CreateEmergency opens a new emergency corridor
func (h *Handler) CreateEmergency(c *fiber.Ctx) error {
	var req emergencyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.VehicleID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "vehicle_id is required")
	}

	origin := domain.Coordinate{Lat: req.OriginLat, Lon: req.OriginLon}
	dest := domain.Coordinate{Lat: req.DestLat, Lon: req.DestLon}
	corridor, err := h.planner.Create(c.Context(), req.VehicleID, origin, dest)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCoordinate) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid origin or destination coordinates")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to create emergency corridor")
	}

	return c.JSON(fiber.Map{
		"request_id":    corridor.RequestID,
		"status":        corridor.Status,
		"route":         corridor.Route,
		"corridor_plan": corridor.CorridorPlan,
	})
}

type gpsUpdate struct {
	VehicleID  string   `json:"vehicle_id"`
	RequestID  string   `json:"request_id"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	SpeedMps   *float64 `json:"speed_mps"`
	BearingDeg *float64 `json:"bearing_deg"`
	Ts         *float64 `json:"ts"`
}

// UpdatePosition stores the vehicle's latest GPS fix
func (h *Handler) UpdatePosition(c *fiber.Ctx) error {
	var req gpsUpdate
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.RequestID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "request_id is required")
	}

	pos := domain.Position{Lat: req.Lat, Lon: req.Lon, SpeedMps: req.SpeedMps, BearingDeg: req.BearingDeg, Ts: req.Ts}
	corridor, err := h.planner.UpdatePosition(c.Context(), req.RequestID, pos)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "request_id not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to update position")
	}

	if h.publisher != nil {
		if pubErr := h.publisher.PublishPosition(corridor); pubErr != nil {
			log.Printf("http: publishing position for %s: %v", corridor.RequestID, pubErr)
		}
	}

	return c.JSON(fiber.Map{
		"request_id":    corridor.RequestID,
		"status":        corridor.Status,
		"corridor_plan": corridor.CorridorPlan,
		"last_position": corridor.LastPosition,
	})
}

// EmergencyStatus returns the stored corridor state
func (h *Handler) EmergencyStatus(c *fiber.Ctx) error {
	requestID := c.Params("request_id")
	corridor, err := h.planner.Status(c.Context(), requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "request_id not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch status")
	}

	return c.JSON(fiber.Map{
		"request_id":    corridor.RequestID,
		"status":        corridor.Status,
		"route":         corridor.Route,
		"intersections": corridor.CorridorPlan.Intersections,
		"alternatives":  corridor.CorridorPlan.Alternatives,
	})
}

// GetRoads returns the stitched road network for a city
func (h *Handler) GetRoads(c *fiber.Ctx) error {
	city := c.Query("city", "Mumbai")
	maxRoads := c.QueryInt("max_roads", 200)
	targetSegments := c.QueryInt("target_segments", 0)

	roads, err := h.roads.RoadsForCity(c.Context(), city, maxRoads, targetSegments)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load roads")
	}
	return c.JSON(fiber.Map{"roads": roads, "count": len(roads)})
}

// Geocode resolves a free-text address, accepting "lat,lon" literals
func (h *Handler) Geocode(c *fiber.Ctx) error {
	address := c.Query("address")
	if address == "" {
		return fiber.NewError(fiber.StatusBadRequest, "address is required")
	}

	if parts := strings.Split(address, ","); len(parts) == 2 {
		var lat, lon float64
		if _, err := fmt.Sscanf(strings.TrimSpace(parts[0])+" "+strings.TrimSpace(parts[1]), "%f %f", &lat, &lon); err == nil {
			coord := domain.Coordinate{Lat: lat, Lon: lon}
			if coord.Valid() {
				return c.JSON(fiber.Map{"lat": lat, "lon": lon, "display_name": address})
			}
		}
	}

	if h.geocoder == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Geocoding not configured")
	}
	coord, name, err := h.geocoder.Locate(c.Context(), address)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Geocoding failed")
	}
	return c.JSON(fiber.Map{"lat": coord.Lat, "lon": coord.Lon, "display_name": name})
}

// LiveTraffic samples live severity near a point and stores it as history
func (h *Handler) LiveTraffic(c *fiber.Ctx) error {
	roadID := c.Query("road_id")
	city := c.Query("city")
	if roadID == "" || city == "" {
		return fiber.NewError(fiber.StatusBadRequest, "road_id and city are required")
	}
	lat := c.QueryFloat("lat", 19.0760)
	lon := c.QueryFloat("lon", 72.8777)

	sample, err := h.flow.FlowAt(c.Context(), lat, lon)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Live traffic lookup failed")
	}
	severity := sample.Severity
	if severity == 0 {
		severity = provider.SeverityFromJamFactor(sample.JamFactor)
	}

	segmentID := normalizeSegment(city, roadID)
	point := domain.TrafficPoint{
		SegmentID:   segmentID,
		City:        city,
		Severity:    severity,
		IntervalMin: 30,
		Timestamp:   time.Now().UTC(),
	}
	if err := h.repo.SaveTrafficPoint(c.Context(), point); err != nil {
		log.Printf("http: storing traffic point %s: %v", segmentID, err)
	}

	return c.JSON(fiber.Map{
		"segment_id": segmentID,
		"severity":   severity,
		"source":     "live",
		"ts":         point.Timestamp.Format(time.RFC3339),
	})
}

// TrafficHistory returns recent severity values for a segment, oldest first
func (h *Handler) TrafficHistory(c *fiber.Ctx) error {
	segmentID := c.Query("segment_id")
	city := c.Query("city")
	if segmentID == "" || city == "" {
		return fiber.NewError(fiber.StatusBadRequest, "segment_id and city are required")
	}
	intervalMin := c.QueryInt("interval_min", 30)
	limit := c.QueryInt("limit", 100)

	values, err := h.repo.GetHistory(c.Context(), segmentID, city, intervalMin, limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch history")
	}
	return c.JSON(fiber.Map{"segment_id": segmentID, "values": values, "count": len(values)})
}

// GetWeather returns current conditions for a city
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	city := c.Params("city")
	weather, err := h.weather.Current(c.Context(), city)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch weather")
	}
	return c.JSON(weather)
}

type simulateRequest struct {
	Location    string `json:"location"`
	NumSegments int    `json:"num_segments"`
	TimeSteps   int    `json:"time_steps"`
}

// SimulateData generates a per-segment traffic series for a city
func (h *Handler) SimulateData(c *fiber.Ctx) error {
	req := simulateRequest{Location: "Mumbai", NumSegments: 5, TimeSteps: 10}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	series, err := h.simulator.Run(c.Context(), req.Location, req.NumSegments, req.TimeSteps)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Simulation failed")
	}
	return c.JSON(fiber.Map{
		"rows":       series.Rows,
		"count":      len(series.Rows),
		"center_lat": series.CenterLat,
		"center_lon": series.CenterLon,
	})
}

// normalizeSegment builds the city-scoped history key for a road.
func normalizeSegment(city, roadID string) string {
	return strings.ToLower(strings.TrimSpace(city)) + ":" + roadID
}
