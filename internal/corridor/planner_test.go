package corridor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/margdarshak/backend/internal/domain"
	"github.com/margdarshak/backend/internal/routing"
	"github.com/margdarshak/backend/internal/traffic"
)

var (
	testOrigin = domain.Coordinate{Lat: 19.07, Lon: 72.87}
	testDest   = domain.Coordinate{Lat: 19.07, Lon: 72.88}
)

type fakeRoutes struct {
	routes []domain.Route
	err    error
	calls  int
}

func (f *fakeRoutes) Alternatives(ctx context.Context, origin, dest domain.Coordinate, k int) ([]domain.Route, error) {
	f.calls++
	return f.routes, f.err
}

// fakeScorer maps route distance to a fixed severity
type fakeScorer struct {
	severity map[float64]float64
}

func (f *fakeScorer) Score(ctx context.Context, route domain.Route) domain.TrafficScore {
	return domain.TrafficScore{SeverityPct: f.severity[route.DistanceM]}
}

func testRoute(distM, durS float64) domain.Route {
	return domain.Route{
		DistanceM: distM,
		DurationS: durS,
		Path:      []domain.Coordinate{testOrigin, testDest},
	}
}

func TestCreatePicksLowestCostPrimary(t *testing.T) {
	// A: 100s at 0% -> cost 100; B: 90s at 60% -> inflated 117s, cost 152
	routes := &fakeRoutes{routes: []domain.Route{testRoute(2000, 90), testRoute(1000, 100)}}
	scorer := &fakeScorer{severity: map[float64]float64{1000: 0, 2000: 60}}
	p := NewPlanner(routes, scorer, NewMemoryStore(), nil)

	req, err := p.Create(context.Background(), "amb-1", testOrigin, testDest)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.Route.DistanceM != 1000 {
		t.Errorf("expected the uncongested route as primary, got distance %.0f", req.Route.DistanceM)
	}
	if req.Route.DurationS != 100 || req.Route.BaseDurationS != 100 {
		t.Errorf("uncongested route must not be inflated: dur %.1f base %.1f", req.Route.DurationS, req.Route.BaseDurationS)
	}

	congested := req.AllRoutes[1]
	if congested.BaseDurationS != 90 {
		t.Errorf("expected base duration 90, got %.1f", congested.BaseDurationS)
	}
	if congested.DurationS < 116.9 || congested.DurationS > 117.1 {
		t.Errorf("expected inflated duration 117, got %.1f", congested.DurationS)
	}
}

func TestCreateVisibleAlternatives(t *testing.T) {
	heavy := &fakeScorer{severity: map[float64]float64{1000: 60, 2000: 60, 3000: 60}}
	light := &fakeScorer{severity: map[float64]float64{}}
	candidates := []domain.Route{testRoute(1000, 100), testRoute(2000, 200), testRoute(3000, 300)}

	p := NewPlanner(&fakeRoutes{routes: candidates}, heavy, NewMemoryStore(), nil)
	req, err := p.Create(context.Background(), "amb-1", testOrigin, testDest)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(req.CorridorPlan.Alternatives) != 2 {
		t.Errorf("congested primary must expose 2 alternatives, got %d", len(req.CorridorPlan.Alternatives))
	}

	p = NewPlanner(&fakeRoutes{routes: candidates}, light, NewMemoryStore(), nil)
	req, err = p.Create(context.Background(), "amb-2", testOrigin, testDest)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(req.CorridorPlan.Alternatives) != 1 {
		t.Errorf("clear primary must expose 1 alternative, got %d", len(req.CorridorPlan.Alternatives))
	}
}

func TestCreateScalesPlanEtas(t *testing.T) {
	route := testRoute(1000, 100)
	route.Intersections = []domain.Waypoint{
		{ID: "INT_1", Lat: 19.07, Lon: 72.875, EtaS: 25, EtaEpoch: 1000025},
		{ID: "INT_2", Lat: 19.07, Lon: 72.8775, EtaS: 50, EtaEpoch: 1000050},
	}
	scorer := &fakeScorer{severity: map[float64]float64{1000: 60}} // multiplier 1.3
	p := NewPlanner(&fakeRoutes{routes: []domain.Route{route}}, scorer, NewMemoryStore(), nil)

	req, err := p.Create(context.Background(), "amb-1", testOrigin, testDest)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got := req.CorridorPlan.Intersections
	if len(got) != 2 {
		t.Fatalf("expected 2 plan waypoints, got %d", len(got))
	}
	if got[0].EtaS < 32.4 || got[0].EtaS > 32.6 {
		t.Errorf("expected first ETA scaled to 32.5s, got %.2f", got[0].EtaS)
	}
	if got[1].EtaEpoch < 1000064.9 || got[1].EtaEpoch > 1000065.1 {
		t.Errorf("expected second epoch shifted to 1000065, got %.2f", got[1].EtaEpoch)
	}
}

func TestCreateRejectsPlaceholderCoordinates(t *testing.T) {
	routes := &fakeRoutes{routes: []domain.Route{testRoute(1000, 100)}}
	p := NewPlanner(routes, &fakeScorer{}, NewMemoryStore(), nil)

	if _, err := p.Create(context.Background(), "amb-1", domain.Coordinate{}, testDest); !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
	if routes.calls != 0 {
		t.Error("validation must reject before route synthesis")
	}
}

func TestUpdatePositionOverwritesPositionOnly(t *testing.T) {
	routes := &fakeRoutes{routes: []domain.Route{testRoute(1000, 100)}}
	p := NewPlanner(routes, &fakeScorer{}, NewMemoryStore(), nil)

	req, err := p.Create(context.Background(), "amb-1", testOrigin, testDest)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	speed := 14.2
	ts := float64(time.Now().Unix())
	pos := domain.Position{Lat: 19.071, Lon: 72.872, SpeedMps: &speed, Ts: &ts}
	updated, err := p.UpdatePosition(context.Background(), req.RequestID, pos)
	if err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}
	if updated.LastPosition.Lat != 19.071 || updated.LastPosition.SpeedMps == nil {
		t.Errorf("position not stored: %+v", updated.LastPosition)
	}
	if updated.Route.DurationS != req.Route.DurationS {
		t.Error("a position update must not recompute the route")
	}
	if updated.Status != domain.StatusActive {
		t.Errorf("status changed to %s", updated.Status)
	}

	if _, err := p.UpdatePosition(context.Background(), "nope", pos); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestStatusIsIdempotent(t *testing.T) {
	p := NewPlanner(&fakeRoutes{routes: []domain.Route{testRoute(1000, 100)}}, &fakeScorer{}, NewMemoryStore(), nil)
	req, err := p.Create(context.Background(), "amb-1", testOrigin, testDest)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := p.Status(context.Background(), req.RequestID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	second, err := p.Status(context.Background(), req.RequestID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if first.Route.DistanceM != second.Route.DistanceM || first.Status != second.Status {
		t.Error("repeated status reads must agree")
	}

	if _, err := p.Status(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Put(ctx, &domain.CorridorRequest{RequestID: "r1", Status: domain.StatusActive}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Status = domain.StatusCancelled

	again, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Status != domain.StatusActive {
		t.Error("mutating a returned request must not affect the store")
	}
}

// unreachable upstream fakes for the end-to-end path

type downProvider struct{}

func (downProvider) Name() string { return "graphhopper" }

func (downProvider) FetchRoutes(ctx context.Context, origin, dest domain.Coordinate, alternatives bool) ([]domain.Route, error) {
	return nil, errors.New("unreachable")
}

type noRoads struct{}

func (noRoads) RoadsForCity(ctx context.Context, city string, maxRoads, targetSegments int) ([]domain.RoadSegment, error) {
	return nil, errors.New("road source down")
}

func TestCreateSucceedsWithAllUpstreamsDown(t *testing.T) {
	racer := routing.NewRacer(routing.NewGeometricFallback(noRoads{}, "Mumbai"), 500*time.Millisecond, nil, downProvider{})
	synth := routing.NewSynthesizer(downProvider{}, nil, nil, racer)
	p := NewPlanner(synth, traffic.NewScorer(nil), NewMemoryStore(), nil)

	req, err := p.Create(context.Background(), "amb-1", testOrigin, testDest)
	if err != nil {
		t.Fatalf("Create must survive a total upstream outage: %v", err)
	}
	if req.RequestID == "" {
		t.Error("missing request id")
	}
	if len(req.Route.Path) < 2 {
		t.Errorf("primary route has %d points", len(req.Route.Path))
	}
	if req.Status != domain.StatusActive {
		t.Errorf("expected active status, got %s", req.Status)
	}
}
