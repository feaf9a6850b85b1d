package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/margdarshak/backend/internal/domain"
)

// GraphHopper is the primary routing backend. Requires an API key.
type GraphHopper struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGraphHopper creates a GraphHopper adapter
func NewGraphHopper(apiKey, baseURL string, timeout time.Duration) *GraphHopper {
	return &GraphHopper{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (g *GraphHopper) Name() string { return "graphhopper" }

type graphHopperResponse struct {
	Paths []struct {
		Distance float64 `json:"distance"`
		TimeMs   int64   `json:"time"`
		Points   struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"points"`
	} `json:"paths"`
}

// FetchRoutes calls the GraphHopper route API. The free tier effectively
// returns a single path, alternatives or not.
func (g *GraphHopper) FetchRoutes(ctx context.Context, origin, dest domain.Coordinate, alternatives bool) ([]domain.Route, error) {
	if g.apiKey == "" {
		return nil, &domain.ProviderError{Provider: g.Name(), Reason: "GH_API_KEY not configured"}
	}

	var out []domain.Route
	err := doWithRetry(ctx, 1, 300*time.Millisecond, func() error {
		routes, err := g.fetchOnce(ctx, origin, dest)
		out = routes
		return err
	})
	return out, err
}

func (g *GraphHopper) fetchOnce(ctx context.Context, origin, dest domain.Coordinate) ([]domain.Route, error) {
	params := url.Values{}
	params.Add("point", fmt.Sprintf("%f,%f", origin.Lat, origin.Lon))
	params.Add("point", fmt.Sprintf("%f,%f", dest.Lat, dest.Lon))
	params.Set("vehicle", "car")
	params.Set("points_encoded", "false")
	params.Set("locale", "en")
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &domain.ProviderError{Provider: g.Name(), Reason: "failed to create request", Err: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: g.Name(), Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ProviderError{Provider: g.Name(), Status: resp.StatusCode, Reason: "route request rejected"}
	}

	var ghResp graphHopperResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, &domain.ProviderError{Provider: g.Name(), Reason: "failed to decode response", Err: err}
	}
	if len(ghResp.Paths) == 0 {
		return nil, &domain.ProviderError{Provider: g.Name(), Reason: "returned invalid payload"}
	}

	routes := make([]domain.Route, 0, len(ghResp.Paths))
	for _, p := range ghResp.Paths {
		path := pathFromLonLat(p.Points.Coordinates)
		if len(path) < 2 {
			continue
		}
		routes = append(routes, domain.Route{
			DistanceM: p.Distance,
			DurationS: float64(p.TimeMs) / 1000.0, // GraphHopper reports milliseconds
			Path:      path,
		})
	}
	if len(routes) == 0 {
		return nil, &domain.ProviderError{Provider: g.Name(), Reason: "returned empty geometry"}
	}
	return routes, nil
}
