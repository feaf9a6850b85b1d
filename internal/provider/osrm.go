package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/margdarshak/backend/internal/domain"
)

// OSRM is the secondary routing backend (public demo server by default).
// It is the only provider that reliably returns alternative paths.
type OSRM struct {
	baseURL    string
	httpClient *http.Client
}

// NewOSRM creates an OSRM adapter
func NewOSRM(baseURL string, timeout time.Duration) *OSRM {
	return &OSRM{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (o *OSRM) Name() string { return "osrm" }

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// FetchRoutes calls the OSRM route API with GeoJSON geometry.
func (o *OSRM) FetchRoutes(ctx context.Context, origin, dest domain.Coordinate, alternatives bool) ([]domain.Route, error) {
	var out []domain.Route
	err := doWithRetry(ctx, 1, 300*time.Millisecond, func() error {
		routes, err := o.fetchOnce(ctx, origin, dest, alternatives)
		out = routes
		return err
	})
	return out, err
}

func (o *OSRM) fetchOnce(ctx context.Context, origin, dest domain.Coordinate, alternatives bool) ([]domain.Route, error) {
	alt := "false"
	if alternatives {
		alt = "true"
	}
	url := fmt.Sprintf(
		"%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson&steps=false&alternatives=%s",
		o.baseURL, origin.Lon, origin.Lat, dest.Lon, dest.Lat, alt,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.ProviderError{Provider: o.Name(), Reason: "failed to create request", Err: err}
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: o.Name(), Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ProviderError{Provider: o.Name(), Status: resp.StatusCode, Reason: "route request rejected"}
	}

	var osrmResp osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&osrmResp); err != nil {
		return nil, &domain.ProviderError{Provider: o.Name(), Reason: "failed to decode response", Err: err}
	}
	if osrmResp.Code != "Ok" || len(osrmResp.Routes) == 0 {
		return nil, &domain.ProviderError{Provider: o.Name(), Reason: "returned invalid payload"}
	}

	routes := make([]domain.Route, 0, len(osrmResp.Routes))
	for _, r := range osrmResp.Routes {
		path := pathFromLonLat(r.Geometry.Coordinates)
		if len(path) < 2 {
			continue
		}
		routes = append(routes, domain.Route{
			DistanceM: r.Distance,
			DurationS: r.Duration,
			Path:      path,
		})
	}
	if len(routes) == 0 {
		return nil, &domain.ProviderError{Provider: o.Name(), Reason: "returned empty geometry"}
	}
	return routes, nil
}
