package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/margdarshak/backend/internal/domain"
)

// OpenRouteService is the optional tertiary routing backend.
type OpenRouteService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenRouteService creates an ORS adapter
func NewOpenRouteService(apiKey, baseURL string, timeout time.Duration) *OpenRouteService {
	return &OpenRouteService{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (o *OpenRouteService) Name() string { return "ors" }

// Configured reports whether an API key is present; the racer skips the
// tertiary adapter entirely when it is not.
func (o *OpenRouteService) Configured() bool { return o.apiKey != "" }

type orsRequest struct {
	Coordinates       [][]float64     `json:"coordinates"`
	Instructions      bool            `json:"instructions"`
	AlternativeRoutes *orsAlternative `json:"alternative_routes,omitempty"`
}

type orsAlternative struct {
	ShareFactor float64 `json:"share_factor"`
	TargetCount int     `json:"target_count"`
}

type orsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// FetchRoutes calls the ORS directions API (GeoJSON profile).
func (o *OpenRouteService) FetchRoutes(ctx context.Context, origin, dest domain.Coordinate, alternatives bool) ([]domain.Route, error) {
	if o.apiKey == "" {
		return nil, &domain.ProviderError{Provider: o.Name(), Reason: "ORS_API_KEY not configured"}
	}

	var out []domain.Route
	err := doWithRetry(ctx, 1, 300*time.Millisecond, func() error {
		routes, err := o.fetchOnce(ctx, origin, dest, alternatives)
		out = routes
		return err
	})
	return out, err
}

func (o *OpenRouteService) fetchOnce(ctx context.Context, origin, dest domain.Coordinate, alternatives bool) ([]domain.Route, error) {
	body := orsRequest{
		Coordinates:  [][]float64{{origin.Lon, origin.Lat}, {dest.Lon, dest.Lat}},
		Instructions: false,
	}
	if alternatives {
		body.AlternativeRoutes = &orsAlternative{ShareFactor: 0.6, TargetCount: 2}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &domain.ProviderError{Provider: o.Name(), Reason: "failed to marshal request", Err: err}
	}

	url := o.baseURL + "/v2/directions/driving-car/geojson"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.ProviderError{Provider: o.Name(), Reason: "failed to create request", Err: err}
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: o.Name(), Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ProviderError{Provider: o.Name(), Status: resp.StatusCode, Reason: "route request rejected"}
	}

	var orsResp orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&orsResp); err != nil {
		return nil, &domain.ProviderError{Provider: o.Name(), Reason: "failed to decode response", Err: err}
	}
	if len(orsResp.Features) == 0 {
		return nil, &domain.ProviderError{Provider: o.Name(), Reason: "returned invalid payload"}
	}

	routes := make([]domain.Route, 0, len(orsResp.Features))
	for _, f := range orsResp.Features {
		path := pathFromLonLat(f.Geometry.Coordinates)
		if len(path) < 2 {
			continue
		}
		routes = append(routes, domain.Route{
			DistanceM: f.Properties.Summary.Distance,
			DurationS: f.Properties.Summary.Duration,
			Path:      path,
		})
	}
	if len(routes) == 0 {
		return nil, &domain.ProviderError{Provider: o.Name(), Reason: "returned empty geometry"}
	}
	return routes, nil
}
