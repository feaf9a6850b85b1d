package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/margdarshak/backend/internal/domain"
)

// Overpass fetches raw road-way geometries from the Overpass API.
type Overpass struct {
	endpoint   string
	httpClient *http.Client
}

// NewOverpass creates an Overpass map-data adapter
func NewOverpass(endpoint string) *Overpass {
	return &Overpass{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type overpassResponse struct {
	Elements []struct {
		Type     string            `json:"type"`
		ID       int64             `json:"id"`
		Tags     map[string]string `json:"tags"`
		Geometry []struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"geometry"`
	} `json:"elements"`
}

// Ways returns all drivable way fragments inside the bounding box. Unnamed
// ways keep a stable synthetic name derived from the way id.
func (o *Overpass) Ways(ctx context.Context, bbox domain.BoundingBox) ([]domain.WayFragment, error) {
	query := fmt.Sprintf(`
[out:json][timeout:30];
(
  way["highway"~"motorway|trunk|primary|secondary|tertiary|residential|unclassified|service"](%f,%f,%f,%f);
);
out geom;
`, bbox.South, bbox.West, bbox.North, bbox.East)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("overpass: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass: query returned status %d", resp.StatusCode)
	}

	var opResp overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&opResp); err != nil {
		return nil, fmt.Errorf("overpass: failed to decode response: %w", err)
	}

	fragments := make([]domain.WayFragment, 0, len(opResp.Elements))
	for _, e := range opResp.Elements {
		if e.Type != "way" || len(e.Geometry) < 2 {
			continue
		}
		name := e.Tags["name"]
		if name == "" {
			name = e.Tags["ref"]
		}
		if name == "" {
			name = fmt.Sprintf("unnamed_%d", e.ID)
		}
		coords := make([]domain.Coordinate, 0, len(e.Geometry))
		for _, g := range e.Geometry {
			coords = append(coords, domain.Coordinate{Lat: g.Lat, Lon: g.Lon})
		}
		fragments = append(fragments, domain.WayFragment{
			ID:          fmt.Sprintf("way_%d", e.ID),
			Name:        name,
			Coordinates: coords,
		})
	}
	return fragments, nil
}
