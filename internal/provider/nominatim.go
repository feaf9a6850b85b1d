package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/margdarshak/backend/internal/domain"
)

const nominatimUserAgent = "margdarshak/1.0"

// Nominatim resolves free-text place names to points and bounding boxes.
type Nominatim struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatim creates a Nominatim geocoder
func NewNominatim(baseURL string) *Nominatim {
	return &Nominatim{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type nominatimResult struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox"` // [south, north, west, east]
}

func (n *Nominatim) search(ctx context.Context, place string) (*nominatimResult, error) {
	params := url.Values{}
	params.Set("q", place)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("nominatim: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim: search returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("nominatim: failed to decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("nominatim: %q not found", place)
	}
	return &results[0], nil
}

// Locate returns the representative point and display name for a place.
func (n *Nominatim) Locate(ctx context.Context, place string) (domain.Coordinate, string, error) {
	res, err := n.search(ctx, place)
	if err != nil {
		return domain.Coordinate{}, "", err
	}
	lat, errLat := strconv.ParseFloat(res.Lat, 64)
	lon, errLon := strconv.ParseFloat(res.Lon, 64)
	if errLat != nil || errLon != nil {
		return domain.Coordinate{}, "", fmt.Errorf("nominatim: malformed coordinates for %q", place)
	}
	name := res.DisplayName
	if name == "" {
		name = place
	}
	return domain.Coordinate{Lat: lat, Lon: lon}, name, nil
}

// BoundingBox returns the place's bounding box.
func (n *Nominatim) BoundingBox(ctx context.Context, place string) (domain.BoundingBox, error) {
	res, err := n.search(ctx, place)
	if err != nil {
		return domain.BoundingBox{}, err
	}
	if len(res.BoundingBox) < 4 {
		return domain.BoundingBox{}, fmt.Errorf("nominatim: no bounding box for %q", place)
	}
	south, err1 := strconv.ParseFloat(res.BoundingBox[0], 64)
	north, err2 := strconv.ParseFloat(res.BoundingBox[1], 64)
	west, err3 := strconv.ParseFloat(res.BoundingBox[2], 64)
	east, err4 := strconv.ParseFloat(res.BoundingBox[3], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return domain.BoundingBox{}, fmt.Errorf("nominatim: malformed bounding box for %q", place)
	}
	return domain.BoundingBox{South: south, West: west, North: north, East: east}, nil
}
