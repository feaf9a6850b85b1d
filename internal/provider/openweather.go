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

// OpenWeather fetches current conditions for a city. Used by the traffic
// simulator to tag generated samples with weather context.
type OpenWeather struct {
	apiKey     string
	httpClient *http.Client
}

// NewOpenWeather creates an OpenWeather adapter
func NewOpenWeather(apiKey string) *OpenWeather {
	return &OpenWeather{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 6 * time.Second,
		},
	}
}

type openWeatherResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Name string `json:"name"`
}

// Current fetches current weather for a city, degrading to a seasonal mock
// when the key is missing or the call fails.
func (w *OpenWeather) Current(ctx context.Context, city string) (domain.Weather, error) {
	if w.apiKey == "" {
		return w.mockWeather(city), nil
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", w.apiKey)
	params.Set("units", "metric")
	reqURL := "https://api.openweathermap.org/data/2.5/weather?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("openweather: failed to create request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return w.mockWeather(city), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return w.mockWeather(city), nil
	}

	var owResp openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		return domain.Weather{}, fmt.Errorf("openweather: failed to decode response: %w", err)
	}

	weather := domain.Weather{
		TempC: owResp.Main.Temp,
		City:  owResp.Name,
	}
	if len(owResp.Weather) > 0 {
		weather.Condition = owResp.Weather[0].Main
	}
	if weather.Condition == "" {
		weather.Condition = "Clear"
	}
	return weather, nil
}

// mockWeather returns plausible seasonal conditions.
func (w *OpenWeather) mockWeather(city string) domain.Weather {
	month := time.Now().Month()
	var temp float64
	var condition string

	switch {
	case month >= 6 && month <= 9: // Monsoon
		temp = 28.0
		condition = "Rain"
	case month >= 3 && month <= 5: // Summer
		temp = 33.0
		condition = "Clear"
	default:
		temp = 25.0
		condition = "Clouds"
	}

	return domain.Weather{
		TempC:     temp,
		Condition: condition,
		City:      city,
		IsMock:    true,
	}
}
