package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries all runtime settings. Every field has an environment
// variable with a sensible default so the service boots with no .env at all.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	// Routing providers
	GraphHopperKey string
	GraphHopperURL string
	OSRMURL        string
	ORSKey         string
	ORSURL         string

	// Traffic / map-data / geocoding / weather backends
	TomTomKey      string
	OverpassURL    string
	NominatimURL   string
	OpenWeatherKey string

	// Racing parameters
	RaceDeadline    time.Duration
	PrimaryTimeout  time.Duration
	ProviderTimeout time.Duration

	// City used by the geometric fallback's road snapping
	CityHint string

	// Auth
	APIKey        string
	JWTSecret     string
	AdminUser     string
	AdminPassword string

	// Optional integrations; empty disables
	NATSURL     string
	MetricsAddr string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getenvDefault("PORT", "8080"),
		Env:         getenvDefault("GO_ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		GraphHopperKey: os.Getenv("GH_API_KEY"),
		GraphHopperURL: strings.TrimRight(getenvDefault("GH_BASE_URL", "https://graphhopper.com/api/1/route"), "/"),
		OSRMURL:        strings.TrimRight(getenvDefault("OSRM_URL", "https://router.project-osrm.org"), "/"),
		ORSKey:         os.Getenv("ORS_API_KEY"),
		ORSURL:         strings.TrimRight(getenvDefault("ORS_BASE_URL", "https://api.openrouteservice.org"), "/"),

		TomTomKey:      os.Getenv("TOMTOM_API_KEY"),
		OverpassURL:    getenvDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		NominatimURL:   strings.TrimRight(getenvDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"), "/"),
		OpenWeatherKey: os.Getenv("OPENWEATHER_API_KEY"),

		CityHint: getenvDefault("CITY_HINT", "Mumbai"),

		APIKey:        os.Getenv("MARG_API_KEY"),
		JWTSecret:     os.Getenv("MARG_JWT_SECRET"),
		AdminUser:     getenvDefault("MARG_ADMIN_USER", "admin"),
		AdminPassword: os.Getenv("MARG_ADMIN_PASSWORD"),

		NATSURL:     os.Getenv("NATS_URL"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
	}

	var err error
	if cfg.RaceDeadline, err = durationEnv("RACE_DEADLINE_MS", 8000); err != nil {
		return nil, err
	}
	if cfg.PrimaryTimeout, err = durationEnv("PRIMARY_TIMEOUT_MS", 5000); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = durationEnv("PROVIDER_TIMEOUT_MS", 6000); err != nil {
		return nil, err
	}

	return cfg, nil
}

func durationEnv(key string, defMs int) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(defMs) * time.Millisecond, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
