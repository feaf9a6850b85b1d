package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/margdarshak/backend/internal/config"
	"github.com/margdarshak/backend/internal/corridor"
	"github.com/margdarshak/backend/internal/domain"
	httpdelivery "github.com/margdarshak/backend/internal/delivery/http"
	"github.com/margdarshak/backend/internal/metrics"
	"github.com/margdarshak/backend/internal/provider"
	"github.com/margdarshak/backend/internal/publisher"
	"github.com/margdarshak/backend/internal/repository/postgres"
	"github.com/margdarshak/backend/internal/roadnet"
	"github.com/margdarshak/backend/internal/routing"
	"github.com/margdarshak/backend/internal/sim"
	"github.com/margdarshak/backend/internal/traffic"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Database connection; demo mode falls back to the in-memory repository
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Could not connect to database: %v", err)
			pool = nil
		}
	}
	var repo domain.TrafficRepository
	if pool != nil {
		defer pool.Close()
		repo = postgres.NewTrafficRepository(pool)
		log.Println("Connected to PostgreSQL")
	} else {
		repo = postgres.NewMockRepository()
		log.Println("Running with in-memory traffic history only")
	}

	collector := metrics.NewCollector()

	// Dependency Injection: providers
	graphHopper := provider.NewGraphHopper(cfg.GraphHopperKey, cfg.GraphHopperURL, cfg.PrimaryTimeout)
	osrm := provider.NewOSRM(cfg.OSRMURL, cfg.ProviderTimeout)
	ors := provider.NewOpenRouteService(cfg.ORSKey, cfg.ORSURL, cfg.ProviderTimeout)
	tomtom := provider.NewTomTom(cfg.TomTomKey)
	overpass := provider.NewOverpass(cfg.OverpassURL)
	nominatim := provider.NewNominatim(cfg.NominatimURL)
	weather := provider.NewOpenWeather(cfg.OpenWeatherKey)

	// Dependency Injection: domain components
	roadCache := roadnet.NewFileCache("roads_cache.json")
	roads := roadnet.NewBuilder(overpass, nominatim, roadCache)

	fallback := routing.NewGeometricFallback(roads, cfg.CityHint)
	racers := []provider.RouteProvider{graphHopper, osrm}
	if ors.Configured() {
		racers = append(racers, ors)
	}
	racer := routing.NewRacer(fallback, cfg.RaceDeadline, collector, racers...)

	var tertiary provider.RouteProvider
	if ors.Configured() {
		tertiary = ors
	}
	synthesizer := routing.NewSynthesizer(graphHopper, osrm, tertiary, racer)

	scorer := traffic.NewScorer(tomtom)
	planner := corridor.NewPlanner(synthesizer, scorer, corridor.NewMemoryStore(), collector)
	simulator := sim.NewSimulator(roads, tomtom, weather)

	// Optional integrations
	var positions httpdelivery.PositionPublisher
	if cfg.NATSURL != "" {
		natsPub, err := publisher.NewNATSPublisher(cfg.NATSURL, collector)
		if err != nil {
			log.Printf("Warning: NATS unavailable, positions will not be published: %v", err)
		} else {
			defer natsPub.Close()
			positions = natsPub
		}
	}
	if cfg.MetricsAddr != "" {
		metricsSrv := collector.Serve(cfg.MetricsAddr)
		defer metricsSrv.Shutdown(context.Background())
	}

	handler := httpdelivery.NewHandler(
		racer, planner, roads,
		nominatim, tomtom, weather,
		simulator, repo, positions,
		httpdelivery.AuthConfig{
			APIKey:        cfg.APIKey,
			JWTSecret:     cfg.JWTSecret,
			AdminUser:     cfg.AdminUser,
			AdminPassword: cfg.AdminPassword,
		},
	)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "MargDarshak API v1.0",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,x-api-key",
	}))

	// Routes
	httpdelivery.SetupRoutes(app, handler)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited gracefully")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
