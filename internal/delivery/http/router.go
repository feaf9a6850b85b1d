package http

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler) {
	// Health check and login are open
	app.Get("/health", handler.HealthCheck)
	app.Post("/api/login", handler.Login)

	// Everything else requires an API key or bearer token
	api := app.Group("/api", handler.RequireAuth)
	{
		api.Post("/route", handler.ComputeRoute)

		api.Post("/emergency/request", handler.CreateEmergency)
		api.Post("/emergency/update_position", handler.UpdatePosition)
		api.Get("/emergency/status/:request_id", handler.EmergencyStatus)

		api.Get("/roads", handler.GetRoads)
		api.Get("/geocode", handler.Geocode)
		api.Get("/live_traffic", handler.LiveTraffic)
		api.Get("/history", handler.TrafficHistory)
		api.Get("/weather/:city", handler.GetWeather)

		api.Post("/data", handler.SimulateData)
	}
}
