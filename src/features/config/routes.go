package config

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the config feature.
func RegisterRoutes(app *fiber.App, configManager *Manager, configPath string) {
	handler := NewHandler(configManager, configPath)

	app.Get("/config", handler.GetConfig)
	app.Get("/config/yaml", handler.GetConfigYAML)
	app.Post("/config/reload", handler.Reload)
}
