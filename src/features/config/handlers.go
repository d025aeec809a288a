package config

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the config feature.
type Handler struct {
	configManager *Manager
	configPath    string
}

// NewHandler creates a new handler for the config feature.
func NewHandler(configManager *Manager, configPath string) *Handler {
	return &Handler{
		configManager: configManager,
		configPath:    configPath,
	}
}

// GetConfig returns the current configuration with secrets redacted.
func (h *Handler) GetConfig(c *fiber.Ctx) error {
	c.Set("Content-Type", "application/json")
	return c.SendString(h.configManager.GetJSON())
}

// GetConfigYAML returns the redacted configuration in YAML form.
func (h *Handler) GetConfigYAML(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/yaml")
	return c.SendString(h.configManager.GetYAML())
}

// Reload re-reads the config file from disk.
func (h *Handler) Reload(c *fiber.Ctx) error {
	slog.Info("Configuration reload requested")

	cfg, err := readConfigFile(h.configPath)
	if err != nil {
		slog.Error("Config reload failed", "error", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	applyEnvOverrides(cfg)
	h.configManager.Update(cfg)
	return c.JSON(fiber.Map{"status": "reloaded"})
}
