package credentials

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers credential-related routes
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	api := app.Group("/credentials")
	api.Get("/status", handler.Status)
	api.Get("/:scope", handler.Fetch)
	api.Post("/invalidate/:scope", handler.Invalidate)
	api.Post("/rotate", handler.Rotate)
}
