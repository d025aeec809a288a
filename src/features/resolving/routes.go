package resolving

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers resolution-related routes
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	api := app.Group("/resolve")
	api.Get("/track/:id", handler.ResolveTrack)
	api.Get("/collection/:kind/:id", handler.ResolveCollection)
	api.Get("/url", handler.ResolveLink)

	app.Get("/search", handler.Search)
	app.Get("/history", handler.History)
}
