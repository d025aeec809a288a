package hosting

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"streamvault/src/features/config"
	"streamvault/src/features/credentials"
	"streamvault/src/features/resolving"
	"streamvault/src/music"
)

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Manager, configPath string, resolvingService *resolving.Service, credentialService *credentials.Service) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			switch music.KindOf(err) {
			case music.KindNotFound:
				status = fiber.StatusNotFound
			case music.KindValidation:
				status = fiber.StatusUnprocessableEntity
			case music.KindConfiguration:
				status = fiber.StatusServiceUnavailable
			}
			if status >= 500 {
				slog.Error("Internal Server Error", "error", err)
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		},
		AppName:               "Streamvault",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	resolving.RegisterRoutes(app, resolvingService)
	credentials.RegisterRoutes(app, credentialService)
	config.RegisterRoutes(app, cfg, configPath)

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
