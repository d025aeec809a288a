package credentials

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler handles HTTP requests for credential management
type Handler struct {
	service *Service
}

// NewHandler creates a new credentials handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// Status reports the cached state of every configured scope. Secrets are
// never included in the response.
func (h *Handler) Status(c *fiber.Ctx) error {
	scopes := fiber.Map{}
	for _, scope := range h.service.Scopes() {
		if cred, ok := h.service.Peek(scope); ok {
			scopes[string(scope)] = cred.Redacted()
		} else {
			scopes[string(scope)] = fiber.Map{"cached": false}
		}
	}
	return c.JSON(fiber.Map{"scopes": scopes})
}

// Fetch returns the current credential for a scope, refreshing it when the
// cache is empty or stale. Secrets are redacted.
func (h *Handler) Fetch(c *fiber.Ctx) error {
	scope, err := ParseScope(c.Params("scope"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	cred, err := h.service.Get(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return c.JSON(cred.Redacted())
}

// Invalidate drops the cached credential for a scope so the next request
// refreshes it.
func (h *Handler) Invalidate(c *fiber.Ctx) error {
	scope, err := ParseScope(c.Params("scope"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.service.Invalidate(scope); err != nil {
		return err
	}
	slog.Info("Credential invalidated", "scope", scope)
	return c.JSON(fiber.Map{"status": "invalidated", "scope": string(scope)})
}

// Rotate forces a fresh remote credential fetch.
func (h *Handler) Rotate(c *fiber.Ctx) error {
	cred, err := h.service.RotateRemote(c.UserContext(), true)
	if err != nil {
		return err
	}
	return c.JSON(cred.Redacted())
}
