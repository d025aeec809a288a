package resolving

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"streamvault/src/music"
)

// Handler handles HTTP requests for stream resolution
type Handler struct {
	service *Service
}

// NewHandler creates a new resolving handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// ResolveTrack resolves a playable stream for a single track.
func (h *Handler) ResolveTrack(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "track id is required",
		})
	}

	stream, err := h.service.ResolveTrack(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(stream)
}

// ResolveCollection resolves every track of an album, playlist or artist page.
func (h *Handler) ResolveCollection(c *fiber.Ctx) error {
	kind, err := music.ParseCollectionKind(c.Params("kind"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "collection id is required",
		})
	}

	streams, err := h.service.ResolveCollection(c.UserContext(), id, kind)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"kind":    string(kind),
		"id":      id,
		"streams": streams,
	})
}

// ResolveLink resolves a pasted share URL, track or collection alike.
func (h *Handler) ResolveLink(c *fiber.Ctx) error {
	rawURL := c.Query("url")
	if rawURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url parameter is required",
		})
	}

	streams, err := h.service.ResolveLink(c.UserContext(), rawURL)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"url":     rawURL,
		"streams": streams,
	})
}

// Search looks tracks up in the upstream catalogue.
func (h *Handler) Search(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query parameter is required",
		})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	tracks, err := h.service.Search(c.UserContext(), query, limit)
	if err != nil {
		slog.Error("Search failed", "query", query, "error", err)
		return err
	}
	return c.JSON(fiber.Map{
		"tracks": tracks,
	})
}

// History lists recent resolution attempts, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	entries, err := h.service.History(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"entries": entries,
	})
}
