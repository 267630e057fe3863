package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// GetHistory returns recent color changes, newest first
// GET /api/history?limit=50&country=
func (h *Handler) GetHistory(c *fiber.Ctx) error {
	if h.History == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "History is not enabled"})
	}

	limit := c.QueryInt("limit", 50)
	country := c.Query("country", "")

	changes, err := h.History.Recent(limit, country)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"count":   len(changes),
		"changes": changes,
	})
}
