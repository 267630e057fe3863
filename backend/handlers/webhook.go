package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// TestWebhook sends a test message to the configured Discord webhook
// POST /api/webhook/test
func (h *Handler) TestWebhook(c *fiber.Ctx) error {
	if h.Webhook == nil || !h.Webhook.IsEnabled() {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Discord webhook URL not configured"})
	}

	if err := h.Webhook.SendTestAlert(); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Test notification sent successfully"})
}
