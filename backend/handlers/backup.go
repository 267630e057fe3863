package handlers

import (
	"net/http"
	"time"

	"country-color-map/backend/models"
	"country-color-map/backend/system"

	"github.com/gofiber/fiber/v2"
)

// ExportColors downloads the mapping in the same format as the data file
// GET /api/backup/export
func (h *Handler) ExportColors(c *fiber.Ctx) error {
	filename := "country-colors-" + time.Now().Format("2006-01-02") + ".json"
	c.Set("Content-Disposition", "attachment; filename="+filename)

	system.Info("Country colors exported")
	return c.JSON(h.Store.GetAll())
}

// ImportColors replaces the mapping with an uploaded export. Every entry must
// name a supported country and a palette color, or nothing is changed.
// POST /api/backup/import
func (h *Handler) ImportColors(c *fiber.Ctx) error {
	var mapping models.ColorMapping
	if err := c.BodyParser(&mapping); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid backup file format"})
	}
	if mapping == nil {
		mapping = models.ColorMapping{}
	}

	err := h.Store.Replace(session(c), mapping)
	if err == nil {
		system.Info("Country colors imported: %d entries", len(mapping))
	}
	return storeError(c, err, fiber.Map{
		"message": "Country colors imported successfully",
		"count":   len(mapping),
	})
}
