package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"country-color-map/backend/models"
	"country-color-map/backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// SetColorRequest body for PUT /api/colors/:country
type SetColorRequest struct {
	Color string `json:"color"` // palette name, e.g. "Green"
}

// GetColors returns the full mapping
// GET /api/colors
func (h *Handler) GetColors(c *fiber.Ctx) error {
	return c.JSON(h.Store.GetAll())
}

// GetLegend lists colored countries alphabetically
// GET /api/legend
func (h *Handler) GetLegend(c *fiber.Ctx) error {
	return c.JSON(h.Store.Legend())
}

// GetCountries returns the names that can be colored, alphabetically
// GET /api/countries
func (h *Handler) GetCountries(c *fiber.Ctx) error {
	return c.JSON(models.SortedCountries())
}

// GetPalette returns the color choices
// GET /api/palette
func (h *Handler) GetPalette(c *fiber.Ctx) error {
	palette := make([]models.LegendItem, 0, len(models.Palette))
	for _, name := range models.Palette {
		palette = append(palette, models.LegendItem{Color: name.Hex(), ColorName: name})
	}
	return c.JSON(palette)
}

// SetColor assigns a color to one country
// PUT /api/colors/:country
func (h *Handler) SetColor(c *fiber.Ctx) error {
	// visitors get the same answer whatever they sent
	if !session(c).IsAdmin {
		return storeError(c, services.ErrUnauthorized, nil)
	}

	country, err := countryParam(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid country"})
	}

	var req SetColorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	color, err := models.ParseColorName(req.Color)
	if err != nil {
		return storeError(c, fmt.Errorf("%w: %q", services.ErrUnknownColor, req.Color), nil)
	}

	err = h.Store.SetColor(session(c), country, color)
	return storeError(c, err, fiber.Map{
		"message": "Color " + req.Color + " applied to " + country,
		"country": country,
		"entry":   models.NewEntry(color),
	})
}

// RemoveColor clears one country
// DELETE /api/colors/:country
func (h *Handler) RemoveColor(c *fiber.Ctx) error {
	country, err := countryParam(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid country"})
	}

	err = h.Store.RemoveColor(session(c), country)
	return storeError(c, err, fiber.Map{"message": "Cleared color for " + country})
}

// ClearColors removes every color
// DELETE /api/colors
func (h *Handler) ClearColors(c *fiber.Ctx) error {
	err := h.Store.ClearAll(session(c))
	return storeError(c, err, fiber.Map{"message": "All country colors cleared"})
}

// countryParam decodes :country into a string that outlives the request;
// Params aliases fasthttp's reused buffer.
func countryParam(c *fiber.Ctx) (string, error) {
	return url.PathUnescape(utils.CopyString(c.Params("country")))
}
