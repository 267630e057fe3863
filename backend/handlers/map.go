package handlers

import (
	"errors"
	"net/http"

	"country-color-map/backend/services"

	"github.com/gofiber/fiber/v2"
)

// GetMap returns the boundary GeoJSON with each feature's style resolved
// against the current colors. If the dataset cannot be loaded the response is
// an empty collection with a warning.
// GET /api/map
func (h *Handler) GetMap(c *fiber.Ctx) error {
	fc, err := h.Boundaries.Render(h.Store.GetAll())
	resp := fiber.Map{
		"geojson":   fc,
		"highlight": services.HighlightStyle,
	}
	if err != nil {
		resp["warning"] = "Country boundaries are unavailable, try again later"
	}
	return c.JSON(resp)
}

// WhereAmI resolves the caller's country and its current color
// GET /api/whereami
func (h *Handler) WhereAmI(c *fiber.Ctx) error {
	if h.GeoIP == nil || !h.GeoIP.Enabled() {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "GeoIP lookup is not configured"})
	}

	visitor, err := h.GeoIP.Lookup(c.IP())
	if errors.Is(err, services.ErrGeoIPDisabled) {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "GeoIP lookup is not configured"})
	}
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Could not locate your IP"})
	}

	resp := fiber.Map{
		"country":  visitor.Country,
		"iso_code": visitor.ISOCode,
		"colored":  false,
	}
	if e, ok := h.Store.Get(visitor.Country); ok {
		resp["colored"] = true
		resp["color"] = e.Color
		resp["color_name"] = e.ColorName
	}
	return c.JSON(resp)
}
