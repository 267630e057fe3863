package handlers

import (
	"errors"
	"net/http"

	"country-color-map/backend/models"
	"country-color-map/backend/services"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	Store      *services.ColorStore
	Auth       services.AuthGate
	Sessions   *services.SessionManager
	Boundaries *services.BoundaryService
	History    *services.HistoryService // optional
	GeoIP      *services.GeoIPService   // optional
	Webhook    *services.WebhookService // optional
}

func NewHandler(store *services.ColorStore, auth services.AuthGate, sessions *services.SessionManager, boundaries *services.BoundaryService) *Handler {
	return &Handler{Store: store, Auth: auth, Sessions: sessions, Boundaries: boundaries}
}

// Register mounts every API route on app
func (h *Handler) Register(app *fiber.App) {
	api := app.Group("/api", h.SessionMiddleware())

	// ===== Public =====
	api.Post("/login", h.Login)
	api.Post("/logout", h.Logout)
	api.Get("/session", h.GetSession)

	api.Get("/colors", h.GetColors)
	api.Get("/legend", h.GetLegend)
	api.Get("/countries", h.GetCountries)
	api.Get("/palette", h.GetPalette)
	api.Get("/map", h.GetMap)
	api.Get("/whereami", h.WhereAmI)

	// ===== Mutations (the store enforces admin) =====
	api.Put("/colors/:country", h.SetColor)
	api.Delete("/colors/:country", h.RemoveColor)
	api.Delete("/colors", h.ClearColors)

	// ===== Admin only =====
	api.Get("/history", RequireAdmin(), h.GetHistory)
	api.Get("/backup/export", RequireAdmin(), h.ExportColors)
	api.Post("/backup/import", RequireAdmin(), h.ImportColors)
	api.Post("/webhook/test", RequireAdmin(), h.TestWebhook)
}

// storeError maps store errors onto responses. Persistence failures mean the
// change is live in memory but not on disk, so they are reported as a warning.
func storeError(c *fiber.Ctx, err error, okBody fiber.Map) error {
	switch {
	case err == nil:
		return c.JSON(okBody)
	case errors.Is(err, services.ErrUnauthorized):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Admin login required"})
	case errors.Is(err, services.ErrUnknownCountry):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnknownColor):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrWriteFailed):
		okBody["warning"] = "Change applied but could not be saved to disk"
		return c.JSON(okBody)
	default:
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func session(c *fiber.Ctx) models.Session {
	s, _ := c.Locals(localSession).(models.Session)
	return s
}
