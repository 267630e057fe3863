package handlers

import (
	"net/http"
	"strings"

	"country-color-map/backend/models"
	"country-color-map/backend/services"
	"country-color-map/backend/system"

	"github.com/gofiber/fiber/v2"
)

const (
	localSession = "session"
	localClaims  = "claims"
)

// LoginRequest struct
type LoginRequest struct {
	Password string `json:"password"`
}

// Login exchanges the admin secret for a session token
// POST /api/login
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	s, err := h.Auth.Login(req.Password)
	if err != nil {
		system.Warn("Failed admin login from %s", c.IP())
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Incorrect password"})
	}

	token, err := h.Sessions.Issue(s)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Could not login"})
	}

	system.Info("Admin logged in from %s", c.IP())
	return c.JSON(fiber.Map{"token": token, "is_admin": s.IsAdmin})
}

// Logout drops admin rights for the presented token
// POST /api/logout
func (h *Handler) Logout(c *fiber.Ctx) error {
	if claims, ok := c.Locals(localClaims).(*services.SessionClaims); ok {
		h.Sessions.Revoke(claims)
	}
	s := h.Auth.Logout(session(c))
	c.Locals(localSession, s)
	return c.JSON(s)
}

// GetSession reports whether the caller is an admin
// GET /api/session
func (h *Handler) GetSession(c *fiber.Ctx) error {
	return c.JSON(session(c))
}

// SessionMiddleware resolves the bearer token into a models.Session. Missing or
// invalid tokens give a visitor session rather than an error, since viewing
// the map needs no login.
func (h *Handler) SessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(localSession, models.Session{})

		authHeader := c.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Next()
		}

		s, claims, err := h.Sessions.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return c.Next()
		}
		c.Locals(localSession, s)
		c.Locals(localClaims, claims)
		return c.Next()
	}
}

// RequireAdmin rejects visitor sessions. Must run after SessionMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !session(c).IsAdmin {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Admin login required"})
		}
		return c.Next()
	}
}
