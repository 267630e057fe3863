package services

import (
	"crypto/subtle"
	"strings"

	"country-color-map/backend/models"

	"golang.org/x/crypto/bcrypt"
)

// AuthGate decides whether a submitted secret grants an admin session
type AuthGate interface {
	Login(password string) (models.Session, error)
	Logout(session models.Session) models.Session
}

// SecretGate compares against one configured secret. A secret that looks like
// a bcrypt hash ("$2a$...", "$2b$...") is checked with bcrypt, anything else
// must match exactly. An empty secret rejects every login.
type SecretGate struct {
	secret string
	hashed bool
}

func NewSecretGate(secret string) *SecretGate {
	return &SecretGate{
		secret: secret,
		hashed: strings.HasPrefix(secret, "$2"),
	}
}

// Enabled reports whether admin login is possible at all
func (g *SecretGate) Enabled() bool {
	return g.secret != ""
}

func (g *SecretGate) Login(password string) (models.Session, error) {
	if g.secret == "" {
		return models.Session{}, ErrInvalidCredentials
	}

	if g.hashed {
		if err := bcrypt.CompareHashAndPassword([]byte(g.secret), []byte(password)); err != nil {
			return models.Session{}, ErrInvalidCredentials
		}
		return models.Session{IsAdmin: true}, nil
	}

	if subtle.ConstantTimeCompare([]byte(g.secret), []byte(password)) != 1 {
		return models.Session{}, ErrInvalidCredentials
	}
	return models.Session{IsAdmin: true}, nil
}

func (g *SecretGate) Logout(models.Session) models.Session {
	return models.Session{}
}
