package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"country-color-map/backend/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// SessionClaims is the JWT payload carrying a models.Session
type SessionClaims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies session tokens. Logged-out tokens are
// remembered until they would have expired anyway.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry
}

// NewSessionManager signs with secret; an empty secret gets a random key,
// which means tokens do not survive a restart.
func NewSessionManager(secret string, ttl time.Duration) (*SessionManager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
	}
	return &SessionManager{
		secret:  key,
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}, nil
}

// Issue signs a token for the session
func (m *SessionManager) Issue(s models.Session) (string, error) {
	now := m.now()
	claims := SessionClaims{
		Admin: s.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies the token. Any failure, including revocation, is an error and
// callers should treat the visitor as a non-admin.
func (m *SessionManager) Parse(tokenString string) (models.Session, *SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return models.Session{}, nil, fmt.Errorf("invalid or expired token: %w", err)
	}
	if !token.Valid {
		return models.Session{}, nil, errors.New("invalid or expired token")
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(m.now()) {
		return models.Session{}, nil, errors.New("invalid or expired token")
	}
	if m.isRevoked(claims.ID) {
		return models.Session{}, nil, errors.New("session has been logged out")
	}
	return models.Session{IsAdmin: claims.Admin}, claims, nil
}

// Revoke invalidates a token id until exp
func (m *SessionManager) Revoke(claims *SessionClaims) {
	if claims == nil || claims.ID == "" {
		return
	}
	exp := m.now().Add(m.ttl)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[claims.ID] = exp
	m.pruneLocked()
}

func (m *SessionManager) isRevoked(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[id]
	return ok
}

func (m *SessionManager) pruneLocked() {
	now := m.now()
	for id, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, id)
		}
	}
}
