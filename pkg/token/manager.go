package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "telehealth-backend"

// Manager signs and verifies HMAC session tokens.
type Manager struct {
	secret            []byte
	expiration        time.Duration
	refreshExpiration time.Duration
}

// Claims carries the authenticated identity inside a token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	// ConsultationID is set only on consultation session tokens.
	ConsultationID string `json:"consultation_id,omitempty"`
	jwt.RegisteredClaims
}

// NewManager creates a new token manager.
func NewManager(secret string, expiration, refreshExpiration time.Duration) *Manager {
	return &Manager{
		secret:            []byte(secret),
		expiration:        expiration,
		refreshExpiration: refreshExpiration,
	}
}

// GenerateAccessToken issues a short-lived token carrying the full identity.
func (m *Manager) GenerateAccessToken(userID, email, role string) (string, error) {
	return m.sign(&Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	})
}

// GenerateRefreshToken issues a long-lived token carrying only the user id.
func (m *Manager) GenerateRefreshToken(userID string) (string, error) {
	return m.sign(&Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.refreshExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	})
}

// GenerateConsultationToken issues a session token scoped to one consultation.
func (m *Manager) GenerateConsultationToken(userID, consultationID string) (string, error) {
	return m.sign(&Claims{
		UserID:         userID,
		ConsultationID: consultationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	})
}

func (m *Manager) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a token, returning its claims.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// RefreshExpiration returns the refresh token lifetime.
func (m *Manager) RefreshExpiration() time.Duration {
	return m.refreshExpiration
}
