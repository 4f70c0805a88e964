package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenIssuer identifies tokens minted by this service.
const tokenIssuer = "truthcapture-identity"

// Claims represents the JWT claims for a session token. The JTI registered
// claim keys the server-side session registry, so a token can be revoked
// before it expires.
type Claims struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// JWTManager handles session token generation and validation.
type JWTManager struct {
	secret        []byte
	sessionExpiry time.Duration
}

// NewJWTManager creates a JWT manager with the given secret and session
// lifetime.
func NewJWTManager(secret string, sessionExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		sessionExpiry: sessionExpiry,
	}
}

// SessionExpiry returns the configured session token lifetime.
func (m *JWTManager) SessionExpiry() time.Duration {
	return m.sessionExpiry
}

// GenerateSessionToken creates a signed session token. The returned token ID
// is the JTI claim, used to register and later revoke the session.
func (m *JWTManager) GenerateSessionToken(userID, email, role string, emailVerified bool) (token string, tokenID string, err error) {
	now := time.Now().UTC()
	tokenID = uuid.New().String()
	claims := &Claims{
		UserID:        userID,
		Email:         email,
		Role:          role,
		EmailVerified: emailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.sessionExpiry)),
			Issuer:    tokenIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign session token: %w", err)
	}

	return signed, tokenID, nil
}

// ValidateSessionToken parses and validates a session token, returning its
// claims. Revocation is checked separately against the session registry.
func (m *JWTManager) ValidateSessionToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token claims")
	}

	return claims, nil
}
