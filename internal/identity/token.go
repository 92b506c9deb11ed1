// Package identity issues and verifies the session tokens that carry an
// authenticated actor's id and role into the HTTP layer. The core trusts
// verified claims fully; it performs no further identity checks.
package identity

import (
	"fmt"
	"time"

	"github.com/agronova-labs/agronova/internal/access"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ActorClaims are the JWT claims for an Agronova actor session token.
type ActorClaims struct {
	jwt.RegisteredClaims
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
}

// TokenIssuer issues and verifies actor session JWTs signed with HMAC-SHA256.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer.
//
//	secret    — HMAC signing key; must be non-empty and shared by all instances.
//	issuerURL — The "iss" claim value; matches the service's base URL.
//	ttl       — Token lifetime (default: 24 hours).
func NewTokenIssuer(secret []byte, issuerURL string, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: secret, issuer: issuerURL, ttl: ttl}
}

// Issue creates a signed session token for the actor.
func (t *TokenIssuer) Issue(actorID string, role access.Role) (string, error) {
	now := time.Now().UTC()
	claims := ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   actorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.New().String(),
		},
		ActorID: actorID,
		Role:    string(role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign actor token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
func (t *TokenIssuer) Verify(tokenStr string) (*ActorClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&ActorClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify actor token: %w", err)
	}
	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid actor token claims")
	}
	if _, err := access.ParseRole(claims.Role); err != nil {
		return nil, fmt.Errorf("actor token carries %w", err)
	}
	return claims, nil
}
