// Package auth issues and checks the identity tokens that scope every carbon
// entry and goal to one user.
//
// AUTHENTICATION FLOW:
//  1. The user signs up or logs in with a username and password (or, when
//     configured, through GitHub OAuth).
//  2. The server issues a signed JWT and stores it in the HttpOnly "token"
//     cookie.
//  3. On every /api call, RequireAuth reads the cookie, validates the JWT and
//     puts the user ID in the request context.
//
// Tokens are stateless: the server keeps no session table, so logging out
// only deletes the cookie.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer is written to and required in every token.
	Issuer = "ecoguardian"

	// DefaultTokenTTL matches the one-week session lifetime users expect
	// from the web dashboard.
	DefaultTokenTTL = 7 * 24 * time.Hour

	minSecretLen = 16
)

// TokenService handles JWT creation and validation with an HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. A zero ttl selects DefaultTokenTTL.
// Example secret: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLen)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is how long issued tokens stay valid. Cookie lifetimes follow it.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. The internal user ID travels in "sub".
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for userID valid for the service TTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. A negative d
// produces an already expired token, which tests use.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// ErrTokenExpired is returned by Validate for a well-formed but expired token.
var ErrTokenExpired = errors.New("auth: token expired")

// Validate parses and verifies a JWT string and returns the user ID in its
// "sub" claim.
//
// The library checks the signature, expiry and issuer. Restricting the valid
// methods to HS256 prevents algorithm confusion ("alg": "none" tokens).
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}
	return c.Subject, nil
}
