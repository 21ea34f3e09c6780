// Package auth provides token issuance and validation for the gcdserver API.
// Tokens are HS256 JWTs; the signing method is pinned on both ends to prevent
// algorithm confusion.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the minimum accepted signing secret length in bytes.
const MinSecretLen = 32

// ErrWeakSecret is returned when the signing secret is too short.
var ErrWeakSecret = fmt.Errorf("auth: secret shorter than %d bytes", MinSecretLen)

// ValidateSecret checks the signing secret against the minimum length.
func ValidateSecret(secret []byte) error {
	if len(secret) < MinSecretLen {
		return ErrWeakSecret
	}
	return nil
}

// GenerateToken creates a signed JWT string from the given claims.
// IssuedAt, ExpiresAt and ID are set here; everything else is the caller's.
func GenerateToken(secret []byte, claims *Claims, expiry time.Duration, jti string) (string, error) {
	if err := ValidateSecret(secret); err != nil {
		return "", err
	}

	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiry))
	claims.ID = jti

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates a JWT string, returning the structured
// Claims. Only HS256 is accepted.
func ValidateToken(secret []byte, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v (only HS256 allowed)", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
