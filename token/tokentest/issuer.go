// Package tokentest issues access tokens shaped like the platform's for tests.
package tokentest

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const signingKey = "tokentest-signing-key"

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Access issues an HS256 access token for userID that expires after ttl. A zero ttl leaves out the
// exp claim.
func Access(userID string, ttl time.Duration) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"token_type": "access",
		"user_id":    userID,
		"iat":        now.Unix(),
		"jti":        uuid.NewString(),
	}
	if ttl != 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}
	return Sign(claims)
}

// Sign signs arbitrary claims.
func Sign(claims jwtlib.MapClaims) (string, error) {
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}
