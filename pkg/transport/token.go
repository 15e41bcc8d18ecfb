package transport

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry returns the exp claim of a JWT token without verifying its signature.
// ok is false for opaque tokens and for JWTs without an exp claim.
func TokenExpiry(token string) (expiry time.Time, ok bool) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
