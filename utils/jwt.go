package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrNoExpiry       = errors.New("token has no exp claim")
)

// TokenExpiry reads the exp claim without verifying the signature.
// The clinic API owns the signing key; this is only used to decide
// whether a stored session is worth keeping.
func TokenExpiry(tokenString string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, ErrMalformedToken
	}

	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), nil
	case int64:
		return time.Unix(exp, 0), nil
	default:
		return time.Time{}, ErrNoExpiry
	}
}

// TokenExpired treats undecodable tokens as expired.
func TokenExpired(tokenString string, now time.Time) bool {
	exp, err := TokenExpiry(tokenString)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}

// TokenClaim extracts a string claim, e.g. "role" or "username", when the API embeds one.
func TokenClaim(tokenString, name string) string {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return ""
	}
	v, _ := claims[name].(string)
	return v
}
