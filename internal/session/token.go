// Package session validates and persists the bearer token issued by the
// backend. The portal never holds the signing key, so it only reads the
// token's expiry claim; the backend remains the authority on validity.
package session

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned when a token is missing, malformed or past
// its exp claim. It forces the session to the logged-out state and is not
// shown to the user as an error.
var ErrTokenExpired = errors.New("session token expired or invalid")

var unverified = jwt.NewParser()

// ExpiresAt decodes the exp claim of a three-segment token. Only the
// payload segment is read; the header and signature are not looked at.
func ExpiresAt(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, ErrTokenExpired
	}
	raw, err := unverified.DecodeSegment(parts[1])
	if err != nil {
		return time.Time{}, ErrTokenExpired
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return time.Time{}, ErrTokenExpired
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrTokenExpired
	}
	return exp.Time, nil
}

// IsTokenExpired reports whether token should be treated as expired at
// now. Missing, malformed and exp-less tokens count as expired.
func IsTokenExpired(token string, now time.Time) bool {
	exp, err := ExpiresAt(token)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}
