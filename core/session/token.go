package session

import (
	"encoding/json"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// TokenExpiry reads the `exp` claim of a JWT bearer token without verifying its signature.
// It is informational only: sessions end when the backend rejects the token.
// ok is false for opaque tokens and tokens without expiry.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	switch v := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC(), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Unix(n, 0).UTC(), true
		}
	}
	return time.Time{}, false
}
