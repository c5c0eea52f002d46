package client

import (
	"time"

	"github.com/dmitrijs2005/salonmate/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway refreshes slightly ahead of "exp" to absorb clock skew and
// request latency.
const expiryLeeway = 30 * time.Second

// tokenExpiry reads the "exp" claim of a JWT without verifying it; the
// pipeline only consumes tokens and never validates signatures.
// Opaque tokens and JWTs without "exp" yield common.ErrInvalidToken.
func tokenExpiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, common.ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, common.ErrInvalidToken
	}
	return claims.ExpiresAt.Time, nil
}

func (p *Pipeline) expired(token string) bool {
	if token == "" {
		return false
	}
	exp, err := tokenExpiry(token)
	if err != nil {
		return false
	}
	return !p.now().Before(exp.Add(-expiryLeeway))
}
