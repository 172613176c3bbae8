package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/usercore/provisioning-api/internal/core/domain"
)

// ClaimsKey is the echo context key under which Auth stores the decoded
// domain.Claims for downstream handlers and middleware.
const ClaimsKey = "auth_claims"

// Auth validates the bearer JWT and injects the decoded claims into the
// request context. Every verification failure collapses to the same 401
// message so callers learn nothing about why a token was rejected.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get("Authorization"))
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token not provided")
			}

			mapClaims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(token, mapClaims, func(t *jwt.Token) (interface{}, error) {
				if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(ClaimsKey, claimsFromToken(mapClaims))
			return next(c)
		}
	}
}

// bearerToken extracts the token segment from "Bearer <token>". Returns ""
// when the header is absent, malformed, or carries another scheme.
func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// claimsFromToken builds the typed claims record from the verified payload.
// A missing or oddly-typed roles claim yields an empty role set.
func claimsFromToken(mc jwt.MapClaims) domain.Claims {
	claims := domain.Claims{}

	if sub, ok := mc["sub"].(string); ok {
		claims.Subject = sub
	}

	if raw, ok := mc["roles"].([]interface{}); ok {
		roles := make([]string, 0, len(raw))
		for _, r := range raw {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
		claims.Roles = roles
	}

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims
}
