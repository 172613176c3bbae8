package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/usercore/provisioning-api/internal/core/domain"
)

// RequireRoles enforces the declared role requirement for a route. Admission
// is set intersection: the caller needs at least one of the required roles.
// An empty requirement only demands that Auth ran and attached claims.
func RequireRoles(required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsKey).(domain.Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			if !claims.HasAnyRole(required...) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
