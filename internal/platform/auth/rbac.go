package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RoleResolver returns the registered role of a principal.
type RoleResolver func(ctx context.Context, id string) (string, error)

// RequireRole returns middleware that admits callers whose registered role
// is one of roles. Roles come from the identity registry, not the token.
func RequireRole(resolve RoleResolver, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			caller := UserIDFromContext(ctx)
			if caller == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "no caller identity")
			}
			role, err := resolve(ctx, caller)
			if err == nil {
				for _, required := range roles {
					if role == required {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
