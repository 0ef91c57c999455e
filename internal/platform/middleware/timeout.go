package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout puts a deadline on the request context and answers 504 when
// the handler has not returned by then. Paths under skipPrefixes (ledger
// exports, for one) are left unbounded.
func RequestTimeout(timeout time.Duration, skipPrefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, p := range skipPrefixes {
				if strings.HasPrefix(path, p) {
					return next(c)
				}
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			go func() { done <- next(c) }()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out")
				}
				return ctx.Err()
			}
		}
	}
}
