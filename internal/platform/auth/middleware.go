package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"

	// CallerHeader names the principal in development mode.
	CallerHeader = "X-Caller-ID"
)

// Claims carries the caller's principal id in the standard sub claim.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// SigningKey selects HS256 verification instead of JWKS.
	SigningKey []byte
}

// JWTMiddleware validates a bearer token and stores its subject as the
// caller id on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	var keyFunc jwt.Keyfunc
	if len(cfg.SigningKey) > 0 {
		keyFunc = func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }
	} else {
		keyFunc = newKeySet(cfg.JWKSURL, defaultKeySetTTL).keyFunc
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "HS256"}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, keyFunc, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			c.SetRequest(c.Request().WithContext(WithUserID(c.Request().Context(), claims.Subject)))
			return next(c)
		}
	}
}

// DevAuthMiddleware trusts the X-Caller-ID header and falls back to
// defaultCaller when it is absent.
func DevAuthMiddleware(defaultCaller string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := strings.TrimSpace(c.Request().Header.Get(CallerHeader))
			if caller == "" {
				caller = defaultCaller
			}
			c.SetRequest(c.Request().WithContext(WithUserID(c.Request().Context(), caller)))
			return next(c)
		}
	}
}

// WithUserID returns ctx carrying id as the authenticated caller.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}
