package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %d error, got nil", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
	expectHTTPError(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			c := e.NewContext(req, httptest.NewRecorder())

			err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
			expectHTTPError(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidTokenSetsCaller(t *testing.T) {
	tokenStr := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "0xDoctor",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}, testSigningKey)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var caller string
	h := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(func(c echo.Context) error {
		caller = UserIDFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if caller != "0xDoctor" {
		t.Errorf("expected caller 0xDoctor, got %q", caller)
	}
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	tokenStr := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "0xDoctor",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, []byte("some-other-key"))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c := e.NewContext(req, httptest.NewRecorder())

	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
	expectHTTPError(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	tokenStr := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "0xDoctor",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}, testSigningKey)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c := e.NewContext(req, httptest.NewRecorder())

	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
	expectHTTPError(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_MissingSubject(t *testing.T) {
	tokenStr := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSigningKey)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c := e.NewContext(req, httptest.NewRecorder())

	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
	expectHTTPError(t, err, http.StatusUnauthorized)
}

func TestDevAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"header wins", "0xPatient", "0xPatient"},
		{"default when absent", "", "0xAdmin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(CallerHeader, tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			var got string
			h := DevAuthMiddleware("0xAdmin")(func(c echo.Context) error {
				got = UserIDFromContext(c.Request().Context())
				return nil
			})
			if err := h(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("caller = %q, want %q", got, tt.want)
			}
		})
	}
}
