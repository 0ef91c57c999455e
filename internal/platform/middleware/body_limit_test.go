package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1M", 1 << 20},
		{"10MB", 10 << 20},
		{"512k", 512 << 10},
		{"1G", 1 << 30},
		{"1024", 1024},
		{"", 1 << 20},
		{"invalid", 1 << 20},
		{"-5", 1 << 20},
	}
	for _, tt := range tests {
		if got := parseLimit(tt.input); got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func readAll(c echo.Context) error {
	if _, err := io.ReadAll(c.Request().Body); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

func TestBodyLimit(t *testing.T) {
	body := strings.Repeat("x", 200)

	tests := []struct {
		name     string
		path     string
		noLength bool
		want     int
	}{
		{"default path rejected by content length", "/api/v1/grants", false, http.StatusRequestEntityTooLarge},
		{"default path rejected while reading", "/api/v1/grants", true, http.StatusRequestEntityTooLarge},
		{"record upload uses larger limit", "/api/v1/patients/P/records", false, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(body))
			if tt.noLength {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()

			err := BodyLimit("100", "1K")(readAll)(e.NewContext(req, rec))
			code := rec.Code
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, code)
			}
		})
	}
}

func TestBodyLimit_NoBody(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	err := BodyLimit("1", "1")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
	if err != nil || rec.Code != http.StatusOK {
		t.Errorf("expected pass-through, got %v / %d", err, rec.Code)
	}
}
