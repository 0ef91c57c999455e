package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/auth"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo) {
	t.Helper()
	reg, _ := newTestRegistry(t)
	return NewHandler(reg), echo.New()
}

func asCaller(req *http.Request, caller string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), caller))
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

func TestHandler_Register(t *testing.T) {
	h, e := newTestHandler(t)

	body := `{"id":"0xDoc","name":"Smith","role":"doctor"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/identities", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = asCaller(req, "0xAdmin")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var got Identity
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.ID != "0xDoc" || got.Role != RoleDoctor || !got.Registered {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name   string
		caller string
		body   string
		want   int
	}{
		{"non-admin caller", "0xStranger", `{"id":"0xP","name":"A","role":"patient"}`, http.StatusForbidden},
		{"duplicate", "0xAdmin", `{"id":"0xAdmin","name":"A","role":"admin"}`, http.StatusConflict},
		{"bad role", "0xAdmin", `{"id":"0xP","name":"A","role":"nurse"}`, http.StatusBadRequest},
		{"missing id", "0xAdmin", `{"name":"A","role":"patient"}`, http.StatusBadRequest},
		{"malformed body", "0xAdmin", `{"id":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, e := newTestHandler(t)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/identities", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			req = asCaller(req, tt.caller)
			c := e.NewContext(req, httptest.NewRecorder())

			err := h.Register(c)
			if code := statusOf(t, err); code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, code)
			}
		})
	}
}

func TestHandler_Lookup(t *testing.T) {
	h, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("0xAdmin")

	if err := h.Lookup(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("0xGhost")
	if code := statusOf(t, h.Lookup(c)); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_ListByRole(t *testing.T) {
	h, e := newTestHandler(t)
	ctx := context.Background()
	h.reg.Register(ctx, "0xAdmin", "0xD1", "One", RoleDoctor)
	h.reg.Register(ctx, "0xAdmin", "0xP1", "Pat", RolePatient)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/identities?role=doctor", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Data  []Identity `json:"data"`
		Total int        `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 || resp.Data[0].ID != "0xD1" {
		t.Errorf("unexpected list response: %+v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/identities?role=nurse", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	if code := statusOf(t, h.List(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}
