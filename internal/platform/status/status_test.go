package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func fixed(n int) CountFunc {
	return func(context.Context) (int, error) { return n, nil }
}

func TestReporter_Collect(t *testing.T) {
	r := NewReporter("memory", map[string]CountFunc{
		"identities": fixed(3),
		"audit":      fixed(7),
		"broken":     func(context.Context) (int, error) { return 0, errors.New("down") },
	})

	rep := r.Collect(context.Background())
	if rep.Backend != "memory" {
		t.Errorf("unexpected backend %q", rep.Backend)
	}
	if rep.Counts["identities"] != 3 || rep.Counts["audit"] != 7 {
		t.Errorf("unexpected counts %v", rep.Counts)
	}
	if _, ok := rep.Counts["broken"]; ok {
		t.Error("failed counter should not report a value")
	}
	if len(rep.Errors) != 1 || rep.Errors[0] != "broken: down" {
		t.Errorf("unexpected errors %v", rep.Errors)
	}
	if rep.Host.Goroutines <= 0 {
		t.Error("expected goroutine count")
	}
}

func TestReporter_Handler(t *testing.T) {
	r := NewReporter("leveldb", map[string]CountFunc{"records": fixed(2)})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/status", nil), rec)

	if err := r.Handler(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got Report
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Backend != "leveldb" || got.Counts["records"] != 2 {
		t.Errorf("unexpected report %+v", got)
	}
}
