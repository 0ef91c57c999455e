package audit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/pkg/pagination"
)

type Handler struct {
	ledger *Ledger
	names  NameResolver
}

func NewHandler(ledger *Ledger, names NameResolver) *Handler {
	return &Handler{ledger: ledger, names: names}
}

// RegisterRoutes mounts the ledger endpoints. exportMW guards the export
// endpoint.
func (h *Handler) RegisterRoutes(api *echo.Group, exportMW ...echo.MiddlewareFunc) {
	api.POST("/audit", h.Append)
	api.GET("/audit", h.Query)
	api.GET("/audit/export", h.Export, exportMW...)
}

type appendRequest struct {
	Actor      string `json:"actor"`
	ActionType string `json:"action_type"`
	Subject    string `json:"subject"`
	Details    string `json:"details"`
}

func (h *Handler) Append(c echo.Context) error {
	var req appendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	e, err := h.ledger.Append(c.Request().Context(), req.Actor, req.ActionType, req.Subject, req.Details)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func filterFrom(c echo.Context) Filter {
	return Filter{Actor: c.QueryParam("actor"), Subject: c.QueryParam("subject")}
}

func (h *Handler) Query(c echo.Context) error {
	entries, err := h.ledger.Find(c.Request().Context(), filterFrom(c))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(entries, pagination.FromContext(c)))
}

// Export handles GET /audit/export?format=text|csv.
func (h *Handler) Export(c echo.Context) error {
	ctx := c.Request().Context()
	entries, err := h.ledger.Find(ctx, filterFrom(c))
	if err != nil {
		return apperr.HTTP(err)
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	resp := c.Response()
	switch format := c.QueryParam("format"); format {
	case "", "text":
		resp.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
		resp.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"audit_logs_%s.txt\"", stamp))
		resp.WriteHeader(http.StatusOK)
		return WriteText(ctx, resp, entries, h.names)
	case "csv":
		resp.Header().Set(echo.HeaderContentType, "text/csv")
		resp.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"audit_logs_%s.csv\"", stamp))
		resp.WriteHeader(http.StatusOK)
		return WriteCSV(ctx, resp, entries, h.names)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unsupported export format %q", format))
	}
}
