package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/auth"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/pkg/pagination"
)

type Handler struct {
	reg *Registry
}

func NewHandler(reg *Registry) *Handler {
	return &Handler{reg: reg}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/identities", h.Register)
	api.GET("/identities", h.List)
	api.GET("/identities/:id", h.Lookup)
}

type registerRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		return apperr.HTTP(err)
	}
	ctx := c.Request().Context()
	ident, err := h.reg.Register(ctx, auth.UserIDFromContext(ctx), req.ID, req.Name, role)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, ident)
}

func (h *Handler) Lookup(c echo.Context) error {
	ident, err := h.reg.Lookup(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, ident)
}

func (h *Handler) List(c echo.Context) error {
	var role Role
	if q := c.QueryParam("role"); q != "" {
		r, err := ParseRole(q)
		if err != nil {
			return apperr.HTTP(err)
		}
		role = r
	}
	items, err := h.reg.List(c.Request().Context(), role)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}
