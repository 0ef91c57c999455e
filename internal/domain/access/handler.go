package access

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/auth"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/pkg/pagination"
)

type Handler struct {
	graph *Graph
}

func NewHandler(graph *Graph) *Handler {
	return &Handler{graph: graph}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/grants", h.Grant)
	api.GET("/grants/:doctor_id/:patient_id", h.IsAuthorized)
	api.DELETE("/grants/:doctor_id/:patient_id", h.Revoke)
	api.GET("/doctors/:doctor_id/patients", h.ListPatients)
	api.GET("/patients/:patient_id/doctors", h.ListDoctors)
}

type grantRequest struct {
	DoctorID  string `json:"doctor_id"`
	PatientID string `json:"patient_id"`
}

func (h *Handler) Grant(c echo.Context) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	g, err := h.graph.Grant(ctx, auth.UserIDFromContext(ctx), req.DoctorID, req.PatientID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) Revoke(c echo.Context) error {
	ctx := c.Request().Context()
	err := h.graph.Revoke(ctx, auth.UserIDFromContext(ctx), c.Param("doctor_id"), c.Param("patient_id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) IsAuthorized(c echo.Context) error {
	d, p := c.Param("doctor_id"), c.Param("patient_id")
	ok, err := h.graph.IsAuthorized(c.Request().Context(), d, p)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, Status{DoctorID: d, PatientID: p, Authorized: ok})
}

func (h *Handler) ListPatients(c echo.Context) error {
	ids, err := h.graph.ListPatients(c.Request().Context(), c.Param("doctor_id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(ids, pagination.FromContext(c)))
}

func (h *Handler) ListDoctors(c echo.Context) error {
	ids, err := h.graph.ListDoctors(c.Request().Context(), c.Param("patient_id"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(ids, pagination.FromContext(c)))
}
