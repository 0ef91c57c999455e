package records

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/auth"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/pkg/pagination"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/:patient_id/records", h.AddRecord)
	api.GET("/patients/:patient_id/records", h.List)
	api.GET("/patients/:patient_id/records/:hash/history", h.History)
}

func (h *Handler) AddRecord(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}
	sub, err := DecodeSubmission(body)
	if err != nil {
		return apperr.HTTP(err)
	}

	ctx := c.Request().Context()
	rec, err := h.store.AddRecord(ctx, auth.UserIDFromContext(ctx), c.Param("patient_id"), sub)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) List(c echo.Context) error {
	activeOnly, _ := strconv.ParseBool(c.QueryParam("active"))

	var (
		items []*MedicalRecord
		err   error
	)
	if activeOnly {
		items, err = h.store.ListActive(c.Request().Context(), c.Param("patient_id"))
	} else {
		items, err = h.store.ListAll(c.Request().Context(), c.Param("patient_id"))
	}
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}

func (h *Handler) History(c echo.Context) error {
	chain, err := h.store.History(c.Request().Context(), c.Param("patient_id"), c.Param("hash"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, chain)
}
