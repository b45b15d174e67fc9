package admin

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medatlas/medatlas/internal/domain/hospital"
	"github.com/medatlas/medatlas/internal/platform/auth"
	"github.com/medatlas/medatlas/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the admin endpoints, all admin-only.
func (h *Handler) RegisterRoutes(protected *echo.Group) {
	g := protected.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	g.GET("/hospitals", h.ListHospitals)
	g.PUT("/hospitals/:id/approve", h.Decide)
	g.POST("/update-resources", h.UpdateResources)
	g.GET("/dashboard", h.Dashboard)
}

func (h *Handler) ListHospitals(c echo.Context) error {
	pg := pagination.FromContext(c)
	hospitals, total, err := h.svc.ListHospitals(c.Request().Context(), c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, hospital.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "listing failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"hospitals":  hospitals,
			"pagination": pagination.NewMeta(pg, total),
		},
	})
}

func (h *Handler) Decide(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	var req struct {
		Action string `json:"action"`
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	adminID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}

	if err := h.svc.Decide(c.Request().Context(), id, req.Action, req.Reason, adminID); err != nil {
		switch {
		case errors.Is(err, hospital.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, hospital.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "approval update failed")
	}
	msg := "Hospital approved"
	if req.Action == ActionReject {
		msg = "Hospital rejected"
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": msg})
}

func (h *Handler) UpdateResources(c echo.Context) error {
	var req QuickUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	adminID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}

	if err := h.svc.UpdateResources(c.Request().Context(), req, adminID); err != nil {
		switch {
		case errors.Is(err, hospital.ErrValidation), errors.Is(err, hospital.ErrInvalidBedState):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, hospital.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "resource update failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Resources updated"})
}

func (h *Handler) Dashboard(c echo.Context) error {
	stats, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "dashboard query failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": stats})
}
