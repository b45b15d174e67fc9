package inventory

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medatlas/medatlas/internal/domain/hospital"
	"github.com/medatlas/medatlas/internal/platform/auth"
)

// Body error codes, distinct from the HTTP status so clients can branch on
// the failure kind.
const (
	CodeInsufficientResource = "INSUFFICIENT_RESOURCE"
	CodeInvalidBedState      = "INVALID_BED_STATE"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts inventory mutation endpoints. All require a
// hospital or admin role; ownership is enforced in the service.
func (h *Handler) RegisterRoutes(protected *echo.Group) {
	g := protected.Group("", auth.RequireRole(auth.RoleHospital, auth.RoleAdmin))
	g.PUT("/hospitals/:id/beds", h.SetBeds)
	g.PUT("/hospitals/:id/blood", h.SetBlood)
	g.PATCH("/hospitals/:id/blood", h.BulkSetBlood)
	g.POST("/hospitals/update-beds", h.BedDelta)
	g.POST("/hospitals/update-blood", h.BloodDelta)
}

func identity(c echo.Context) (uuid.UUID, string, error) {
	ctx := c.Request().Context()
	actorID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, "", echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return actorID, auth.RoleFromContext(ctx), nil
}

// writeError maps service errors onto the response envelope.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, hospital.ErrInsufficientResource):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   echo.Map{"code": CodeInsufficientResource, "message": "not enough resources for this update"},
		})
	case errors.Is(err, hospital.ErrInvalidBedState):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   echo.Map{"code": CodeInvalidBedState, "message": err.Error()},
		})
	case errors.Is(err, hospital.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, hospital.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
	case errors.Is(err, hospital.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not your hospital")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "inventory update failed")
}

func (h *Handler) SetBeds(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	var req struct {
		Beds map[hospital.BedCategory]BedSet `json:"beds"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, role, err := identity(c)
	if err != nil {
		return err
	}

	beds, err := h.svc.SetBedCounts(c.Request().Context(), id, req.Beds, actorID, role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"beds": beds}})
}

func (h *Handler) BedDelta(c echo.Context) error {
	var req struct {
		HospitalID uuid.UUID            `json:"hospitalId"`
		BedType    hospital.BedCategory `json:"bedType"`
		Delta      int                  `json:"delta"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, role, err := identity(c)
	if err != nil {
		return err
	}

	count, err := h.svc.ApplyBedDelta(c.Request().Context(), req.HospitalID, req.BedType, req.Delta, actorID, role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"bedType": req.BedType, "beds": count},
	})
}

func (h *Handler) SetBlood(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	var entry BloodEntry
	if err := c.Bind(&entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, role, err := identity(c)
	if err != nil {
		return err
	}

	bank, lowStock, err := h.svc.SetBlood(c.Request().Context(), id, []BloodEntry{entry}, actorID, role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"bloodBank": bank, "lowStockAlerts": lowStock},
	})
}

func (h *Handler) BulkSetBlood(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	var req struct {
		Entries []BloodEntry `json:"entries"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, role, err := identity(c)
	if err != nil {
		return err
	}

	bank, lowStock, err := h.svc.SetBlood(c.Request().Context(), id, req.Entries, actorID, role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"bloodBank": bank, "lowStockAlerts": lowStock},
	})
}

func (h *Handler) BloodDelta(c echo.Context) error {
	var req struct {
		HospitalID uuid.UUID           `json:"hospitalId"`
		BloodGroup hospital.BloodGroup `json:"bloodGroup"`
		Delta      int                 `json:"delta"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, role, err := identity(c)
	if err != nil {
		return err
	}

	units, err := h.svc.ApplyBloodDelta(c.Request().Context(), req.HospitalID, req.BloodGroup, req.Delta, actorID, role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"bloodGroup": req.BloodGroup, "units": units},
	})
}
