package emergency

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medatlas/medatlas/internal/domain/hospital"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the emergency endpoints. All are public: during an
// emergency nobody should be fighting a login screen.
func (h *Handler) RegisterRoutes(public *echo.Group) {
	public.GET("/hospitals/emergency", h.QuickSearch)
	public.POST("/emergency/intelligent-response", h.IntelligentResponse)
	public.GET("/emergency/alerts", h.Alerts)
}

func (h *Handler) QuickSearch(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("latitude"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid latitude")
	}
	lng, err := strconv.ParseFloat(c.QueryParam("longitude"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid longitude")
	}

	bedType := hospital.BedCategory(c.QueryParam("bedType"))
	minBeds := 1
	if v := c.QueryParam("minBeds"); v != "" {
		minBeds, err = strconv.Atoi(v)
		if err != nil || minBeds < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid minBeds")
		}
	}

	results, err := h.svc.QuickSearch(c.Request().Context(), lat, lng, bedType, minBeds)
	if err != nil {
		if errors.Is(err, hospital.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid bedType")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "emergency search failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"hospitals": results, "count": len(results)},
	})
}

func (h *Handler) IntelligentResponse(c echo.Context) error {
	var q Query
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.Match(c.Request().Context(), q)
	if err != nil {
		if errors.Is(err, hospital.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "emergency matching failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": result})
}

func (h *Handler) Alerts(c echo.Context) error {
	report, err := h.svc.EvaluateAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "alert scan failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": report})
}
