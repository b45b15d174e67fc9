package hospital

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medatlas/medatlas/internal/platform/auth"
	"github.com/medatlas/medatlas/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts facility routes. Reads are public; registration and
// deactivation require authentication.
func (h *Handler) RegisterRoutes(public, protected *echo.Group) {
	public.GET("/hospitals", h.List)
	public.GET("/hospitals/:id", h.Get)

	protected.POST("/hospitals", h.Register, auth.RequireRole(auth.RoleHospital))
	protected.DELETE("/hospitals/:id", h.Deactivate, auth.RequireRole(auth.RoleHospital, auth.RoleAdmin))
}

func (h *Handler) List(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pg := pagination.FromContext(c)
	page, err := h.svc.Search(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	data := echo.Map{
		"hospitals":  page.Results,
		"pagination": pagination.NewMeta(pg, page.Total),
	}
	if page.Demo {
		data["demo"] = true
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}

	hosp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": hosp})
}

func (h *Handler) Register(c echo.Context) error {
	var hosp Hospital
	if err := c.Bind(&hosp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ownerID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}

	if err := h.svc.Register(c.Request().Context(), &hosp, ownerID); err != nil {
		switch {
		case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidBedState):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrDuplicate):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data":    hosp,
		"message": "Hospital registered, pending admin approval",
	})
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}

	ctx := c.Request().Context()
	actorID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}

	if err := h.svc.Deactivate(ctx, id, actorID, auth.RoleFromContext(ctx)); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		case errors.Is(err, ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, "not your hospital")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "deactivation failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Hospital deactivated"})
}

// filterFromQuery parses listing filters from query parameters.
func filterFromQuery(c echo.Context) (SearchFilter, error) {
	var f SearchFilter
	f.City = c.QueryParam("city")
	f.Type = c.QueryParam("type")
	f.SortBy = c.QueryParam("sortBy")

	if v := c.QueryParam("minRating"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, errors.New("invalid minRating")
		}
		f.MinRating = r
	}
	if v := c.QueryParam("open24x7"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("invalid open24x7")
		}
		f.Open24x7 = &b
	}
	if v := c.QueryParam("hasEmergency"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("invalid hasEmergency")
		}
		f.HasEmergency = &b
	}
	if v := c.QueryParam("bedType"); v != "" {
		cat := BedCategory(v)
		if !cat.Valid() {
			return f, errors.New("invalid bedType")
		}
		f.BedType = cat
	}
	if v := c.QueryParam("bloodGroup"); v != "" {
		g := BloodGroup(v)
		if !g.Valid() {
			return f, errors.New("invalid bloodGroup")
		}
		f.BloodGroup = g
	}
	if v := c.QueryParam("minBloodUnits"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("invalid minBloodUnits")
		}
		f.MinBloodUnits = n
	}

	latStr, lngStr := c.QueryParam("latitude"), c.QueryParam("longitude")
	if (latStr == "") != (lngStr == "") {
		return f, errors.New("latitude and longitude must be supplied together")
	}
	if latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return f, errors.New("invalid latitude")
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return f, errors.New("invalid longitude")
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return f, errors.New("coordinates out of range")
		}
		f.Latitude, f.Longitude = &lat, &lng
	}
	if v := c.QueryParam("radius"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			return f, errors.New("invalid radius")
		}
		f.RadiusMeters = r
	}
	return f, nil
}
