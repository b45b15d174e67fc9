package inventory

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medatlas/medatlas/internal/domain/hospital"
	"github.com/medatlas/medatlas/internal/platform/auth"
)

func newInventoryHandler(store *fakeStore) (*Handler, *echo.Echo) {
	svc := NewService(store, store, &fakePublisher{}, zerolog.Nop())
	return NewHandler(svc), echo.New()
}

func authedContext(e *echo.Echo, method, target, body string, userID uuid.UUID, role string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.ContextWithIdentity(req.Context(), userID.String(), role))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_SetBeds_OK(t *testing.T) {
	owner := uuid.New()
	h := testFacility(owner)
	handler, e := newInventoryHandler(newFakeStore(h))

	body := `{"beds": {"general": {"total": 30, "occupied": 12}}}`
	c, rec := authedContext(e, http.MethodPut, "/", body, owner, auth.RoleHospital)
	c.SetParamNames("id")
	c.SetParamValues(h.ID.String())

	if err := handler.SetBeds(c); err != nil {
		t.Fatalf("set beds: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data struct {
			Beds hospital.Beds `json:"beds"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Beds.General.Available != 18 {
		t.Fatalf("available = %d, want 18", resp.Data.Beds.General.Available)
	}
}

func TestHandler_SetBeds_InvalidBedStateCode(t *testing.T) {
	owner := uuid.New()
	h := testFacility(owner)
	handler, e := newInventoryHandler(newFakeStore(h))

	body := `{"beds": {"general": {"total": 10, "occupied": 20}}}`
	c, rec := authedContext(e, http.MethodPut, "/", body, owner, auth.RoleHospital)
	c.SetParamNames("id")
	c.SetParamValues(h.ID.String())

	if err := handler.SetBeds(c); err != nil {
		t.Fatalf("handler returned err instead of body: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Error.Code != CodeInvalidBedState {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_BedDelta_InsufficientResourceCode(t *testing.T) {
	owner := uuid.New()
	h := testFacility(owner)
	h.Beds.ICU = hospital.BedCount{Total: 10, Occupied: 10}.Derive()
	handler, e := newInventoryHandler(newFakeStore(h))

	body := fmt.Sprintf(`{"hospitalId": %q, "bedType": "icu", "delta": -1}`, h.ID)
	c, rec := authedContext(e, http.MethodPost, "/hospitals/update-beds", body, owner, auth.RoleHospital)

	if err := handler.BedDelta(c); err != nil {
		t.Fatalf("handler returned err instead of body: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != CodeInsufficientResource {
		t.Fatalf("code = %q, want %q", resp.Error.Code, CodeInsufficientResource)
	}
}

func TestHandler_BedDelta_Forbidden(t *testing.T) {
	h := testFacility(uuid.New())
	handler, e := newInventoryHandler(newFakeStore(h))

	body := fmt.Sprintf(`{"hospitalId": %q, "bedType": "general", "delta": -1}`, h.ID)
	c, _ := authedContext(e, http.MethodPost, "/hospitals/update-beds", body, uuid.New(), auth.RoleHospital)

	err := handler.BedDelta(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestHandler_BloodDelta_MissingHospital(t *testing.T) {
	handler, e := newInventoryHandler(newFakeStore())

	body := fmt.Sprintf(`{"hospitalId": %q, "bloodGroup": "O+", "delta": 5}`, uuid.New())
	c, _ := authedContext(e, http.MethodPost, "/hospitals/update-blood", body, uuid.New(), auth.RoleAdmin)

	err := handler.BloodDelta(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_BulkSetBlood_OK(t *testing.T) {
	owner := uuid.New()
	h := testFacility(owner)
	handler, e := newInventoryHandler(newFakeStore(h))

	body := `{"entries": [
		{"bloodGroup": "O+", "units": 12},
		{"bloodGroup": "A-", "units": 2}
	]}`
	c, rec := authedContext(e, http.MethodPatch, "/", body, owner, auth.RoleHospital)
	c.SetParamNames("id")
	c.SetParamValues(h.ID.String())

	if err := handler.BulkSetBlood(c); err != nil {
		t.Fatalf("bulk set: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data struct {
			LowStockAlerts []hospital.BloodStock `json:"lowStockAlerts"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var hasANeg bool
	for _, s := range resp.Data.LowStockAlerts {
		if s.Group == hospital.BloodANeg {
			hasANeg = true
		}
	}
	if !hasANeg {
		t.Fatal("expected A- in low stock alerts")
	}
}
