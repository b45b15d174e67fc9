package hospital

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medatlas/medatlas/internal/platform/auth"
)

type fakeRepo struct {
	hospitals     map[uuid.UUID]*Hospital
	searchResults []SearchResult
	searchTotal   int
	searchErr     error
	createErr     error
	deactivated   []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{hospitals: make(map[uuid.UUID]*Hospital)}
}

func (f *fakeRepo) Create(_ context.Context, h *Hospital) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *h
	f.hospitals[h.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Hospital, error) {
	h, ok := f.hospitals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (f *fakeRepo) Search(_ context.Context, _ SearchFilter, _, _ int) ([]SearchResult, int, error) {
	if f.searchErr != nil {
		return nil, 0, f.searchErr
	}
	return f.searchResults, f.searchTotal, nil
}

func (f *fakeRepo) SetApproval(_ context.Context, id uuid.UUID, approved bool) error {
	h, ok := f.hospitals[id]
	if !ok {
		return ErrNotFound
	}
	h.IsApproved = approved
	return nil
}

func (f *fakeRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	h, ok := f.hospitals[id]
	if !ok || !h.IsActive {
		return ErrNotFound
	}
	h.IsActive = false
	f.deactivated = append(f.deactivated, id)
	return nil
}

func validHospital() *Hospital {
	return &Hospital{
		Name:               "Test Hospital",
		RegistrationNumber: "REG-001",
		Type:               TypePrivate,
		Address:            Address{Street: "1 Main St", City: "Pune", State: "Maharashtra", Pincode: "411001"},
		Latitude:           18.52,
		Longitude:          73.85,
		Beds: Beds{
			General: BedCount{Total: 50, Occupied: 10},
			ICU:     BedCount{Total: 10, Occupied: 2},
		},
	}
}

func TestService_Register(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, zerolog.Nop())
	owner := uuid.New()

	h := validHospital()
	h.IsApproved = true // client-supplied approval must be ignored

	if err := svc.Register(context.Background(), h, owner); err != nil {
		t.Fatalf("register: %v", err)
	}
	if h.IsApproved {
		t.Fatal("expected registration to start unapproved")
	}
	if !h.IsActive {
		t.Fatal("expected registration to start active")
	}
	if h.OwnerID != owner {
		t.Fatalf("owner = %s, want %s", h.OwnerID, owner)
	}
	if h.Beds.General.Available != 40 {
		t.Fatalf("expected available derived to 40, got %d", h.Beds.General.Available)
	}
	if _, ok := repo.hospitals[h.ID]; !ok {
		t.Fatal("expected hospital persisted")
	}
}

func TestService_Register_Validation(t *testing.T) {
	svc := NewService(newFakeRepo(), zerolog.Nop())

	tests := []struct {
		name    string
		mutate  func(*Hospital)
		wantErr error
	}{
		{"missing name", func(h *Hospital) { h.Name = " " }, ErrValidation},
		{"missing registration number", func(h *Hospital) { h.RegistrationNumber = "" }, ErrValidation},
		{"bad type", func(h *Hospital) { h.Type = "clinic" }, ErrValidation},
		{"bad coordinates", func(h *Hospital) { h.Latitude = 91 }, ErrValidation},
		{"occupied over total", func(h *Hospital) { h.Beds.ICU.Occupied = 99 }, ErrInvalidBedState},
		{"negative bed count", func(h *Hospital) { h.Beds.General.Total = -1 }, ErrValidation},
		{"bad blood group", func(h *Hospital) {
			h.BloodBank = []BloodStock{{Group: "C+", Units: 3}}
		}, ErrValidation},
		{"negative blood units", func(h *Hospital) {
			h.BloodBank = []BloodStock{{Group: BloodAPos, Units: -1}}
		}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHospital()
			tt.mutate(h)
			err := svc.Register(context.Background(), h, uuid.New())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_Deactivate_Ownership(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()

	tests := []struct {
		name    string
		actor   uuid.UUID
		role    string
		wantErr error
	}{
		{"owner may deactivate", owner, auth.RoleHospital, nil},
		{"admin may deactivate", stranger, auth.RoleAdmin, nil},
		{"stranger may not", stranger, auth.RoleHospital, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			h := validHospital()
			h.ID = uuid.New()
			h.OwnerID = owner
			h.IsActive = true
			repo.hospitals[h.ID] = h

			svc := NewService(repo, zerolog.Nop())
			err := svc.Deactivate(context.Background(), h.ID, tt.actor, tt.role)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && repo.hospitals[h.ID].IsActive {
				t.Fatal("expected hospital inactive")
			}
		})
	}
}

func TestService_Search_AnnotatesDistanceAndStaleness(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := *validHospital()
	fresh.ID = uuid.New()
	fresh.LastBedUpdate = now.Add(-1 * time.Hour)
	stale := *validHospital()
	stale.ID = uuid.New()
	stale.LastBedUpdate = now.Add(-13 * time.Hour)

	dist := 12340.0
	repo.searchResults = []SearchResult{
		{Hospital: fresh, DistanceMeters: &dist},
		{Hospital: stale},
	}
	repo.searchTotal = 2

	svc := NewService(repo, zerolog.Nop())
	svc.now = func() time.Time { return now }

	page, err := svc.Search(context.Background(), SearchFilter{}, 20, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Demo {
		t.Fatal("expected live results, not demo")
	}
	if len(page.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(page.Results))
	}

	if page.Results[0].DistanceKm == nil || *page.Results[0].DistanceKm != 12.3 {
		t.Fatalf("expected distanceKm 12.3, got %v", page.Results[0].DistanceKm)
	}
	if page.Results[0].IsDataStale {
		t.Fatal("1h-old data must not be stale")
	}
	if page.Results[1].DistanceKm != nil {
		t.Fatal("expected no distance in degraded mode result")
	}
	if !page.Results[1].IsDataStale {
		t.Fatal("13h-old data must be stale")
	}
}

func TestService_Search_FallsBackToDemoOnStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.searchErr = errors.New("connection refused")
	svc := NewService(repo, zerolog.Nop())

	page, err := svc.Search(context.Background(), SearchFilter{}, 20, 0)
	if err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}
	if !page.Demo {
		t.Fatal("expected demo flag on fallback page")
	}
	if len(page.Results) == 0 {
		t.Fatal("expected demo hospitals in fallback page")
	}
}

func TestService_Search_DemoFallbackAppliesFilters(t *testing.T) {
	repo := newFakeRepo()
	repo.searchErr = errors.New("connection refused")
	svc := NewService(repo, zerolog.Nop())

	page, err := svc.Search(context.Background(), SearchFilter{City: "gurugram"}, 20, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Results) != 1 {
		t.Fatalf("expected 1 demo hit for gurugram, got %d", len(page.Results))
	}
	if page.Results[0].Address.City != "Gurugram" {
		t.Fatalf("unexpected city %s", page.Results[0].Address.City)
	}
}

func TestService_Search_DemoFallbackRadiusBound(t *testing.T) {
	repo := newFakeRepo()
	repo.searchErr = errors.New("connection refused")
	svc := NewService(repo, zerolog.Nop())

	// Query from central Delhi with a tight radius; the Gurugram demo
	// facility (~30 km away) must be excluded.
	lat, lng := 28.6139, 77.2090
	page, err := svc.Search(context.Background(), SearchFilter{
		Latitude: &lat, Longitude: &lng, RadiusMeters: 10000,
	}, 20, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range page.Results {
		if r.Address.City == "Gurugram" {
			t.Fatal("expected facility outside radius to be excluded")
		}
		if r.DistanceKm == nil || *r.DistanceKm > 10 {
			t.Fatalf("expected distance within 10 km, got %v", r.DistanceKm)
		}
	}
	if len(page.Results) == 0 {
		t.Fatal("expected nearby demo hospitals inside radius")
	}
}
