package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medatlas/medatlas/internal/domain/hospital"
	"github.com/medatlas/medatlas/internal/domain/inventory"
	"github.com/medatlas/medatlas/internal/platform/realtime"
)

// fakeStore implements the facility reads and inventory writes the admin
// service reaches through.
type fakeStore struct {
	hospitals map[uuid.UUID]*hospital.Hospital
}

func newFakeStore(hs ...*hospital.Hospital) *fakeStore {
	s := &fakeStore{hospitals: make(map[uuid.UUID]*hospital.Hospital)}
	for _, h := range hs {
		s.hospitals[h.ID] = h
	}
	return s
}

func (s *fakeStore) Create(_ context.Context, h *hospital.Hospital) error {
	s.hospitals[h.ID] = h
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*hospital.Hospital, error) {
	h, ok := s.hospitals[id]
	if !ok {
		return nil, hospital.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (s *fakeStore) Search(_ context.Context, f hospital.SearchFilter, limit, offset int) ([]hospital.SearchResult, int, error) {
	var hits []hospital.SearchResult
	for _, h := range s.hospitals {
		if !h.IsActive {
			continue
		}
		switch f.ApprovalStatus {
		case hospital.ApprovalAll:
		case hospital.ApprovalPending:
			if h.IsApproved {
				continue
			}
		default:
			if !h.IsApproved {
				continue
			}
		}
		hits = append(hits, hospital.SearchResult{Hospital: *h})
	}
	total := len(hits)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return hits[offset:end], total, nil
}

func (s *fakeStore) SetApproval(_ context.Context, id uuid.UUID, approved bool) error {
	h, ok := s.hospitals[id]
	if !ok || !h.IsActive {
		return hospital.ErrNotFound
	}
	h.IsApproved = approved
	return nil
}

func (s *fakeStore) Deactivate(_ context.Context, id uuid.UUID) error {
	h, ok := s.hospitals[id]
	if !ok || !h.IsActive {
		return hospital.ErrNotFound
	}
	h.IsActive = false
	return nil
}

// inventory.Repository

func (s *fakeStore) ApplyBedDelta(_ context.Context, id uuid.UUID, category hospital.BedCategory, delta int) (hospital.BedCount, error) {
	h, ok := s.hospitals[id]
	if !ok {
		return hospital.BedCount{}, hospital.ErrNotFound
	}
	count := h.Beds.Get(category)
	count.Occupied -= delta
	*count = count.Derive()
	return *count, nil
}

func (s *fakeStore) SetBedCounts(_ context.Context, id uuid.UUID, counts map[hospital.BedCategory]inventory.BedSet) (hospital.Beds, error) {
	h, ok := s.hospitals[id]
	if !ok {
		return hospital.Beds{}, hospital.ErrNotFound
	}
	for category, set := range counts {
		count := h.Beds.Get(category)
		count.Total, count.Occupied = set.Total, set.Occupied
	}
	h.Beds = h.Beds.Derive()
	return h.Beds, nil
}

func (s *fakeStore) ApplyBloodDelta(_ context.Context, id uuid.UUID, group hospital.BloodGroup, delta int) (int, error) {
	h, ok := s.hospitals[id]
	if !ok {
		return 0, hospital.ErrNotFound
	}
	return h.BloodUnits(group) + delta, nil
}

func (s *fakeStore) UpsertBlood(_ context.Context, id uuid.UUID, entries []inventory.BloodEntry) error {
	h, ok := s.hospitals[id]
	if !ok {
		return hospital.ErrNotFound
	}
	for _, e := range entries {
		replaced := false
		for i := range h.BloodBank {
			if h.BloodBank[i].Group == e.Group {
				h.BloodBank[i].Units = e.Units
				replaced = true
			}
		}
		if !replaced {
			h.BloodBank = append(h.BloodBank, hospital.BloodStock{Group: e.Group, Units: e.Units, LastUpdated: time.Now()})
		}
	}
	return nil
}

func (s *fakeStore) GetBloodBank(_ context.Context, id uuid.UUID) ([]hospital.BloodStock, error) {
	h, ok := s.hospitals[id]
	if !ok {
		return nil, hospital.ErrNotFound
	}
	return append([]hospital.BloodStock(nil), h.BloodBank...), nil
}

type fakeStatsRepo struct {
	stats *DashboardStats
	err   error
}

func (f *fakeStatsRepo) DashboardStats(context.Context) (*DashboardStats, error) {
	return f.stats, f.err
}

type fakePublisher struct {
	events []realtime.Event
}

func (f *fakePublisher) Publish(ev realtime.Event) { f.events = append(f.events, ev) }

func (f *fakePublisher) ofType(t realtime.EventType) []realtime.Event {
	var out []realtime.Event
	for _, ev := range f.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func facility(name string, approved bool) *hospital.Hospital {
	return &hospital.Hospital{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Name:    name,
		Beds: hospital.Beds{
			General: hospital.BedCount{Total: 20, Occupied: 5}.Derive(),
			ICU:     hospital.BedCount{Total: 10, Occupied: 2}.Derive(),
		},
		IsApproved: approved,
		IsActive:   true,
	}
}

func newAdminService(store *fakeStore, stats *fakeStatsRepo, pub *fakePublisher) *Service {
	inv := inventory.NewService(store, store, pub, zerolog.Nop())
	return NewService(store, inv, stats, pub, zerolog.Nop())
}

func TestListHospitals_DefaultsToPending(t *testing.T) {
	store := newFakeStore(facility("Pending A", false), facility("Approved B", true))
	svc := newAdminService(store, &fakeStatsRepo{}, &fakePublisher{})

	hospitals, total, err := svc.ListHospitals(context.Background(), "", 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(hospitals) != 1 || hospitals[0].Name != "Pending A" {
		t.Fatalf("expected only the pending facility, got %+v", hospitals)
	}
}

func TestListHospitals_StatusAll(t *testing.T) {
	store := newFakeStore(facility("Pending A", false), facility("Approved B", true))
	svc := newAdminService(store, &fakeStatsRepo{}, &fakePublisher{})

	_, total, err := svc.ListHospitals(context.Background(), hospital.ApprovalAll, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
}

func TestListHospitals_InvalidStatus(t *testing.T) {
	svc := newAdminService(newFakeStore(), &fakeStatsRepo{}, &fakePublisher{})
	if _, _, err := svc.ListHospitals(context.Background(), "archived", 20, 0); !errors.Is(err, hospital.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestDecide_ApproveAndReject(t *testing.T) {
	pending := facility("Pending", false)
	store := newFakeStore(pending)
	svc := newAdminService(store, &fakeStatsRepo{}, &fakePublisher{})
	ctx := context.Background()
	admin := uuid.New()

	if err := svc.Decide(ctx, pending.ID, ActionApprove, "", admin); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !store.hospitals[pending.ID].IsApproved {
		t.Fatal("expected facility approved")
	}

	other := facility("Other", false)
	store.hospitals[other.ID] = other
	if err := svc.Decide(ctx, other.ID, ActionReject, "incomplete documents", admin); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if store.hospitals[other.ID].IsApproved {
		t.Fatal("rejected facility must not be approved")
	}
	if store.hospitals[other.ID].IsActive {
		t.Fatal("rejected facility must be deactivated, not deleted")
	}

	if err := svc.Decide(ctx, pending.ID, "defer", "", admin); !errors.Is(err, hospital.ErrValidation) {
		t.Fatalf("invalid action: err = %v, want ErrValidation", err)
	}
	if err := svc.Decide(ctx, uuid.New(), ActionApprove, "", admin); !errors.Is(err, hospital.ErrNotFound) {
		t.Fatalf("missing facility: err = %v, want ErrNotFound", err)
	}
}

func TestUpdateResources_BedPath(t *testing.T) {
	h := facility("Target", true)
	store := newFakeStore(h)
	pub := &fakePublisher{}
	svc := newAdminService(store, &fakeStatsRepo{}, pub)

	total, occupied := 30, 12
	err := svc.UpdateResources(context.Background(), QuickUpdate{
		HospitalID: h.ID,
		BedType:    hospital.BedGeneral,
		Total:      &total,
		Occupied:   &occupied,
	}, uuid.New())
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := store.hospitals[h.ID].Beds.General; got.Total != 30 || got.Available != 18 {
		t.Fatalf("unexpected beds after update: %+v", got)
	}
	if len(pub.ofType(realtime.EventAdminBedUpdate)) != 1 {
		t.Fatal("expected one ADMIN_BED_UPDATE event")
	}
}

func TestUpdateResources_RejectsOccupiedOverTotal(t *testing.T) {
	h := facility("Target", true)
	store := newFakeStore(h)
	svc := newAdminService(store, &fakeStatsRepo{}, &fakePublisher{})

	total, occupied := 10, 15
	err := svc.UpdateResources(context.Background(), QuickUpdate{
		HospitalID: h.ID,
		BedType:    hospital.BedGeneral,
		Total:      &total,
		Occupied:   &occupied,
	}, uuid.New())
	if !errors.Is(err, hospital.ErrInvalidBedState) {
		t.Fatalf("err = %v, want ErrInvalidBedState", err)
	}
	if store.hospitals[h.ID].Beds.General.Total != 20 {
		t.Fatal("rejected update must not change state")
	}
}

func TestUpdateResources_BloodPath(t *testing.T) {
	h := facility("Target", true)
	store := newFakeStore(h)
	pub := &fakePublisher{}
	svc := newAdminService(store, &fakeStatsRepo{}, pub)

	units := 9
	err := svc.UpdateResources(context.Background(), QuickUpdate{
		HospitalID: h.ID,
		BloodGroup: hospital.BloodOPos,
		Units:      &units,
	}, uuid.New())
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := store.hospitals[h.ID].BloodUnits(hospital.BloodOPos); got != 9 {
		t.Fatalf("O+ units = %d, want 9", got)
	}
	if len(pub.ofType(realtime.EventAdminBloodUpdate)) != 1 {
		t.Fatal("expected one ADMIN_BLOOD_UPDATE event")
	}
}

func TestUpdateResources_RequiresExactlyOneSection(t *testing.T) {
	h := facility("Target", true)
	svc := newAdminService(newFakeStore(h), &fakeStatsRepo{}, &fakePublisher{})
	ctx := context.Background()

	if err := svc.UpdateResources(ctx, QuickUpdate{HospitalID: h.ID}, uuid.New()); !errors.Is(err, hospital.ErrValidation) {
		t.Fatalf("neither section: err = %v, want ErrValidation", err)
	}

	total, units := 10, 5
	err := svc.UpdateResources(ctx, QuickUpdate{
		HospitalID: h.ID,
		BedType:    hospital.BedGeneral,
		Total:      &total,
		Occupied:   &total,
		BloodGroup: hospital.BloodAPos,
		Units:      &units,
	}, uuid.New())
	if !errors.Is(err, hospital.ErrValidation) {
		t.Fatalf("both sections: err = %v, want ErrValidation", err)
	}
}

func TestDashboard_Passthrough(t *testing.T) {
	want := &DashboardStats{TotalHospitals: 7, PendingApprovals: 2}
	svc := newAdminService(newFakeStore(), &fakeStatsRepo{stats: want}, &fakePublisher{})

	got, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if got.TotalHospitals != 7 || got.PendingApprovals != 2 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}
