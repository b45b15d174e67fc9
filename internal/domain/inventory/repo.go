package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medatlas/medatlas/internal/domain/hospital"
)

// BedSet is the absolute bed state for one category in a write request.
// Available is never accepted from clients; the store derives it.
type BedSet struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
}

// BloodEntry is one absolute blood-stock write.
type BloodEntry struct {
	Group      hospital.BloodGroup `json:"bloodGroup"`
	Units      int                 `json:"units"`
	ExpiryDate *time.Time          `json:"expiryDate,omitempty"`
}

// Repository performs atomic conditional inventory updates. Every method
// changes at most one facility, and guards run inside the store so that
// concurrent writers cannot interleave between check and write.
type Repository interface {
	// ApplyBedDelta shifts the available count of one category by a signed
	// delta (negative = occupy a bed). The update applies only while both
	// the new available and occupied counts stay in range; a guarded miss
	// on an existing active facility is ErrInsufficientResource.
	ApplyBedDelta(ctx context.Context, hospitalID uuid.UUID, category hospital.BedCategory, delta int) (hospital.BedCount, error)

	// SetBedCounts overwrites total/occupied for the given categories in a
	// single statement and returns the full derived bed state.
	SetBedCounts(ctx context.Context, hospitalID uuid.UUID, counts map[hospital.BedCategory]BedSet) (hospital.Beds, error)

	// ApplyBloodDelta shifts one blood group's units, creating the row when
	// a positive delta targets a missing group. Draining below zero is
	// ErrInsufficientResource.
	ApplyBloodDelta(ctx context.Context, hospitalID uuid.UUID, group hospital.BloodGroup, delta int) (int, error)

	// UpsertBlood writes absolute blood rows (single or bulk) in one
	// transaction and stamps lastBloodUpdate.
	UpsertBlood(ctx context.Context, hospitalID uuid.UUID, entries []BloodEntry) error

	// GetBloodBank reads the facility's full blood bank.
	GetBloodBank(ctx context.Context, hospitalID uuid.UUID) ([]hospital.BloodStock, error)
}
