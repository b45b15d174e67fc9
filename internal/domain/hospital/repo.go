package hospital

import (
	"context"

	"github.com/google/uuid"
)

// Sort orders for degraded (non-geo) search mode.
const (
	SortByCreated = "created"
	SortByRating  = "rating"
	SortByBeds    = "beds"
	SortByUpdated = "updated"
)

// DefaultRadiusMeters bounds geo search when the caller supplies none.
const DefaultRadiusMeters = 25000

// Approval statuses for SearchFilter. The zero value serves the public
// view: approved facilities only.
const (
	ApprovalApproved = "approved"
	ApprovalPending  = "pending"
	ApprovalAll      = "all"
)

// SearchFilter describes a proximity/attribute search. When Latitude and
// Longitude are both set the search runs in geo mode (nearest first, hard
// radius bound); otherwise results are ordered by SortBy.
type SearchFilter struct {
	City          string
	Type          string
	MinRating     float64
	Open24x7      *bool
	HasEmergency  *bool
	BedType       BedCategory // require available > 0 for this category
	BloodGroup    BloodGroup
	MinBloodUnits int
	Latitude      *float64
	Longitude     *float64
	RadiusMeters  float64
	SortBy        string
	// ApprovalStatus widens the search past the public approved-only
	// baseline. Admin use only.
	ApprovalStatus string
}

// SearchResult pairs a facility with its distance from the query point.
// DistanceMeters is nil in degraded mode.
type SearchResult struct {
	Hospital       Hospital
	DistanceMeters *float64
}

// Repository is the facility store.
type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	Search(ctx context.Context, f SearchFilter, limit, offset int) ([]SearchResult, int, error)
	SetApproval(ctx context.Context, id uuid.UUID, approved bool) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}
