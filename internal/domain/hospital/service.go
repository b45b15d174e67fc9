package hospital

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medatlas/medatlas/internal/platform/auth"
	"github.com/medatlas/medatlas/pkg/geo"
)

// StaleAfter is how long a facility's bed data may go without an update
// before listings flag it as stale.
const StaleAfter = 12 * time.Hour

// Listed is one search hit as served to clients: the facility plus listing
// annotations.
type Listed struct {
	Hospital
	DistanceKm  *float64 `json:"distanceKm,omitempty"`
	IsDataStale bool     `json:"isDataStale"`
}

// Page is a page of search results. Demo is true when the store was
// unreachable and the static demo dataset was served instead.
type Page struct {
	Results []Listed
	Total   int
	Demo    bool
}

// Service implements facility registration, lookup, and proximity search.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

// NewService wires a facility service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "hospital").Logger(),
		now:    time.Now,
	}
}

// Register creates a facility pending admin approval. The owner is the
// authenticated caller; isApproved starts false regardless of input.
func (s *Service) Register(ctx context.Context, h *Hospital, ownerID uuid.UUID) error {
	if err := validateRegistration(h); err != nil {
		return err
	}

	h.ID = uuid.New()
	h.OwnerID = ownerID
	h.IsApproved = false
	h.IsActive = true
	h.Beds = h.Beds.Derive()
	for i := range h.BloodBank {
		if h.BloodBank[i].Units < 0 {
			return fmt.Errorf("%w: blood units must be non-negative", ErrValidation)
		}
	}

	if err := s.repo.Create(ctx, h); err != nil {
		return err
	}
	s.logger.Info().Str("hospital_id", h.ID.String()).Str("name", h.Name).Msg("hospital registered, pending approval")
	return nil
}

func validateRegistration(h *Hospital) error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(h.RegistrationNumber) == "" {
		return fmt.Errorf("%w: registrationNumber is required", ErrValidation)
	}
	if !ValidType(h.Type) {
		return fmt.Errorf("%w: invalid type %q", ErrValidation, h.Type)
	}
	if h.Address.City == "" || h.Address.State == "" {
		return fmt.Errorf("%w: address city and state are required", ErrValidation)
	}
	if !(geo.Point{Latitude: h.Latitude, Longitude: h.Longitude}).Valid() {
		return fmt.Errorf("%w: invalid coordinates", ErrValidation)
	}
	for _, c := range BedCategories {
		count := h.Beds.Get(c)
		if count.Total < 0 || count.Occupied < 0 {
			return fmt.Errorf("%w: bed counts must be non-negative", ErrValidation)
		}
		if count.Occupied > count.Total {
			return fmt.Errorf("%w: %s occupied exceeds total", ErrInvalidBedState, c)
		}
	}
	for _, b := range h.BloodBank {
		if !b.Group.Valid() {
			return fmt.Errorf("%w: invalid blood group %q", ErrValidation, b.Group)
		}
	}
	return nil
}

// Get returns a single facility by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

// Deactivate flips isActive off. Only the owning hospital account or an
// admin may deactivate; facilities are never hard-deleted.
func (s *Service) Deactivate(ctx context.Context, id, actorID uuid.UUID, role string) error {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role != auth.RoleAdmin && h.OwnerID != actorID {
		return ErrForbidden
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("hospital_id", id.String()).Str("actor", actorID.String()).Msg("hospital deactivated")
	return nil
}

// Search runs the proximity/attribute search. If the store read fails the
// listing degrades to the static demo dataset so the public view stays up.
func (s *Service) Search(ctx context.Context, f SearchFilter, limit, offset int) (Page, error) {
	results, total, err := s.repo.Search(ctx, f, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("store search failed, serving demo dataset")
		return s.demoPage(f, limit, offset), nil
	}

	page := Page{Total: total, Results: make([]Listed, 0, len(results))}
	for _, r := range results {
		page.Results = append(page.Results, s.annotate(r))
	}
	return page, nil
}

func (s *Service) annotate(r SearchResult) Listed {
	l := Listed{Hospital: r.Hospital}
	if r.DistanceMeters != nil {
		km := math.Round(*r.DistanceMeters/100) / 10
		l.DistanceKm = &km
	}
	l.IsDataStale = s.now().Sub(r.Hospital.LastBedUpdate) > StaleAfter
	return l
}

// demoPage filters the built-in demo dataset in memory, mirroring the store
// search semantics closely enough for a degraded read-only view.
func (s *Service) demoPage(f SearchFilter, limit, offset int) Page {
	var hits []Listed
	for _, h := range demoHospitals() {
		if !demoMatches(h, f) {
			continue
		}
		l := Listed{Hospital: h}
		if f.Latitude != nil && f.Longitude != nil {
			d := geo.Distance(geo.Point{Latitude: *f.Latitude, Longitude: *f.Longitude}, h.Point())
			radius := f.RadiusMeters
			if radius <= 0 {
				radius = DefaultRadiusMeters
			}
			if d > radius {
				continue
			}
			km := math.Round(d/100) / 10
			l.DistanceKm = &km
		}
		hits = append(hits, l)
	}

	if f.Latitude != nil && f.Longitude != nil {
		sort.Slice(hits, func(i, j int) bool {
			if *hits[i].DistanceKm != *hits[j].DistanceKm {
				return *hits[i].DistanceKm < *hits[j].DistanceKm
			}
			return hits[i].ID.String() < hits[j].ID.String()
		})
	}

	total := len(hits)
	if offset >= total {
		return Page{Total: total, Demo: true}
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return Page{Results: hits[offset:end], Total: total, Demo: true}
}

func demoMatches(h Hospital, f SearchFilter) bool {
	if f.City != "" && !strings.Contains(strings.ToLower(h.Address.City), strings.ToLower(f.City)) {
		return false
	}
	if f.Type != "" && h.Type != f.Type {
		return false
	}
	if f.MinRating > 0 && h.Rating.Overall < f.MinRating {
		return false
	}
	if f.Open24x7 != nil && h.IsOpen24x7 != *f.Open24x7 {
		return false
	}
	if f.HasEmergency != nil && h.HasEmergencyServices != *f.HasEmergency {
		return false
	}
	if f.BedType != "" {
		count := h.Beds.Get(f.BedType)
		if count == nil || count.Available <= 0 {
			return false
		}
	}
	if f.BloodGroup != "" {
		minUnits := f.MinBloodUnits
		if minUnits <= 0 {
			minUnits = 1
		}
		if h.BloodUnits(f.BloodGroup) < minUnits {
			return false
		}
	}
	return true
}
