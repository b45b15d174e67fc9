package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medatlas/medatlas/internal/domain/emergency"
	"github.com/medatlas/medatlas/internal/domain/hospital"
	"github.com/medatlas/medatlas/internal/platform/auth"
	"github.com/medatlas/medatlas/internal/platform/realtime"
)

// LowStockThreshold marks blood groups worth restocking in write responses.
const LowStockThreshold = 5

// Publisher is the realtime fan-out mutations are announced through.
// *realtime.Notifier satisfies it.
type Publisher interface {
	Publish(realtime.Event)
}

// Service mutates facility inventory. Every successful write re-evaluates
// shortage conditions for the touched facility and pushes the change plus
// any alerts through the notifier.
type Service struct {
	repo      Repository
	hospitals hospital.Repository
	publisher Publisher
	logger    zerolog.Logger
}

// NewService wires the inventory mutator.
func NewService(repo Repository, hospitals hospital.Repository, publisher Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		hospitals: hospitals,
		publisher: publisher,
		logger:    logger.With().Str("component", "inventory").Logger(),
	}
}

// authorize loads the facility and enforces ownership: hospital accounts
// mutate only their own facility, admins mutate any.
func (s *Service) authorize(ctx context.Context, hospitalID, actorID uuid.UUID, role string) (*hospital.Hospital, error) {
	h, err := s.hospitals.GetByID(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	if !h.IsActive {
		return nil, hospital.ErrNotFound
	}
	if role != auth.RoleAdmin && h.OwnerID != actorID {
		return nil, hospital.ErrForbidden
	}
	return h, nil
}

// ApplyBedDelta shifts available beds of one category by a signed delta.
// Negative deltas occupy beds; positive deltas free them.
func (s *Service) ApplyBedDelta(ctx context.Context, hospitalID uuid.UUID, category hospital.BedCategory, delta int, actorID uuid.UUID, role string) (hospital.BedCount, error) {
	if !category.Valid() {
		return hospital.BedCount{}, fmt.Errorf("%w: invalid bed category %q", hospital.ErrValidation, category)
	}
	if delta == 0 {
		return hospital.BedCount{}, fmt.Errorf("%w: delta must be non-zero", hospital.ErrValidation)
	}
	if _, err := s.authorize(ctx, hospitalID, actorID, role); err != nil {
		return hospital.BedCount{}, err
	}

	count, err := s.repo.ApplyBedDelta(ctx, hospitalID, category, delta)
	if err != nil {
		return hospital.BedCount{}, err
	}

	s.logger.Info().
		Str("hospital_id", hospitalID.String()).
		Str("category", string(category)).
		Int("delta", delta).
		Int("available", count.Available).
		Msg("bed delta applied")
	s.afterBedMutation(ctx, hospitalID, map[string]interface{}{
		"hospitalId": hospitalID.String(),
		"category":   string(category),
		"beds":       count,
	})
	return count, nil
}

// SetBedCounts overwrites totals/occupied for the supplied categories.
// Absolute writes are idempotent; repeating one is a no-op.
func (s *Service) SetBedCounts(ctx context.Context, hospitalID uuid.UUID, counts map[hospital.BedCategory]BedSet, actorID uuid.UUID, role string) (hospital.Beds, error) {
	if len(counts) == 0 {
		return hospital.Beds{}, fmt.Errorf("%w: no bed categories supplied", hospital.ErrValidation)
	}
	for category, set := range counts {
		if !category.Valid() {
			return hospital.Beds{}, fmt.Errorf("%w: invalid bed category %q", hospital.ErrValidation, category)
		}
		if set.Total < 0 || set.Occupied < 0 {
			return hospital.Beds{}, fmt.Errorf("%w: %s counts must be non-negative", hospital.ErrValidation, category)
		}
		if set.Occupied > set.Total {
			return hospital.Beds{}, fmt.Errorf("%w: %s occupied %d exceeds total %d",
				hospital.ErrInvalidBedState, category, set.Occupied, set.Total)
		}
	}
	if _, err := s.authorize(ctx, hospitalID, actorID, role); err != nil {
		return hospital.Beds{}, err
	}

	beds, err := s.repo.SetBedCounts(ctx, hospitalID, counts)
	if err != nil {
		return hospital.Beds{}, err
	}

	s.logger.Info().
		Str("hospital_id", hospitalID.String()).
		Int("categories", len(counts)).
		Msg("bed counts set")
	s.afterBedMutation(ctx, hospitalID, map[string]interface{}{
		"hospitalId": hospitalID.String(),
		"beds":       beds,
	})
	return beds, nil
}

// ApplyBloodDelta shifts one blood group's units by a signed delta.
func (s *Service) ApplyBloodDelta(ctx context.Context, hospitalID uuid.UUID, group hospital.BloodGroup, delta int, actorID uuid.UUID, role string) (int, error) {
	if !group.Valid() {
		return 0, fmt.Errorf("%w: invalid blood group %q", hospital.ErrValidation, group)
	}
	if delta == 0 {
		return 0, fmt.Errorf("%w: delta must be non-zero", hospital.ErrValidation)
	}
	if _, err := s.authorize(ctx, hospitalID, actorID, role); err != nil {
		return 0, err
	}

	units, err := s.repo.ApplyBloodDelta(ctx, hospitalID, group, delta)
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Str("hospital_id", hospitalID.String()).
		Str("blood_group", string(group)).
		Int("delta", delta).
		Int("units", units).
		Msg("blood delta applied")
	s.afterBloodMutation(ctx, hospitalID, map[string]interface{}{
		"hospitalId": hospitalID.String(),
		"bloodGroup": string(group),
		"units":      units,
	})
	return units, nil
}

// SetBlood writes absolute blood rows (one or many) and returns the full
// bank plus the groups now at or below the low-stock threshold.
func (s *Service) SetBlood(ctx context.Context, hospitalID uuid.UUID, entries []BloodEntry, actorID uuid.UUID, role string) ([]hospital.BloodStock, []hospital.BloodStock, error) {
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("%w: no blood entries supplied", hospital.ErrValidation)
	}
	seen := make(map[hospital.BloodGroup]bool, len(entries))
	for _, e := range entries {
		if !e.Group.Valid() {
			return nil, nil, fmt.Errorf("%w: invalid blood group %q", hospital.ErrValidation, e.Group)
		}
		if e.Units < 0 {
			return nil, nil, fmt.Errorf("%w: %s units must be non-negative", hospital.ErrValidation, e.Group)
		}
		if seen[e.Group] {
			return nil, nil, fmt.Errorf("%w: duplicate blood group %s", hospital.ErrValidation, e.Group)
		}
		seen[e.Group] = true
	}
	if _, err := s.authorize(ctx, hospitalID, actorID, role); err != nil {
		return nil, nil, err
	}

	if err := s.repo.UpsertBlood(ctx, hospitalID, entries); err != nil {
		return nil, nil, err
	}

	bank, err := s.repo.GetBloodBank(ctx, hospitalID)
	if err != nil {
		return nil, nil, err
	}
	var lowStock []hospital.BloodStock
	for _, stock := range bank {
		if stock.Units < LowStockThreshold {
			lowStock = append(lowStock, stock)
		}
	}

	s.logger.Info().
		Str("hospital_id", hospitalID.String()).
		Int("entries", len(entries)).
		Int("low_stock", len(lowStock)).
		Msg("blood stock set")
	s.afterBloodMutation(ctx, hospitalID, map[string]interface{}{
		"hospitalId": hospitalID.String(),
		"bloodBank":  bank,
	})
	return bank, lowStock, nil
}

// afterBedMutation publishes the change and any bed shortage alerts.
// Evaluation is synchronous so alerts follow their mutation immediately,
// but failures only log; the write has already committed.
func (s *Service) afterBedMutation(ctx context.Context, hospitalID uuid.UUID, payload map[string]interface{}) {
	s.publisher.Publish(realtime.NewEvent(realtime.EventBedUpdate, payload))

	h, err := s.hospitals.GetByID(ctx, hospitalID)
	if err != nil {
		s.logger.Warn().Err(err).Str("hospital_id", hospitalID.String()).Msg("alert evaluation reload failed")
		return
	}
	for _, alert := range emergency.Evaluate(h) {
		if alert.Type == emergency.AlertBloodShortage {
			continue
		}
		s.publisher.Publish(realtime.NewEvent(realtime.EventEmergencyAlert, alertPayload(alert)))
	}
}

// afterBloodMutation publishes the change and any blood shortage alerts.
func (s *Service) afterBloodMutation(ctx context.Context, hospitalID uuid.UUID, payload map[string]interface{}) {
	s.publisher.Publish(realtime.NewEvent(realtime.EventBloodUpdate, payload))

	h, err := s.hospitals.GetByID(ctx, hospitalID)
	if err != nil {
		s.logger.Warn().Err(err).Str("hospital_id", hospitalID.String()).Msg("alert evaluation reload failed")
		return
	}
	for _, alert := range emergency.Evaluate(h) {
		if alert.Type != emergency.AlertBloodShortage {
			continue
		}
		s.publisher.Publish(realtime.NewEvent(realtime.EventBloodShortageAlert, alertPayload(alert)))
	}
}

func alertPayload(a emergency.Alert) map[string]interface{} {
	p := map[string]interface{}{
		"alertType":    string(a.Type),
		"severity":     string(a.Severity),
		"hospitalId":   a.HospitalID.String(),
		"hospitalName": a.HospitalName,
		"remaining":    a.Remaining,
		"message":      a.Message,
	}
	if a.BloodGroup != "" {
		p["bloodGroup"] = string(a.BloodGroup)
	}
	return p
}
