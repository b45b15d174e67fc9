package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medatlas/medatlas/internal/domain/hospital"
	"github.com/medatlas/medatlas/internal/domain/inventory"
	"github.com/medatlas/medatlas/internal/platform/auth"
	"github.com/medatlas/medatlas/internal/platform/realtime"
)

// Approval actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Publisher is the realtime fan-out admin actions are announced through.
type Publisher interface {
	Publish(realtime.Event)
}

// QuickUpdate is the admin shortcut for fixing one facility's resource
// counts without the full inventory flow. Exactly one of the bed or blood
// sections must be set.
type QuickUpdate struct {
	HospitalID uuid.UUID            `json:"hospitalId"`
	BedType    hospital.BedCategory `json:"bedType,omitempty"`
	Total      *int                 `json:"total,omitempty"`
	Occupied   *int                 `json:"occupied,omitempty"`
	BloodGroup hospital.BloodGroup  `json:"bloodGroup,omitempty"`
	Units      *int                 `json:"units,omitempty"`
}

// Service implements the admin approval workflow, quick resource fixes,
// and the dashboard.
type Service struct {
	hospitals hospital.Repository
	inventory *inventory.Service
	stats     Repository
	publisher Publisher
	logger    zerolog.Logger
}

// NewService wires the admin service.
func NewService(hospitals hospital.Repository, inv *inventory.Service, stats Repository, publisher Publisher, logger zerolog.Logger) *Service {
	return &Service{
		hospitals: hospitals,
		inventory: inv,
		stats:     stats,
		publisher: publisher,
		logger:    logger.With().Str("component", "admin").Logger(),
	}
}

// ListHospitals returns facilities by approval status: pending, approved,
// or all.
func (s *Service) ListHospitals(ctx context.Context, status string, limit, offset int) ([]hospital.Hospital, int, error) {
	switch status {
	case "", hospital.ApprovalPending, hospital.ApprovalApproved, hospital.ApprovalAll:
	default:
		return nil, 0, fmt.Errorf("%w: invalid status %q", hospital.ErrValidation, status)
	}
	if status == "" {
		status = hospital.ApprovalPending
	}

	results, total, err := s.hospitals.Search(ctx, hospital.SearchFilter{ApprovalStatus: status}, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	hospitals := make([]hospital.Hospital, 0, len(results))
	for _, r := range results {
		hospitals = append(hospitals, r.Hospital)
	}
	return hospitals, total, nil
}

// Decide approves or rejects a pending registration. Rejection also
// deactivates the facility; records are never hard-deleted.
func (s *Service) Decide(ctx context.Context, id uuid.UUID, action, reason string, adminID uuid.UUID) error {
	switch action {
	case ActionApprove:
		if err := s.hospitals.SetApproval(ctx, id, true); err != nil {
			return err
		}
	case ActionReject:
		if err := s.hospitals.SetApproval(ctx, id, false); err != nil {
			return err
		}
		if err := s.hospitals.Deactivate(ctx, id); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: invalid action %q", hospital.ErrValidation, action)
	}

	s.logger.Info().
		Str("hospital_id", id.String()).
		Str("action", action).
		Str("reason", reason).
		Str("admin_id", adminID.String()).
		Msg("approval decision recorded")
	return nil
}

// UpdateResources applies a quick single-field fix on behalf of an admin
// and announces it as an admin action.
func (s *Service) UpdateResources(ctx context.Context, req QuickUpdate, adminID uuid.UUID) error {
	hasBed := req.BedType != ""
	hasBlood := req.BloodGroup != ""
	if hasBed == hasBlood {
		return fmt.Errorf("%w: supply exactly one of bedType or bloodGroup", hospital.ErrValidation)
	}

	if hasBed {
		if req.Total == nil || req.Occupied == nil {
			return fmt.Errorf("%w: total and occupied are required for a bed update", hospital.ErrValidation)
		}
		beds, err := s.inventory.SetBedCounts(ctx, req.HospitalID, map[hospital.BedCategory]inventory.BedSet{
			req.BedType: {Total: *req.Total, Occupied: *req.Occupied},
		}, adminID, auth.RoleAdmin)
		if err != nil {
			return err
		}
		s.publisher.Publish(realtime.NewEvent(realtime.EventAdminBedUpdate, map[string]interface{}{
			"hospitalId": req.HospitalID.String(),
			"bedType":    string(req.BedType),
			"beds":       beds,
			"adminId":    adminID.String(),
		}))
		return nil
	}

	if req.Units == nil {
		return fmt.Errorf("%w: units is required for a blood update", hospital.ErrValidation)
	}
	bank, _, err := s.inventory.SetBlood(ctx, req.HospitalID, []inventory.BloodEntry{
		{Group: req.BloodGroup, Units: *req.Units},
	}, adminID, auth.RoleAdmin)
	if err != nil {
		return err
	}
	s.publisher.Publish(realtime.NewEvent(realtime.EventAdminBloodUpdate, map[string]interface{}{
		"hospitalId": req.HospitalID.String(),
		"bloodGroup": string(req.BloodGroup),
		"bloodBank":  bank,
		"adminId":    adminID.String(),
	}))
	return nil
}

// Dashboard returns the aggregate system view.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	return s.stats.DashboardStats(ctx)
}
