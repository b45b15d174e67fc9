package emergency

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/medatlas/medatlas/internal/domain/hospital"
	"github.com/medatlas/medatlas/internal/platform/realtime"
)

// FreshWithin marks quick-search data as fresh when beds were updated
// inside this window.
const FreshWithin = time.Hour

// Publisher is the realtime fan-out the service pushes events through.
// *realtime.Notifier satisfies it.
type Publisher interface {
	Publish(realtime.Event)
}

// Service implements emergency matching and system-wide shortage scans.
type Service struct {
	hospitals hospital.Repository
	alerts    AlertRepository
	publisher Publisher
	policy    ScoringPolicy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService wires the emergency service with the default scoring policy.
func NewService(hospitals hospital.Repository, alerts AlertRepository, publisher Publisher, logger zerolog.Logger) *Service {
	return &Service{
		hospitals: hospitals,
		alerts:    alerts,
		publisher: publisher,
		policy:    DefaultScoringPolicy(),
		logger:    logger.With().Str("component", "emergency").Logger(),
		now:       time.Now,
	}
}

// SetPolicy overrides the scoring policy. Intended for tuning at wiring time.
func (s *Service) SetPolicy(p ScoringPolicy) { s.policy = p }

// Match finds the best facilities for an emergency. The nearest candidates
// with emergency services and a free bed of the required type are ranked by
// the scoring policy. Inventory is never mutated; matching is read-only.
func (s *Service) Match(ctx context.Context, q Query) (MatchResult, error) {
	if err := q.Validate(); err != nil {
		return MatchResult{}, err
	}

	hasEmergency := true
	filter := hospital.SearchFilter{
		HasEmergency: &hasEmergency,
		BedType:      q.RequiredBedType,
		Latitude:     &q.Latitude,
		Longitude:    &q.Longitude,
		RadiusMeters: MatchRadiusMeters,
	}
	if q.BloodType != "" {
		filter.BloodGroup = q.BloodType
		filter.MinBloodUnits = 1
	}

	candidates, _, err := s.hospitals.Search(ctx, filter, MatchLimit, 0)
	if err != nil {
		return MatchResult{}, err
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c.DistanceMeters == nil {
			continue
		}
		dist := *c.DistanceMeters
		available := 0
		if count := c.Hospital.Beds.Get(q.RequiredBedType); count != nil {
			available = count.Available
		}
		matches = append(matches, Match{
			Hospital:                 c.Hospital,
			DistanceKm:               math.Round(dist/100) / 10,
			AvailableBeds:            available,
			Score:                    s.policy.Score(dist, available, c.Hospital.Rating.Overall, c.Hospital.IsOpen24x7),
			EstimatedResponseMinutes: int(math.Round(s.policy.ResponseMinutes(dist))),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Hospital.ID.String() < matches[j].Hospital.ID.String()
	})

	result := MatchResult{Matches: matches}
	if len(matches) == 0 {
		result.Message = "No suitable hospital found within range; contact emergency services directly"
	}

	s.publisher.Publish(realtime.NewEvent(realtime.EventEmergencyRequest, map[string]interface{}{
		"patientCondition": q.PatientCondition,
		"requiredBedType":  string(q.RequiredBedType),
		"urgencyLevel":     q.UrgencyLevel,
		"matchCount":       len(matches),
	}))
	s.logger.Info().
		Str("condition", q.PatientCondition).
		Str("bed_type", string(q.RequiredBedType)).
		Int("matches", len(matches)).
		Msg("emergency match served")

	return result, nil
}

// QuickResult is one hit of the simple nearest-hospital emergency search.
type QuickResult struct {
	hospital.Hospital
	DistanceKm    float64 `json:"distanceKm"`
	AvailableBeds int     `json:"availableBeds"`
	IsDataFresh   bool    `json:"isDataFresh"`
}

// QuickSearch lists the nearest facilities with emergency services and at
// least minBeds free beds of the given type, nearest first.
func (s *Service) QuickSearch(ctx context.Context, lat, lng float64, bedType hospital.BedCategory, minBeds int) ([]QuickResult, error) {
	if bedType == "" {
		bedType = hospital.BedGeneral
	}
	if !bedType.Valid() {
		return nil, hospital.ErrValidation
	}
	if minBeds < 1 {
		minBeds = 1
	}

	hasEmergency := true
	filter := hospital.SearchFilter{
		HasEmergency: &hasEmergency,
		BedType:      bedType,
		Latitude:     &lat,
		Longitude:    &lng,
		RadiusMeters: QuickSearchRadiusMeters,
	}

	// Over-fetch so the minBeds cut still leaves a full page.
	candidates, _, err := s.hospitals.Search(ctx, filter, QuickSearchLimit*5, 0)
	if err != nil {
		return nil, err
	}

	now := s.now()
	results := make([]QuickResult, 0, QuickSearchLimit)
	for _, c := range candidates {
		available := 0
		if count := c.Hospital.Beds.Get(bedType); count != nil {
			available = count.Available
		}
		if available < minBeds {
			continue
		}
		dist := 0.0
		if c.DistanceMeters != nil {
			dist = math.Round(*c.DistanceMeters/100) / 10
		}
		results = append(results, QuickResult{
			Hospital:      c.Hospital,
			DistanceKm:    dist,
			AvailableBeds: available,
			IsDataFresh:   now.Sub(c.Hospital.LastBedUpdate) <= FreshWithin,
		})
		if len(results) == QuickSearchLimit {
			break
		}
	}
	return results, nil
}

// EvaluateAll scans the store for shortage conditions across all
// facilities and publishes an EMERGENCY_ALERT event when any exist.
func (s *Service) EvaluateAll(ctx context.Context) (AlertReport, error) {
	breaching, err := s.alerts.FindBreaching(ctx)
	if err != nil {
		return AlertReport{}, err
	}

	report := AlertReport{SystemStatus: SystemStatusNormal, Alerts: []Alert{}}
	for i := range breaching {
		report.Alerts = append(report.Alerts, Evaluate(&breaching[i])...)
	}
	report.TotalAlerts = len(report.Alerts)
	if report.TotalAlerts > 0 {
		report.SystemStatus = SystemStatusEmergency
		s.publisher.Publish(realtime.NewEvent(realtime.EventEmergencyAlert, map[string]interface{}{
			"totalAlerts":  report.TotalAlerts,
			"systemStatus": report.SystemStatus,
		}))
	}
	return report, nil
}
