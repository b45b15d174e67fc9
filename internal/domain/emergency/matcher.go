package emergency

import (
	"fmt"

	"github.com/medatlas/medatlas/internal/domain/hospital"
	"github.com/medatlas/medatlas/pkg/geo"
)

// Matching bounds.
const (
	MatchRadiusMeters       = 50000
	MatchLimit              = 5
	QuickSearchRadiusMeters = 25000
	QuickSearchLimit        = 10
)

// Patient conditions accepted in an emergency query.
const (
	ConditionCritical = "critical"
	ConditionSevere   = "severe"
	ConditionModerate = "moderate"
)

// ScoringPolicy tunes how emergency candidates are ranked. Higher scores
// rank first.
type ScoringPolicy struct {
	DistanceWeight          float64
	BedWeight               float64
	RatingWeight            float64
	Open24x7Bonus           float64
	TravelMetersPerMinute   float64
	DispatchOverheadMinutes float64
}

// DefaultScoringPolicy returns the production ranking weights.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		DistanceWeight:          25000,
		BedWeight:               10,
		RatingWeight:            20,
		Open24x7Bonus:           50,
		TravelMetersPerMinute:   833,
		DispatchOverheadMinutes: 5,
	}
}

// Score ranks one candidate. Closer facilities, more free beds of the
// required type, higher ratings and 24x7 operation all raise the score.
func (p ScoringPolicy) Score(distanceMeters float64, availableBeds int, rating float64, open24x7 bool) float64 {
	score := p.DistanceWeight/(distanceMeters+1) +
		float64(availableBeds)*p.BedWeight +
		rating*p.RatingWeight
	if open24x7 {
		score += p.Open24x7Bonus
	}
	return score
}

// ResponseMinutes estimates ambulance response time for a distance.
func (p ScoringPolicy) ResponseMinutes(distanceMeters float64) float64 {
	return distanceMeters/p.TravelMetersPerMinute + p.DispatchOverheadMinutes
}

// Query is an emergency placement request. It is ephemeral and never stored.
type Query struct {
	PatientCondition string               `json:"patientCondition"`
	RequiredBedType  hospital.BedCategory `json:"requiredBedType"`
	BloodType        hospital.BloodGroup  `json:"bloodType,omitempty"`
	Latitude         float64              `json:"latitude"`
	Longitude        float64              `json:"longitude"`
	UrgencyLevel     int                  `json:"urgencyLevel"`
}

// Validate checks query fields against the accepted domains.
func (q Query) Validate() error {
	switch q.PatientCondition {
	case ConditionCritical, ConditionSevere, ConditionModerate:
	default:
		return fmt.Errorf("%w: invalid patientCondition %q", hospital.ErrValidation, q.PatientCondition)
	}
	if !q.RequiredBedType.Valid() {
		return fmt.Errorf("%w: invalid requiredBedType %q", hospital.ErrValidation, q.RequiredBedType)
	}
	if q.BloodType != "" && !q.BloodType.Valid() {
		return fmt.Errorf("%w: invalid bloodType %q", hospital.ErrValidation, q.BloodType)
	}
	if !(geo.Point{Latitude: q.Latitude, Longitude: q.Longitude}).Valid() {
		return fmt.Errorf("%w: invalid coordinates", hospital.ErrValidation)
	}
	if q.UrgencyLevel < 1 || q.UrgencyLevel > 5 {
		return fmt.Errorf("%w: urgencyLevel must be 1-5", hospital.ErrValidation)
	}
	return nil
}

// Match is one ranked recommendation.
type Match struct {
	Hospital                 hospital.Hospital `json:"hospital"`
	DistanceKm               float64           `json:"distanceKm"`
	AvailableBeds            int               `json:"availableBeds"`
	Score                    float64           `json:"score"`
	EstimatedResponseMinutes int               `json:"estimatedResponseMinutes"`
}

// MatchResult is the full matcher response. Message is advisory, set when
// no facility qualified.
type MatchResult struct {
	Matches []Match `json:"matches"`
	Message string  `json:"message,omitempty"`
}
