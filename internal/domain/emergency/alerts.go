package emergency

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/medatlas/medatlas/internal/domain/hospital"
)

// Shortage thresholds. A facility at or below a threshold raises the
// corresponding alert.
const (
	ICUAlertThreshold        = 3
	VentilatorAlertThreshold = 2
	BloodAlertThreshold      = 5
)

type Severity string

const (
	SeverityWarning   Severity = "WARNING"
	SeverityCritical  Severity = "CRITICAL"
	SeverityEmergency Severity = "EMERGENCY"
)

type AlertType string

const (
	AlertICUShortage        AlertType = "CRITICAL_ICU_SHORTAGE"
	AlertVentilatorShortage AlertType = "CRITICAL_VENTILATOR_SHORTAGE"
	AlertBloodShortage      AlertType = "BLOOD_SHORTAGE"
)

// Alert is a single shortage condition at a facility.
type Alert struct {
	Type         AlertType            `json:"type"`
	Severity     Severity             `json:"severity"`
	HospitalID   uuid.UUID            `json:"hospitalId"`
	HospitalName string               `json:"hospitalName"`
	City         string               `json:"city"`
	BloodGroup   hospital.BloodGroup  `json:"bloodGroup,omitempty"`
	Remaining    int                  `json:"remaining"`
	Message      string               `json:"message"`
}

// Evaluate inspects one facility and returns every shortage condition it
// breaches. Conditions are checked independently, so a facility short on
// ICU beds and two blood groups yields three alerts.
func Evaluate(h *hospital.Hospital) []Alert {
	var alerts []Alert

	if icu := h.Beds.ICU.Available; icu <= ICUAlertThreshold {
		sev := SeverityWarning
		if icu == 0 {
			sev = SeverityEmergency
		}
		alerts = append(alerts, Alert{
			Type:         AlertICUShortage,
			Severity:     sev,
			HospitalID:   h.ID,
			HospitalName: h.Name,
			City:         h.Address.City,
			Remaining:    icu,
			Message:      fmt.Sprintf("Only %d ICU beds left at %s", icu, h.Name),
		})
	}

	if vent := h.Beds.Ventilator.Available; vent <= VentilatorAlertThreshold {
		sev := SeverityWarning
		if vent == 0 {
			sev = SeverityEmergency
		}
		alerts = append(alerts, Alert{
			Type:         AlertVentilatorShortage,
			Severity:     sev,
			HospitalID:   h.ID,
			HospitalName: h.Name,
			City:         h.Address.City,
			Remaining:    vent,
			Message:      fmt.Sprintf("Only %d ventilators left at %s", vent, h.Name),
		})
	}

	for _, stock := range h.BloodBank {
		if stock.Units > BloodAlertThreshold {
			continue
		}
		sev := SeverityWarning
		if stock.Units == 0 {
			sev = SeverityCritical
		}
		alerts = append(alerts, Alert{
			Type:         AlertBloodShortage,
			Severity:     sev,
			HospitalID:   h.ID,
			HospitalName: h.Name,
			City:         h.Address.City,
			BloodGroup:   stock.Group,
			Remaining:    stock.Units,
			Message:      fmt.Sprintf("%s blood down to %d units at %s", stock.Group, stock.Units, h.Name),
		})
	}

	return alerts
}

// AlertReport is the system-wide shortage snapshot.
type AlertReport struct {
	Alerts       []Alert `json:"alerts"`
	TotalAlerts  int     `json:"totalAlerts"`
	SystemStatus string  `json:"systemStatus"`
}

const (
	SystemStatusNormal    = "NORMAL"
	SystemStatusEmergency = "EMERGENCY"
)
