package hospital

import (
	"time"

	"github.com/google/uuid"

	"github.com/medatlas/medatlas/pkg/geo"
)

// BedCategory enumerates the tracked bed types.
type BedCategory string

const (
	BedGeneral    BedCategory = "general"
	BedICU        BedCategory = "icu"
	BedOxygen     BedCategory = "oxygen"
	BedVentilator BedCategory = "ventilator"
)

// BedCategories lists every valid category in display order.
var BedCategories = []BedCategory{BedGeneral, BedICU, BedOxygen, BedVentilator}

// Valid reports whether the category is one of the tracked bed types.
func (c BedCategory) Valid() bool {
	switch c {
	case BedGeneral, BedICU, BedOxygen, BedVentilator:
		return true
	}
	return false
}

// BloodGroup enumerates the tracked blood groups.
type BloodGroup string

const (
	BloodAPos  BloodGroup = "A+"
	BloodANeg  BloodGroup = "A-"
	BloodBPos  BloodGroup = "B+"
	BloodBNeg  BloodGroup = "B-"
	BloodABPos BloodGroup = "AB+"
	BloodABNeg BloodGroup = "AB-"
	BloodOPos  BloodGroup = "O+"
	BloodONeg  BloodGroup = "O-"
)

// BloodGroups lists every valid group in display order.
var BloodGroups = []BloodGroup{
	BloodAPos, BloodANeg, BloodBPos, BloodBNeg,
	BloodABPos, BloodABNeg, BloodOPos, BloodONeg,
}

// Valid reports whether the group is one of the tracked blood groups.
func (g BloodGroup) Valid() bool {
	for _, v := range BloodGroups {
		if g == v {
			return true
		}
	}
	return false
}

// Facility types accepted at registration.
const (
	TypeGovernment     = "government"
	TypePrivate        = "private"
	TypeMultispecialty = "multispecialty"
	TypeTrauma         = "trauma"
	TypeMaternity      = "maternity"
)

// ValidType reports whether t is an accepted facility type.
func ValidType(t string) bool {
	switch t {
	case TypeGovernment, TypePrivate, TypeMultispecialty, TypeTrauma, TypeMaternity:
		return true
	}
	return false
}

// BedCount tracks one bed category. Available is always derived on the
// server as max(0, total - occupied); client-supplied values are ignored.
type BedCount struct {
	Total     int `json:"total"`
	Occupied  int `json:"occupied"`
	Available int `json:"available"`
}

// Derive returns the count with Available recomputed from Total and Occupied.
func (b BedCount) Derive() BedCount {
	available := b.Total - b.Occupied
	if available < 0 {
		available = 0
	}
	b.Available = available
	return b
}

// Beds holds the full bed inventory of a facility.
type Beds struct {
	General    BedCount `json:"general"`
	ICU        BedCount `json:"icu"`
	Oxygen     BedCount `json:"oxygen"`
	Ventilator BedCount `json:"ventilator"`
}

// Get returns a pointer to the count for the given category, or nil for an
// unknown category.
func (b *Beds) Get(c BedCategory) *BedCount {
	switch c {
	case BedGeneral:
		return &b.General
	case BedICU:
		return &b.ICU
	case BedOxygen:
		return &b.Oxygen
	case BedVentilator:
		return &b.Ventilator
	}
	return nil
}

// Derive recomputes Available for every category.
func (b Beds) Derive() Beds {
	b.General = b.General.Derive()
	b.ICU = b.ICU.Derive()
	b.Oxygen = b.Oxygen.Derive()
	b.Ventilator = b.Ventilator.Derive()
	return b
}

// TotalAvailable sums available beds across all categories.
func (b Beds) TotalAvailable() int {
	return b.General.Available + b.ICU.Available + b.Oxygen.Available + b.Ventilator.Available
}

// BloodStock is one blood-group row of a facility's blood bank.
type BloodStock struct {
	Group       BloodGroup `json:"bloodGroup"`
	Units       int        `json:"units"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// Address is the postal address of a facility.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// Contact holds facility contact channels.
type Contact struct {
	Phone     string `json:"phone"`
	Emergency string `json:"emergency"`
	Email     string `json:"email"`
}

// Rating is the aggregate review score of a facility.
type Rating struct {
	Overall      float64 `json:"overall"`
	TotalReviews int     `json:"totalReviews"`
}

// Hospital is a registered healthcare facility with live resource counts.
type Hospital struct {
	ID                   uuid.UUID    `json:"id"`
	OwnerID              uuid.UUID    `json:"ownerId"`
	Name                 string       `json:"name"`
	RegistrationNumber   string       `json:"registrationNumber"`
	Type                 string       `json:"type"`
	Description          string       `json:"description,omitempty"`
	Address              Address      `json:"address"`
	Latitude             float64      `json:"latitude"`
	Longitude            float64      `json:"longitude"`
	Contact              Contact      `json:"contact"`
	Beds                 Beds         `json:"beds"`
	BloodBank            []BloodStock `json:"bloodBank"`
	Facilities           []string     `json:"facilities,omitempty"`
	Rating               Rating       `json:"rating"`
	IsOpen24x7           bool         `json:"isOpen24x7"`
	HasEmergencyServices bool         `json:"hasEmergencyServices"`
	IsApproved           bool         `json:"isApproved"`
	IsActive             bool         `json:"isActive"`
	LastBedUpdate        time.Time    `json:"lastBedUpdate"`
	LastBloodUpdate      time.Time    `json:"lastBloodUpdate"`
	CreatedAt            time.Time    `json:"createdAt"`
	UpdatedAt            time.Time    `json:"updatedAt"`
}

// Point returns the facility coordinates.
func (h *Hospital) Point() geo.Point {
	return geo.Point{Latitude: h.Latitude, Longitude: h.Longitude}
}

// BloodUnits returns the stocked units for a group. A missing row reads as
// zero stock.
func (h *Hospital) BloodUnits(g BloodGroup) int {
	for _, s := range h.BloodBank {
		if s.Group == g {
			return s.Units
		}
	}
	return 0
}
