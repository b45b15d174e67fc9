package admin

import "context"

// BedTotals aggregates one bed category across all facilities.
type BedTotals struct {
	Total     int `json:"total"`
	Occupied  int `json:"occupied"`
	Available int `json:"available"`
}

// CityCount is one row of the top-cities breakdown.
type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// DashboardStats is the system-wide aggregate view served to admins.
// Bed and blood aggregates cover active approved facilities only.
type DashboardStats struct {
	TotalHospitals     int                  `json:"totalHospitals"`
	ActiveHospitals    int                  `json:"activeHospitals"`
	PendingApprovals   int                  `json:"pendingApprovals"`
	StaleDataHospitals int                  `json:"staleDataHospitals"`
	Beds               map[string]BedTotals `json:"beds"`
	BloodDistribution  map[string]int       `json:"bloodDistribution"`
	TopCities          []CityCount          `json:"topCities"`
}

// Repository provides the aggregate queries behind the admin dashboard.
type Repository interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}
