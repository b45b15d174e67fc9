package hospital

import (
	"time"

	"github.com/google/uuid"
)

// demoHospitals is the static fallback dataset served when the store is
// unreachable on the public listing path. The data is plausible but fake.
func demoHospitals() []Hospital {
	now := time.Now()
	return []Hospital{
		{
			ID:                 uuid.MustParse("11111111-1111-4111-8111-111111111111"),
			Name:               "City General Hospital",
			RegistrationNumber: "DEMO-CGH-001",
			Type:               TypeGovernment,
			Description:        "Large public hospital with full emergency services",
			Address:            Address{Street: "1 Hospital Road", City: "New Delhi", State: "Delhi", Pincode: "110001"},
			Latitude:           28.6139,
			Longitude:          77.2090,
			Contact:            Contact{Phone: "+91-11-23456789", Emergency: "+91-11-23456700", Email: "info@citygeneral.example"},
			Beds: Beds{
				General:    BedCount{Total: 200, Occupied: 150}.Derive(),
				ICU:        BedCount{Total: 40, Occupied: 32}.Derive(),
				Oxygen:     BedCount{Total: 60, Occupied: 41}.Derive(),
				Ventilator: BedCount{Total: 20, Occupied: 15}.Derive(),
			},
			BloodBank: []BloodStock{
				{Group: BloodOPos, Units: 25, LastUpdated: now},
				{Group: BloodAPos, Units: 18, LastUpdated: now},
				{Group: BloodBPos, Units: 12, LastUpdated: now},
				{Group: BloodONeg, Units: 4, LastUpdated: now},
			},
			Facilities:           []string{"emergency", "trauma-center", "blood-bank", "pharmacy"},
			Rating:               Rating{Overall: 4.2, TotalReviews: 1310},
			IsOpen24x7:           true,
			HasEmergencyServices: true,
			IsApproved:           true,
			IsActive:             true,
			LastBedUpdate:        now,
			LastBloodUpdate:      now,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
		{
			ID:                 uuid.MustParse("22222222-2222-4222-8222-222222222222"),
			Name:               "Sunrise Multispecialty Hospital",
			RegistrationNumber: "DEMO-SMH-002",
			Type:               TypeMultispecialty,
			Description:        "Private multispecialty hospital with modern ICU",
			Address:            Address{Street: "45 Ring Road", City: "New Delhi", State: "Delhi", Pincode: "110024"},
			Latitude:           28.5672,
			Longitude:          77.2432,
			Contact:            Contact{Phone: "+91-11-45678901", Emergency: "+91-11-45678900", Email: "care@sunrise.example"},
			Beds: Beds{
				General:    BedCount{Total: 120, Occupied: 84}.Derive(),
				ICU:        BedCount{Total: 30, Occupied: 18}.Derive(),
				Oxygen:     BedCount{Total: 40, Occupied: 22}.Derive(),
				Ventilator: BedCount{Total: 15, Occupied: 6}.Derive(),
			},
			BloodBank: []BloodStock{
				{Group: BloodOPos, Units: 15, LastUpdated: now},
				{Group: BloodABPos, Units: 8, LastUpdated: now},
				{Group: BloodBNeg, Units: 3, LastUpdated: now},
			},
			Facilities:           []string{"emergency", "icu", "blood-bank", "cath-lab"},
			Rating:               Rating{Overall: 4.6, TotalReviews: 875},
			IsOpen24x7:           true,
			HasEmergencyServices: true,
			IsApproved:           true,
			IsActive:             true,
			LastBedUpdate:        now,
			LastBloodUpdate:      now,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
		{
			ID:                 uuid.MustParse("33333333-3333-4333-8333-333333333333"),
			Name:               "Lotus Maternity Centre",
			RegistrationNumber: "DEMO-LMC-003",
			Type:               TypeMaternity,
			Description:        "Maternity and neonatal care centre",
			Address:            Address{Street: "12 Park Street", City: "Gurugram", State: "Haryana", Pincode: "122002"},
			Latitude:           28.4595,
			Longitude:          77.0266,
			Contact:            Contact{Phone: "+91-124-2345678", Emergency: "+91-124-2345600", Email: "hello@lotusmaternity.example"},
			Beds: Beds{
				General:    BedCount{Total: 50, Occupied: 20}.Derive(),
				ICU:        BedCount{Total: 10, Occupied: 3}.Derive(),
				Oxygen:     BedCount{Total: 12, Occupied: 4}.Derive(),
				Ventilator: BedCount{Total: 4, Occupied: 1}.Derive(),
			},
			BloodBank: []BloodStock{
				{Group: BloodOPos, Units: 10, LastUpdated: now},
				{Group: BloodAPos, Units: 6, LastUpdated: now},
			},
			Facilities:           []string{"maternity", "nicu", "pharmacy"},
			Rating:               Rating{Overall: 4.8, TotalReviews: 412},
			IsOpen24x7:           false,
			HasEmergencyServices: false,
			IsApproved:           true,
			IsActive:             true,
			LastBedUpdate:        now,
			LastBloodUpdate:      now,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
	}
}

// DemoHospitals exposes the demo dataset for the seed command.
func DemoHospitals() []Hospital { return demoHospitals() }
