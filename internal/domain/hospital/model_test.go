package hospital

import "testing"

func TestBedCount_Derive(t *testing.T) {
	tests := []struct {
		name          string
		total, occ    int
		wantAvailable int
	}{
		{"normal", 10, 4, 6},
		{"full", 10, 10, 0},
		{"empty", 10, 0, 10},
		{"over-occupied clamps to zero", 10, 12, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BedCount{Total: tt.total, Occupied: tt.occ}.Derive()
			if got.Available != tt.wantAvailable {
				t.Fatalf("available = %d, want %d", got.Available, tt.wantAvailable)
			}
		})
	}
}

func TestBeds_Get(t *testing.T) {
	b := Beds{ICU: BedCount{Total: 5, Occupied: 2}}
	if got := b.Get(BedICU); got == nil || got.Total != 5 {
		t.Fatalf("expected icu count, got %+v", got)
	}
	if got := b.Get(BedCategory("cardiac")); got != nil {
		t.Fatalf("expected nil for unknown category, got %+v", got)
	}
}

func TestHospital_BloodUnits_MissingRowReadsZero(t *testing.T) {
	h := Hospital{BloodBank: []BloodStock{{Group: BloodOPos, Units: 7}}}
	if got := h.BloodUnits(BloodOPos); got != 7 {
		t.Fatalf("O+ units = %d, want 7", got)
	}
	if got := h.BloodUnits(BloodABNeg); got != 0 {
		t.Fatalf("missing group units = %d, want 0", got)
	}
}

func TestBloodGroup_Valid(t *testing.T) {
	for _, g := range BloodGroups {
		if !g.Valid() {
			t.Fatalf("expected %s to be valid", g)
		}
	}
	if BloodGroup("C+").Valid() {
		t.Fatal("expected C+ to be invalid")
	}
}
