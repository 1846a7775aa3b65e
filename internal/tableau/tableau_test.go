package tableau

import "testing"

func TestBuiltinsValidate(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			tab, err := ByName(name)
			if err != nil {
				t.Fatalf("ByName: %v", err)
			}
			if err := tab.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestEmbeddedFlags(t *testing.T) {
	if RK4().Embedded() {
		t.Error("rk4 must not report an embedded estimate")
	}
	if !RKF45().Embedded() {
		t.Error("rkf45 must report an embedded estimate")
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("rk99"); err == nil {
		t.Error("expected error for unknown tableau")
	}
}

func TestValidateRejectsBadTableaus(t *testing.T) {
	tests := []struct {
		name string
		tab  Tableau
	}{
		{"weights", Tableau{Name: "w", A: [][]float64{{0}}, B: []float64{0.5}, C: []float64{0}}},
		{"row sum", Tableau{
			Name: "r",
			A:    [][]float64{{0, 0}, {0.25, 0}},
			B:    []float64{0.5, 0.5},
			C:    []float64{0, 0.5},
		}},
		{"not lower triangular", Tableau{
			Name: "t",
			A:    [][]float64{{0, 0.5}, {0, 0}},
			B:    []float64{0.5, 0.5},
			C:    []float64{0.5, 0},
		}},
		{"embedded length", Tableau{
			Name: "e",
			A:    [][]float64{{0}},
			B:    []float64{1},
			BHat: []float64{0.5, 0.5},
			C:    []float64{0},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.tab.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
