// Package tableau defines Butcher tableaus for the Runge-Kutta family and
// the built-in methods the engine knows by name.
package tableau

import (
	"fmt"
	"math"
	"sort"
)

// Tableau holds the coefficients of an explicit Runge-Kutta method. A is
// strictly lower triangular, indexed A[i][j] for stage i against stage j.
// BHat is non-nil only for embedded methods and provides the lower-order
// weights used for the error estimate.
type Tableau struct {
	Name  string
	Order int
	A     [][]float64
	B     []float64
	BHat  []float64
	C     []float64
}

func (t *Tableau) Stages() int { return len(t.B) }

// Embedded reports whether the tableau carries an embedded error estimate.
func (t *Tableau) Embedded() bool { return t.BHat != nil }

const coeffTol = 1e-12

// Validate checks the structural invariants: consistent dimensions, A
// strictly lower triangular, sum(B) = 1 and row sums of A matching C.
func (t *Tableau) Validate() error {
	s := t.Stages()
	if s == 0 {
		return fmt.Errorf("tableau %s: no stages", t.Name)
	}
	if len(t.A) != s || len(t.C) != s {
		return fmt.Errorf("tableau %s: inconsistent dimensions", t.Name)
	}
	if t.BHat != nil && len(t.BHat) != s {
		return fmt.Errorf("tableau %s: embedded weights have %d entries, want %d", t.Name, len(t.BHat), s)
	}

	sumB := 0.0
	for i := 0; i < s; i++ {
		if len(t.A[i]) != s {
			return fmt.Errorf("tableau %s: row %d has %d columns, want %d", t.Name, i, len(t.A[i]), s)
		}
		rowSum := 0.0
		for j := 0; j < s; j++ {
			if j >= i && t.A[i][j] != 0 {
				return fmt.Errorf("tableau %s: A[%d][%d] nonzero above the diagonal", t.Name, i, j)
			}
			rowSum += t.A[i][j]
		}
		if math.Abs(rowSum-t.C[i]) > coeffTol {
			return fmt.Errorf("tableau %s: row %d sums to %g, want c=%g", t.Name, i, rowSum, t.C[i])
		}
		sumB += t.B[i]
	}
	if math.Abs(sumB-1) > coeffTol {
		return fmt.Errorf("tableau %s: weights sum to %g, want 1", t.Name, sumB)
	}
	return nil
}

// Euler is the explicit Euler method (order 1).
func Euler() *Tableau {
	return &Tableau{
		Name:  "euler",
		Order: 1,
		A:     [][]float64{{0}},
		B:     []float64{1},
		C:     []float64{0},
	}
}

// Midpoint is the explicit midpoint method (order 2).
func Midpoint() *Tableau {
	return &Tableau{
		Name:  "midpoint",
		Order: 2,
		A: [][]float64{
			{0, 0},
			{0.5, 0},
		},
		B: []float64{0, 1},
		C: []float64{0, 0.5},
	}
}

// RK4 is the classic fourth-order Runge-Kutta method.
func RK4() *Tableau {
	return &Tableau{
		Name:  "rk4",
		Order: 4,
		A: [][]float64{
			{0, 0, 0, 0},
			{0.5, 0, 0, 0},
			{0, 0.5, 0, 0},
			{0, 0, 1, 0},
		},
		B: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		C: []float64{0, 0.5, 0.5, 1},
	}
}

// RKF45 is the Fehlberg 4(5) embedded pair. B holds the fifth-order
// weights; BHat the fourth-order weights for the error estimate.
func RKF45() *Tableau {
	return &Tableau{
		Name:  "rkf45",
		Order: 5,
		A: [][]float64{
			{0, 0, 0, 0, 0, 0},
			{1.0 / 4, 0, 0, 0, 0, 0},
			{3.0 / 32, 9.0 / 32, 0, 0, 0, 0},
			{1932.0 / 2197, -7200.0 / 2197, 7296.0 / 2197, 0, 0, 0},
			{439.0 / 216, -8, 3680.0 / 513, -845.0 / 4104, 0, 0},
			{-8.0 / 27, 2, -3544.0 / 2565, 1859.0 / 4104, -11.0 / 40, 0},
		},
		B:    []float64{16.0 / 135, 0, 6656.0 / 12825, 28561.0 / 56430, -9.0 / 50, 2.0 / 55},
		BHat: []float64{25.0 / 216, 0, 1408.0 / 2565, 2197.0 / 4104, -1.0 / 5, 0},
		C:    []float64{0, 1.0 / 4, 3.0 / 8, 12.0 / 13, 1, 1.0 / 2},
	}
}

var builtin = map[string]func() *Tableau{
	"euler":    Euler,
	"midpoint": Midpoint,
	"rk4":      RK4,
	"rkf45":    RKF45,
}

// ByName looks up a built-in tableau.
func ByName(name string) (*Tableau, error) {
	f, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("unknown tableau %q (have %v)", name, Names())
	}
	return f(), nil
}

// Names lists the built-in tableaus.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
