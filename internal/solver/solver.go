// Package solver computes the Lagrange multipliers that project body
// accelerations onto the constraint manifold. The system is stabilised in
// the Baumgarte form d2C/dt2 + dampening*dC/dt + stiffness*C = 0, solved with
// a dense Doolittle LU decomposition.
package solver

import (
	"fmt"
	"math"

	"github.com/san-kum/rigid2d/internal/rigid"
)

// Defaults for the stabilisation terms.
const (
	DefaultStiffness = 5.0
	DefaultDampening = 2.0
)

// pivotEps flags a singular system. Unpivoted LU fails loudly on
// ill-conditioned matrices instead of mis-solving quietly.
const pivotEps = 1e-10

// Solver assembles and solves the constraint system. All scratch buffers
// are sized on (bodies, constraints) lazily and reused, so steady-state
// solves allocate nothing.
type Solver struct {
	stiffness float64
	dampening float64

	constraints []rigid.Constraint

	// scratch, laid out row-major where rectangular
	jcb    []float64 // M x 3N Jacobian
	djcb   []float64 // M x 3N Jacobian time derivative
	lhs    []float64 // M x M, J W J^T
	rhs    []float64 // M
	lower  []float64 // M x M unit lower triangular
	upper  []float64 // M x M
	lambda []float64 // M
}

// New builds a solver with the given Baumgarte coefficients.
func New(stiffness, dampening float64) *Solver {
	return &Solver{stiffness: stiffness, dampening: dampening}
}

func (s *Solver) Stiffness() float64 { return s.stiffness }
func (s *Solver) Dampening() float64 { return s.dampening }

func (s *Solver) SetStiffness(stiffness float64) { s.stiffness = stiffness }
func (s *Solver) SetDampening(dampening float64) { s.dampening = dampening }

// Add registers a constraint. Row order in the Jacobian follows
// registration order.
func (s *Solver) Add(c rigid.Constraint) { s.constraints = append(s.constraints, c) }

// Remove drops a previously registered constraint.
func (s *Solver) Remove(c rigid.Constraint) {
	for i, have := range s.constraints {
		if have == c {
			s.constraints = append(s.constraints[:i], s.constraints[i+1:]...)
			return
		}
	}
}

func (s *Solver) Constraints() []rigid.Constraint { return s.constraints }

// MaxValue reports the largest |C| over all constraints, the drift of the
// current configuration off the constraint manifold.
func (s *Solver) MaxValue() float64 {
	max := 0.0
	for _, c := range s.constraints {
		max = math.Max(max, math.Abs(c.Value()))
	}
	return max
}

// SolveAndLoad computes the constraint accelerations for the current body
// poses and adds them into the acceleration half of stchanges in place.
// stchanges is the unconstrained state derivative (stride rigid.VarPerBody);
// invMasses holds [1/m, 1/m, 1/I] per body (stride rigid.PosPerBody).
//
// A singular system (redundant constraints, or every coupled body static)
// returns rigid.ErrSingularSystem, as does a NaN pivot; NaN or Inf in
// stchanges or in the solved multipliers returns rigid.ErrNumericBlowup.
// stchanges is left untouched on error.
func (s *Solver) SolveAndLoad(bodies []*rigid.Body, stchanges rigid.State, invMasses []float64) error {
	rows := len(s.constraints)
	if rows == 0 {
		return nil
	}
	if !stchanges.IsValid() {
		return rigid.ErrNumericBlowup
	}

	cols := rigid.PosPerBody * len(bodies)
	s.ensureScratch(rows, cols)

	s.constraintMatrix(s.jcb, rigid.Constraint.Gradient)
	s.constraintMatrix(s.djcb, rigid.Constraint.GradientDot)
	s.assembleLHS(rows, cols, invMasses)
	s.assembleRHS(rows, cols, stchanges, invMasses)

	if err := s.luSolve(rows); err != nil {
		return err
	}
	for _, l := range s.lambda {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return rigid.ErrNumericBlowup
		}
	}

	s.loadConstraintAccels(bodies, stchanges)
	return nil
}

func (s *Solver) ensureScratch(rows, cols int) {
	if len(s.jcb) != rows*cols {
		s.jcb = make([]float64, rows*cols)
		s.djcb = make([]float64, rows*cols)
	}
	if len(s.lhs) != rows*rows {
		s.lhs = make([]float64, rows*rows)
		s.lower = make([]float64, rows*rows)
		s.upper = make([]float64, rows*rows)
		s.rhs = make([]float64, rows)
		s.lambda = make([]float64, rows)
	}
}

// constraintMatrix fills one M x 3N matrix from a per-body gradient
// accessor. Columns of bodies a constraint does not couple stay zero.
func (s *Solver) constraintMatrix(dst []float64, grad func(rigid.Constraint, *rigid.Body) [rigid.PosPerBody]float64) {
	for i := range dst {
		dst[i] = 0
	}
	cols := len(dst) / len(s.constraints)
	for i, c := range s.constraints {
		for _, b := range c.Bodies() {
			g := grad(c, b)
			base := i*cols + b.Index()*rigid.PosPerBody
			for k := 0; k < rigid.PosPerBody; k++ {
				dst[base+k] = g[k]
			}
		}
	}
}

// assembleLHS forms A = J diag(W) J^T, symmetric by construction.
func (s *Solver) assembleLHS(rows, cols int, invMasses []float64) {
	for i := 0; i < rows; i++ {
		for j := i; j < rows; j++ {
			sum := 0.0
			for k := 0; k < cols; k++ {
				sum += s.jcb[i*cols+k] * s.jcb[j*cols+k] * invMasses[k]
			}
			s.lhs[i*rows+j] = sum
			s.lhs[j*rows+i] = sum
		}
	}
}

// assembleRHS forms b_i = -sum((Jdot*qdot + J*a_unc) * W) - stiffness*C_i
// - dampening*C'_i, reading velocities and unconstrained accelerations out
// of the interleaved stchanges vector.
func (s *Solver) assembleRHS(rows, cols int, stchanges rigid.State, invMasses []float64) {
	for i := 0; i < rows; i++ {
		b := 0.0
		for j := 0; j < cols/rigid.PosPerBody; j++ {
			for k := 0; k < rigid.PosPerBody; k++ {
				flat := j*rigid.PosPerBody + k
				stride := j*rigid.VarPerBody + k
				b -= (s.djcb[i*cols+flat]*stchanges[stride] +
					s.jcb[i*cols+flat]*stchanges[stride+rigid.PosPerBody]) *
					invMasses[flat]
			}
		}
		c := s.constraints[i]
		b -= s.stiffness*c.Value() + s.dampening*c.Derivative()
		s.rhs[i] = b
	}
}

// luSolve decomposes A = L U (Doolittle, no pivoting) and solves
// A lambda = rhs by forward and back substitution into s.lambda.
func (s *Solver) luSolve(n int) error {
	L, U := s.lower, s.upper
	for i := range L {
		L[i] = 0
		U[i] = 0
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sum := 0.0
			for k := 0; k < i; k++ {
				sum += L[i*n+k] * U[k*n+j]
			}
			U[i*n+j] = s.lhs[i*n+j] - sum
		}

		pivot := U[i*n+i]
		if math.Abs(pivot) < pivotEps || math.IsNaN(pivot) {
			return fmt.Errorf("%w: pivot %d is %g", rigid.ErrSingularSystem, i, pivot)
		}

		L[i*n+i] = 1
		for j := i + 1; j < n; j++ {
			sum := 0.0
			for k := 0; k < i; k++ {
				sum += L[j*n+k] * U[k*n+i]
			}
			L[j*n+i] = (s.lhs[j*n+i] - sum) / pivot
		}
	}

	for i := 0; i < n; i++ {
		val := s.rhs[i]
		for j := 0; j < i; j++ {
			val -= L[i*n+j] * s.lambda[j]
		}
		s.lambda[i] = val
	}
	for i := n - 1; i >= 0; i-- {
		val := s.lambda[i]
		for j := i + 1; j < n; j++ {
			val -= U[i*n+j] * s.lambda[j]
		}
		s.lambda[i] = val / U[i*n+i]
	}
	return nil
}

// loadConstraintAccels adds J^T lambda into the acceleration half of
// stchanges for dynamic bodies. Static bodies keep zero acceleration.
func (s *Solver) loadConstraintAccels(bodies []*rigid.Body, stchanges rigid.State) {
	rows := len(s.constraints)
	cols := rigid.PosPerBody * len(bodies)
	for i, b := range bodies {
		if !b.Dynamic() {
			continue
		}
		for j := 0; j < rigid.PosPerBody; j++ {
			accel := 0.0
			for k := 0; k < rows; k++ {
				accel += s.jcb[k*cols+i*rigid.PosPerBody+j] * s.lambda[k]
			}
			stchanges[rigid.VarPerBody*i+j+rigid.PosPerBody] += accel
		}
	}
}
