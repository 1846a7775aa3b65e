package solver

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigid2d/internal/geometry"
	"github.com/san-kum/rigid2d/internal/rigid"
)

func makeBody(pos, vel geometry.Vec2, static bool, index int) *rigid.Body {
	b, err := rigid.NewBody(rigid.BodySpec{
		Pos:    pos,
		Vel:    vel,
		Mass:   1,
		Static: static,
		Vertices: []geometry.Vec2{
			{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5},
		},
	})
	Expect(err).NotTo(HaveOccurred())
	b.SetIndex(index)
	return b
}

// flatten builds the unconstrained state derivative [v, a_unc] per body
// and the parallel inverse-mass vector.
func flatten(bodies []*rigid.Body, accels []geometry.Vec2) (rigid.State, []float64) {
	stchanges := make(rigid.State, rigid.VarPerBody*len(bodies))
	invMasses := make([]float64, rigid.PosPerBody*len(bodies))
	for i, b := range bodies {
		j := rigid.VarPerBody * i
		stchanges[j] = b.Vel().X
		stchanges[j+1] = b.Vel().Y
		stchanges[j+2] = b.AngVel()
		if b.Dynamic() && accels != nil {
			stchanges[j+3] = accels[i].X
			stchanges[j+4] = accels[i].Y
		}

		k := rigid.PosPerBody * i
		invMasses[k] = b.InvMass()
		invMasses[k+1] = b.InvMass()
		invMasses[k+2] = b.InvInertia()
	}
	return stchanges, invMasses
}

var _ = Describe("SolveAndLoad", func() {
	var s *Solver

	BeforeEach(func() {
		s = New(0, 0)
	})

	It("is a no-op without constraints", func() {
		bodies := []*rigid.Body{makeBody(geometry.Vec2{}, geometry.Vec2{}, false, 0)}
		stchanges, invMasses := flatten(bodies, []geometry.Vec2{{X: 1, Y: 2}})
		before := stchanges.Clone()

		Expect(s.SolveAndLoad(bodies, stchanges, invMasses)).To(Succeed())
		Expect([]float64(stchanges)).To(Equal([]float64(before)))
	})

	It("cancels the stretching component of gravity on a rigid link", func() {
		// Static anchor at origin, dynamic bob at (1, 0), gravity pulling
		// down. The constraint force may not accelerate the bob along the
		// link; the downward component stays untouched.
		anchor := makeBody(geometry.Vec2{}, geometry.Vec2{}, true, 0)
		bob := makeBody(geometry.Vec2{X: 1, Y: 0}, geometry.Vec2{}, false, 1)
		bodies := []*rigid.Body{anchor, bob}

		s.Add(rigid.NewDistanceConstraint(anchor, bob))

		gravity := geometry.Vec2{Y: -9.81}
		stchanges, invMasses := flatten(bodies, []geometry.Vec2{{}, gravity})
		Expect(s.SolveAndLoad(bodies, stchanges, invMasses)).To(Succeed())

		// Link is along x: the x acceleration must vanish, y keeps gravity.
		Expect(stchanges[rigid.VarPerBody+3]).To(BeNumerically("~", 0, 1e-9))
		Expect(stchanges[rigid.VarPerBody+4]).To(BeNumerically("~", gravity.Y, 1e-9))

		// The static anchor never accelerates.
		Expect(stchanges[3]).To(BeZero())
		Expect(stchanges[4]).To(BeZero())
		Expect(stchanges[5]).To(BeZero())
	})

	It("satisfies the stabilised constraint equation at the acceleration level", func() {
		a := makeBody(geometry.Vec2{X: -0.5, Y: 0.2}, geometry.Vec2{X: 0.3, Y: -0.1}, false, 0)
		b := makeBody(geometry.Vec2{X: 0.9, Y: -0.4}, geometry.Vec2{X: -0.2, Y: 0.4}, false, 1)
		bodies := []*rigid.Body{a, b}

		c := rigid.NewDistanceConstraint(a, b)
		c.Length = 1.2 // off the manifold so C != 0
		s.SetStiffness(100)
		s.SetDampening(20)
		s.Add(c)

		unconstrained := []geometry.Vec2{{X: 1, Y: -9.81}, {X: -2, Y: -9.81}}
		stchanges, invMasses := flatten(bodies, unconstrained)
		Expect(s.SolveAndLoad(bodies, stchanges, invMasses)).To(Succeed())

		// C'' = J*a + Jdot*qdot must equal -(stiffness*C + dampening*C').
		cddot := 0.0
		for _, body := range bodies {
			g := c.Gradient(body)
			gdot := c.GradientDot(body)
			i := body.Index() * rigid.VarPerBody
			for d := 0; d < rigid.PosPerBody; d++ {
				cddot += g[d]*stchanges[i+d+rigid.PosPerBody] + gdot[d]*stchanges[i+d]
			}
		}
		target := -(100*c.Value() + 20*c.Derivative())
		Expect(cddot).To(BeNumerically("~", target, 1e-9))
	})

	It("conserves momentum for an internal link", func() {
		a := makeBody(geometry.Vec2{}, geometry.Vec2{X: 1, Y: 0}, false, 0)
		b := makeBody(geometry.Vec2{X: 1, Y: 1}, geometry.Vec2{X: -1, Y: 0}, false, 1)
		bodies := []*rigid.Body{a, b}
		s.Add(rigid.NewDistanceConstraint(a, b))

		stchanges, invMasses := flatten(bodies, []geometry.Vec2{{}, {}})
		before := stchanges.Clone()
		Expect(s.SolveAndLoad(bodies, stchanges, invMasses)).To(Succeed())

		// Equal masses: the constraint accelerations must be opposite.
		dax := stchanges[3] - before[3]
		day := stchanges[4] - before[4]
		dbx := stchanges[rigid.VarPerBody+3] - before[rigid.VarPerBody+3]
		dby := stchanges[rigid.VarPerBody+4] - before[rigid.VarPerBody+4]
		Expect(dax + dbx).To(BeNumerically("~", 0, 1e-12))
		Expect(day + dby).To(BeNumerically("~", 0, 1e-12))
	})

	It("rejects duplicate constraints as singular", func() {
		a := makeBody(geometry.Vec2{}, geometry.Vec2{}, false, 0)
		b := makeBody(geometry.Vec2{X: 1, Y: 0}, geometry.Vec2{}, false, 1)
		bodies := []*rigid.Body{a, b}

		s.Add(rigid.NewDistanceConstraint(a, b))
		s.Add(rigid.NewDistanceConstraint(a, b))

		stchanges, invMasses := flatten(bodies, []geometry.Vec2{{}, {}})
		before := stchanges.Clone()

		err := s.SolveAndLoad(bodies, stchanges, invMasses)
		Expect(err).To(MatchError(rigid.ErrSingularSystem))
		Expect([]float64(stchanges)).To(Equal([]float64(before)))
	})

	It("rejects a constraint coupling only static bodies", func() {
		a := makeBody(geometry.Vec2{}, geometry.Vec2{}, true, 0)
		b := makeBody(geometry.Vec2{X: 1, Y: 0}, geometry.Vec2{}, true, 1)
		bodies := []*rigid.Body{a, b}
		s.Add(rigid.NewDistanceConstraint(a, b))

		stchanges, invMasses := flatten(bodies, nil)
		err := s.SolveAndLoad(bodies, stchanges, invMasses)
		Expect(err).To(MatchError(rigid.ErrSingularSystem))
	})

	It("reports numeric blowup instead of propagating NaN", func() {
		a := makeBody(geometry.Vec2{}, geometry.Vec2{}, false, 0)
		b := makeBody(geometry.Vec2{X: 1, Y: 0}, geometry.Vec2{}, false, 1)
		bodies := []*rigid.Body{a, b}
		s.Add(rigid.NewDistanceConstraint(a, b))

		stchanges, invMasses := flatten(bodies, []geometry.Vec2{{}, {}})
		stchanges[3] = math.NaN()

		err := s.SolveAndLoad(bodies, stchanges, invMasses)
		Expect(err).To(MatchError(rigid.ErrNumericBlowup))
	})
})

var _ = Describe("matrix assembly", func() {
	It("produces a symmetric LHS", func() {
		s := New(DefaultStiffness, DefaultDampening)
		bodies := []*rigid.Body{
			makeBody(geometry.Vec2{}, geometry.Vec2{}, false, 0),
			makeBody(geometry.Vec2{X: 1.3, Y: 0.7}, geometry.Vec2{}, false, 1),
			makeBody(geometry.Vec2{X: -0.8, Y: 1.9}, geometry.Vec2{}, false, 2),
		}
		s.Add(rigid.NewDistanceConstraint(bodies[0], bodies[1]))
		s.Add(rigid.NewDistanceConstraint(bodies[1], bodies[2]))
		s.Add(rigid.NewAnchorConstraint(bodies[2], geometry.Vec2{X: 5, Y: 5}))

		_, invMasses := flatten(bodies, nil)
		rows := len(s.constraints)
		cols := rigid.PosPerBody * len(bodies)
		s.ensureScratch(rows, cols)
		s.constraintMatrix(s.jcb, rigid.Constraint.Gradient)
		s.assembleLHS(rows, cols, invMasses)

		for i := 0; i < rows; i++ {
			for j := 0; j < rows; j++ {
				Expect(s.lhs[i*rows+j]).To(Equal(s.lhs[j*rows+i]))
			}
		}
	})
})

var _ = Describe("luSolve", func() {
	It("round-trips random SPD systems", func() {
		rng := rand.New(rand.NewSource(42))
		const n = 8

		s := New(0, 0)
		s.lhs = make([]float64, n*n)
		s.lower = make([]float64, n*n)
		s.upper = make([]float64, n*n)
		s.rhs = make([]float64, n)
		s.lambda = make([]float64, n)

		for trial := 0; trial < 20; trial++ {
			// A = B B^T + I is symmetric positive definite.
			B := make([]float64, n*n)
			for i := range B {
				B[i] = rng.NormFloat64()
			}
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					sum := 0.0
					for k := 0; k < n; k++ {
						sum += B[i*n+k] * B[j*n+k]
					}
					s.lhs[i*n+j] = sum
				}
				s.lhs[i*n+i] += 1
			}
			for i := 0; i < n; i++ {
				s.rhs[i] = rng.NormFloat64()
			}

			Expect(s.luSolve(n)).To(Succeed())

			// Residual ||A*lambda - b|| / ||b||.
			num, den := 0.0, 0.0
			for i := 0; i < n; i++ {
				r := -s.rhs[i]
				for j := 0; j < n; j++ {
					r += s.lhs[i*n+j] * s.lambda[j]
				}
				num += r * r
				den += s.rhs[i] * s.rhs[i]
			}
			Expect(math.Sqrt(num / den)).To(BeNumerically("<", 1e-10))
		}
	})

	It("flags a zero pivot", func() {
		s := New(0, 0)
		const n = 2
		s.lhs = []float64{1, 1, 1, 1} // rank deficient
		s.lower = make([]float64, n*n)
		s.upper = make([]float64, n*n)
		s.rhs = []float64{1, 2}
		s.lambda = make([]float64, n)

		Expect(s.luSolve(n)).To(MatchError(rigid.ErrSingularSystem))
	})
})
