// Package integrators advances flat state vectors with explicit
// Runge-Kutta methods parameterised by a Butcher tableau.
package integrators

import (
	"math"

	"github.com/san-kum/rigid2d/internal/rigid"
	"github.com/san-kum/rigid2d/internal/tableau"
)

// Derivative is the ODE right-hand side f(t, s) -> ds/dt. The returned
// state must have the same length as s; the integrator copies it before the
// next stage, so implementations may reuse an internal buffer.
type Derivative func(t float64, s rigid.State) (rigid.State, error)

// Butcher is a generic explicit Runge-Kutta stepper. Stage and output
// buffers are resized lazily on the first step and reused afterwards, so
// steady-state stepping allocates nothing.
type Butcher struct {
	tab *tableau.Tableau

	k     []rigid.State // one stage derivative per tableau stage
	probe rigid.State
	out   rigid.State
}

// New builds a stepper for the given tableau. The tableau is validated
// once here.
func New(tab *tableau.Tableau) (*Butcher, error) {
	if err := tab.Validate(); err != nil {
		return nil, err
	}
	return &Butcher{tab: tab}, nil
}

func (b *Butcher) Tableau() *tableau.Tableau { return b.tab }

func (b *Butcher) ensureScratch(n int) {
	if len(b.probe) == n && len(b.k) == b.tab.Stages() {
		return
	}
	b.k = make([]rigid.State, b.tab.Stages())
	for i := range b.k {
		b.k[i] = make(rigid.State, n)
	}
	b.probe = make(rigid.State, n)
	b.out = make(rigid.State, n)
}

// stages runs every stage of the tableau, filling b.k.
func (b *Butcher) stages(f Derivative, s rigid.State, t, dt float64) error {
	n := len(s)
	for i := 0; i < b.tab.Stages(); i++ {
		copy(b.probe, s)
		for j := 0; j < i; j++ {
			a := b.tab.A[i][j]
			if a == 0 {
				continue
			}
			kj := b.k[j]
			for d := 0; d < n; d++ {
				b.probe[d] += dt * a * kj[d]
			}
		}
		ki, err := f(t+b.tab.C[i]*dt, b.probe)
		if err != nil {
			return err
		}
		copy(b.k[i], ki)
	}
	return nil
}

// Step advances s by dt and returns the new state. The returned slice is
// an internal buffer overwritten by the next call; callers that keep it
// must clone.
func (b *Butcher) Step(f Derivative, s rigid.State, t, dt float64) (rigid.State, error) {
	b.ensureScratch(len(s))
	if err := b.stages(f, s, t, dt); err != nil {
		return nil, err
	}

	n := len(s)
	copy(b.out, s)
	for i, w := range b.tab.B {
		if w == 0 {
			continue
		}
		ki := b.k[i]
		for d := 0; d < n; d++ {
			b.out[d] += dt * w * ki[d]
		}
	}
	return b.out, nil
}

// StepEmbedded is Step plus the embedded error estimate
// ||s' - s_hat'|| from the tableau's lower-order weights. It returns
// rigid.ErrNotEmbedded for tableaus without one.
func (b *Butcher) StepEmbedded(f Derivative, s rigid.State, t, dt float64) (rigid.State, float64, error) {
	if !b.tab.Embedded() {
		return nil, 0, rigid.ErrNotEmbedded
	}
	b.ensureScratch(len(s))
	if err := b.stages(f, s, t, dt); err != nil {
		return nil, 0, err
	}

	n := len(s)
	copy(b.out, s)
	errSq := 0.0
	for d := 0; d < n; d++ {
		diff := 0.0
		for i := range b.tab.B {
			ki := b.k[i][d]
			b.out[d] += dt * b.tab.B[i] * ki
			diff += dt * (b.tab.B[i] - b.tab.BHat[i]) * ki
		}
		errSq += diff * diff
	}
	return b.out, math.Sqrt(errSq), nil
}
