package engine

import "github.com/san-kum/rigid2d/internal/rigid"

// ode is the state-derivative callback handed to the integrator. For a
// probe state s it:
//
//  1. loads s into the bodies,
//  2. resets the force accumulators,
//  3. applies every force source in registration order,
//  4. emits [vx, vy, omega, ax, ay, alpha] per body, accelerations being
//     the unconstrained F/m (zero for static bodies),
//  5. lets the solver add the constraint accelerations in place.
//
// The returned slice is e.stchanges, reused across stages; the integrator
// copies it before the next call.
func (e *Engine) ode(t float64, s rigid.State) (rigid.State, error) {
	e.Retrieve(s)
	e.ResetAccumulators()

	for _, f := range e.forces {
		if f.scope.global {
			for _, b := range e.bodies {
				force, torque := f.src.Force(b)
				b.AddForce(force)
				b.AddTorque(torque)
			}
			continue
		}
		b, err := e.Body(f.scope.handle)
		if err != nil {
			return nil, err
		}
		force, torque := f.src.Force(b)
		b.AddForce(force)
		b.AddTorque(torque)
	}

	for _, b := range e.bodies {
		accel, angAccel := b.Accel()
		j := b.Index() * rigid.VarPerBody
		e.stchanges[j] = s[j+3]
		e.stchanges[j+1] = s[j+4]
		e.stchanges[j+2] = s[j+5]
		e.stchanges[j+3] = accel.X
		e.stchanges[j+4] = accel.Y
		e.stchanges[j+5] = angAccel
	}

	if err := e.solver.SolveAndLoad(e.bodies, e.stchanges, e.invMasses); err != nil {
		return nil, err
	}
	return e.stchanges, nil
}
