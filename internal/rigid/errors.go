package rigid

import (
	"errors"
	"fmt"
)

// Domain errors for registration and stepping.
var (
	// ErrDegenerateBody indicates a body spec with non-positive mass or a
	// polygon that does not enclose area.
	ErrDegenerateBody = errors.New("rigid: degenerate body")

	// ErrSingularSystem indicates a redundant or inconsistent constraint
	// system (an LU pivot collapsed to zero).
	ErrSingularSystem = errors.New("rigid: singular constraint system")

	// ErrHandleInvalidated indicates a stale body handle used after the
	// body collection was restructured.
	ErrHandleInvalidated = errors.New("rigid: body handle invalidated")

	// ErrArityMismatch indicates a constraint referencing the wrong number
	// of bodies, or bodies not owned by the engine.
	ErrArityMismatch = errors.New("rigid: constraint arity mismatch")

	// ErrNumericBlowup indicates NaN or Inf in the state derivative.
	ErrNumericBlowup = errors.New("rigid: numeric blowup in state derivative")

	// ErrNotEmbedded indicates an adaptive step was requested with a
	// tableau that carries no embedded error estimate.
	ErrNotEmbedded = errors.New("rigid: tableau has no embedded error estimate")

	// ErrStepTooSmall indicates the adaptive controller shrank dt below
	// its minimum without meeting the tolerance.
	ErrStepTooSmall = errors.New("rigid: adaptive timestep below minimum")
)

// StepError wraps a failure during a simulation step with its context.
// Bodies are guaranteed to be at their pre-step state when one is returned.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
