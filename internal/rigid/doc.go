// Package rigid provides the core primitives of the 2D rigid-body engine.
//
// The package defines the fundamental types shared by the integrator,
// the constraint solver and the engine orchestrator:
//
//   - [State]: flat state vector over all bodies, 6 values per body
//   - [Body]: a rigid body with pose, velocity, mass and polygon shape
//   - [ForceSource]: polymorphic generalised-force contributor
//   - [Constraint]: scalar holonomic constraint C(q) = 0 with gradients
//
// # State layout
//
// A population of N bodies is flattened into a State of length 6*N, laid
// out per body as [px, py, theta, vx, vy, omega]. The parallel inverse-mass
// vector has length 3*N with [1/m, 1/m, 1/I] per body (zero for static
// bodies). The strides are exported as [VarPerBody] and [PosPerBody].
//
// # Thread safety
//
// Bodies and the collections holding them are NOT thread-safe. A single
// goroutine drives the engine; force sources and constraints observe bodies
// read-only during evaluation.
package rigid
