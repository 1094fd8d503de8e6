package solver

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// State carries everything derived from the current displacement field: the
// total elastic energy, the stored nodal force F = dE/dU and the tangent
// stiffness K = d2E/dU2. It is recomputed from scratch by Assemble once per
// outer iteration and owned by exactly one solve at a time.
type State struct {
	U []float64 // displacements, 3 per node
	F []float64 // stored nodal force dE/dU, 3 per node

	K *Stiffness

	Energy    float64   // sum over elements with at least one variable corner
	TetEnergy []float64 // per-element energy, all elements
}

// NodeDisplacement returns the displacement of node n as a vector.
func (s *State) NodeDisplacement(n int) r3.Vec {
	return r3.Vec{X: s.U[3*n], Y: s.U[3*n+1], Z: s.U[3*n+2]}
}

// NodeForce returns the stored force of node n as a vector.
func (s *State) NodeForce(n int) r3.Vec {
	return r3.Vec{X: s.F[3*n], Y: s.F[3*n+1], Z: s.F[3*n+2]}
}

// SetNodeDisplacement overwrites the displacement of node n.
func (s *State) SetNodeDisplacement(n int, u r3.Vec) {
	s.U[3*n], s.U[3*n+1], s.U[3*n+2] = u.X, u.Y, u.Z
}
