// Package mesh holds the tetrahedral discretization: node rest positions,
// element connectivity, per-element shape gradients and volumes, and per-axis
// boundary conditions. Node order defines the degree-of-freedom order used by
// the solvers: node i owns DOFs 3i, 3i+1, 3i+2.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/fibernetics/fibernet/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrShape         = errors.New("mesh: malformed input array")
	ErrBadIndex      = errors.New("mesh: node index out of range")
	ErrDegenerateTet = errors.New("mesh: degenerate tetrahedron")
	ErrNotReady      = errors.New("mesh: nodes and tetrahedra must be set first")
)

// Mesh is immutable during a solve: the setters are called once up front and
// validate eagerly, so no assembly ever starts on malformed input.
type Mesh struct {
	Nodes []r3.Vec // rest positions
	Tets  [][4]int // corner node indices

	// Phi[t][m] is the constant shape-function gradient of corner m of
	// tetrahedron t; Volume[t] the reference volume. Both are computed by
	// SetTetrahedra from the rest positions.
	Phi    [][4]r3.Vec
	Volume []float64

	// BC[n][axis] is the per-axis boundary state; the zero value is Free.
	BC [][3]AxisState

	// Disp is the initial displacement field (forward mode start point).
	// Target is the measured displacement field fitted in inverse mode.
	Disp   []r3.Vec
	Target []r3.Vec

	pairs [][2]int // cached unordered connectivity
}

func New() *Mesh { return &Mesh{} }

func (m *Mesh) NumNodes() int { return len(m.Nodes) }
func (m *Mesh) NumTets() int  { return len(m.Tets) }

// SetNodes stores the rest positions and resets all node-indexed fields to
// their defaults (all axes free, zero displacements).
func (m *Mesh) SetNodes(nodes []r3.Vec) (err error) {
	if len(nodes) < 4 {
		err = fmt.Errorf("%w: need at least 4 nodes, got %d", ErrShape, len(nodes))
		return
	}
	for i, p := range nodes {
		if !finiteVec(p) {
			err = fmt.Errorf("%w: node %d position is not finite", ErrShape, i)
			return
		}
	}
	m.Nodes = append([]r3.Vec(nil), nodes...)
	m.BC = make([][3]AxisState, len(nodes))
	m.Disp = make([]r3.Vec, len(nodes))
	m.Target = nil
	m.Tets, m.Phi, m.Volume, m.pairs = nil, nil, nil, nil
	return
}

// SetTetrahedra stores the elements and immediately computes shape gradients
// and volumes, so index errors and degenerate geometry surface here, before
// any assembly.
func (m *Mesh) SetTetrahedra(tets [][4]int) (err error) {
	if len(m.Nodes) == 0 {
		return ErrNotReady
	}
	if len(tets) == 0 {
		err = fmt.Errorf("%w: need at least one tetrahedron", ErrShape)
		return
	}
	for t, tet := range tets {
		for c := 0; c < 4; c++ {
			if tet[c] < 0 || tet[c] >= len(m.Nodes) {
				err = fmt.Errorf("%w: tetrahedron %d corner %d references node %d of %d",
					ErrBadIndex, t, c, tet[c], len(m.Nodes))
				return
			}
			for d := 0; d < c; d++ {
				if tet[c] == tet[d] {
					err = fmt.Errorf("%w: tetrahedron %d repeats node %d", ErrDegenerateTet, t, tet[c])
					return
				}
			}
		}
	}
	m.Tets = make([][4]int, len(tets))
	copy(m.Tets, tets)
	m.pairs = nil
	err = m.computeShape()
	return
}

// computeShape fills Phi and Volume. For each element, B collects the edge
// vectors from corner 0 as columns; the corner gradients are the rows of
// B^-1 with corner 0 carrying the negative sum, and V = |det B| / 6.
func (m *Mesh) computeShape() (err error) {
	m.Phi = make([][4]r3.Vec, len(m.Tets))
	m.Volume = make([]float64, len(m.Tets))
	for t, tet := range m.Tets {
		var (
			p0 = m.Nodes[tet[0]]
			B  = utils.NewMat3FromCols(
				r3.Sub(m.Nodes[tet[1]], p0),
				r3.Sub(m.Nodes[tet[2]], p0),
				r3.Sub(m.Nodes[tet[3]], p0))
			det = B.Det()
		)
		vol := math.Abs(det) / 6.
		if vol == 0 || math.IsNaN(vol) || math.IsInf(vol, 0) {
			err = fmt.Errorf("%w: tetrahedron %d has volume %v", ErrDegenerateTet, t, vol)
			return
		}
		Binv, ierr := B.Inverse()
		if ierr != nil {
			err = fmt.Errorf("%w: tetrahedron %d: %v", ErrDegenerateTet, t, ierr)
			return
		}
		var grad [4]r3.Vec
		for c := 1; c < 4; c++ {
			grad[c] = Binv.Row(c - 1)
		}
		grad[0] = r3.Scale(-1, r3.Add(grad[1], r3.Add(grad[2], grad[3])))
		m.Phi[t] = grad
		m.Volume[t] = vol
	}
	return
}

// SetBoundary installs the per-axis boundary states, one [3]AxisState per
// node.
func (m *Mesh) SetBoundary(bc [][3]AxisState) (err error) {
	if len(m.Nodes) == 0 {
		return ErrNotReady
	}
	if len(bc) != len(m.Nodes) {
		err = fmt.Errorf("%w: %d boundary entries for %d nodes", ErrShape, len(bc), len(m.Nodes))
		return
	}
	m.BC = make([][3]AxisState, len(bc))
	copy(m.BC, bc)
	return
}

// SetDisplacements installs the initial displacement field. Fixed axes are
// still pinned to their boundary values when a solve starts.
func (m *Mesh) SetDisplacements(u []r3.Vec) (err error) {
	if len(m.Nodes) == 0 {
		return ErrNotReady
	}
	if len(u) != len(m.Nodes) {
		err = fmt.Errorf("%w: %d displacements for %d nodes", ErrShape, len(u), len(m.Nodes))
		return
	}
	m.Disp = append([]r3.Vec(nil), u...)
	return
}

// SetTargetDisplacements installs the measured displacement field that
// inverse solves fit against.
func (m *Mesh) SetTargetDisplacements(u []r3.Vec) (err error) {
	if len(m.Nodes) == 0 {
		return ErrNotReady
	}
	if len(u) != len(m.Nodes) {
		err = fmt.Errorf("%w: %d target displacements for %d nodes", ErrShape, len(u), len(m.Nodes))
		return
	}
	for i, p := range u {
		if !finiteVec(p) {
			err = fmt.Errorf("%w: target displacement %d is not finite", ErrShape, i)
			return
		}
	}
	m.Target = append([]r3.Vec(nil), u...)
	return
}

// Variable reports whether node n has at least one non-fixed axis.
func (m *Mesh) Variable(n int) bool {
	bc := m.BC[n]
	return !bc[0].IsFixed() || !bc[1].IsFixed() || !bc[2].IsFixed()
}

// NumVariable counts the nodes free to move along at least one axis.
func (m *Mesh) NumVariable() (n int) {
	for i := range m.BC {
		if m.Variable(i) {
			n++
		}
	}
	return
}

// FreeAxes returns the 3N mask of unconstrained degrees of freedom.
func (m *Mesh) FreeAxes() (free []bool) {
	free = make([]bool, 3*len(m.Nodes))
	for n, bc := range m.BC {
		for ax := 0; ax < 3; ax++ {
			free[3*n+ax] = !bc[ax].IsFixed()
		}
	}
	return
}

// ExternalForce returns the imposed per-DOF external force vector.
func (m *Mesh) ExternalForce() (f []float64) {
	f = make([]float64, 3*len(m.Nodes))
	for n, bc := range m.BC {
		for ax := 0; ax < 3; ax++ {
			f[3*n+ax] = bc[ax].Force()
		}
	}
	return
}

// Centroid returns the mean rest position.
func (m *Mesh) Centroid() (c r3.Vec) {
	for _, p := range m.Nodes {
		c = r3.Add(c, p)
	}
	c = r3.Scale(1./float64(len(m.Nodes)), c)
	return
}

// TetCenter returns the rest-position center of tetrahedron t.
func (m *Mesh) TetCenter(t int) (c r3.Vec) {
	for _, n := range m.Tets[t] {
		c = r3.Add(c, m.Nodes[n])
	}
	c = r3.Scale(0.25, c)
	return
}

func finiteVec(p r3.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}
