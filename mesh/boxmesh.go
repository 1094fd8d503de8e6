package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// kuhnTets splits a grid cell into six tetrahedra sharing the main diagonal.
// Corner codes are bit patterns: bit 0 = +x, bit 1 = +y, bit 2 = +z. Every
// tetrahedron has volume grain^3/6 with positive orientation.
var kuhnTets = [6][4]int{
	{0, 1, 3, 7},
	{0, 3, 2, 7},
	{0, 2, 6, 7},
	{0, 6, 4, 7},
	{0, 4, 5, 7},
	{0, 5, 1, 7},
}

// NewBoxMesh builds a regular n x n x n node grid with the given spacing,
// centered on the origin, with each of the (n-1)^3 cells split into six Kuhn
// tetrahedra. All boundary conditions default to Free.
func NewBoxMesh(n int, grain float64) (m *Mesh, err error) {
	if n < 2 {
		err = fmt.Errorf("%w: box mesh needs at least 2 nodes per edge, got %d", ErrShape, n)
		return
	}
	if grain <= 0 {
		err = fmt.Errorf("%w: box mesh spacing must be positive, got %v", ErrShape, grain)
		return
	}
	var (
		off   = 0.5 * float64(n-1) * grain
		nodes = make([]r3.Vec, 0, n*n*n)
		tets  = make([][4]int, 0, 6*(n-1)*(n-1)*(n-1))
		idx   = func(i, j, k int) int { return i + n*(j+n*k) }
	)
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				nodes = append(nodes, r3.Vec{
					X: float64(i)*grain - off,
					Y: float64(j)*grain - off,
					Z: float64(k)*grain - off,
				})
			}
		}
	}
	for k := 0; k < n-1; k++ {
		for j := 0; j < n-1; j++ {
			for i := 0; i < n-1; i++ {
				var c [8]int
				for b := 0; b < 8; b++ {
					c[b] = idx(i+b&1, j+(b>>1)&1, k+(b>>2)&1)
				}
				for _, kt := range kuhnTets {
					tets = append(tets, [4]int{c[kt[0]], c[kt[1]], c[kt[2]], c[kt[3]]})
				}
			}
		}
	}
	m = New()
	if err = m.SetNodes(nodes); err != nil {
		return
	}
	err = m.SetTetrahedra(tets)
	return
}
