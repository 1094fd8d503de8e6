package mesh

import (
	"sort"

	"github.com/james-bowman/sparse"
)

// Pairs returns every unordered node pair (i <= j, self pairs included) that
// shares at least one tetrahedron, in ascending (i, j) order. This list seeds
// the block sparsity pattern of the global stiffness matrix.
//
// The pairs fall out of the node/element incidence product: with C the
// N x T incidence matrix, C*C' is nonzero exactly where two nodes meet in an
// element. The product also merges duplicate pairs from elements sharing a
// face, which a nested loop would have to dedupe by hand.
func (m *Mesh) Pairs() [][2]int {
	if m.pairs != nil {
		return m.pairs
	}
	var (
		nN = len(m.Nodes)
		nT = len(m.Tets)
	)
	incidence := sparse.NewDOK(nN, nT)
	for t, tet := range m.Tets {
		for _, n := range tet {
			incidence.Set(n, t, 1)
		}
	}
	var (
		C = incidence.ToCSR()
		P = sparse.NewCSR(nN, nN, nil, nil, nil)
	)
	P.Mul(C, C.T())

	pairs := make([][2]int, 0, nN*8)
	P.DoNonZero(func(i, j int, v float64) {
		if i <= j {
			pairs = append(pairs, [2]int{i, j})
		}
	})
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})
	m.pairs = pairs
	return pairs
}
