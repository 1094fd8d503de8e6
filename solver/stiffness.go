package solver

import (
	"fmt"

	"github.com/fibernetics/fibernet/utils"
	"github.com/james-bowman/sparse"
)

// stiffPattern is the immutable block sparsity pattern shared by every
// Stiffness built from the same mesh: one 3x3 block per unordered node pair
// that shares an element, in ascending (i, j) order.
type stiffPattern struct {
	nNodes int
	pairs  [][2]int
	slot   map[[2]int]int // pair -> block ordinal; data offset is 9*ordinal
}

func newStiffPattern(nNodes int, pairs [][2]int) (pat *stiffPattern) {
	pat = &stiffPattern{
		nNodes: nNodes,
		pairs:  pairs,
		slot:   make(map[[2]int]int, len(pairs)),
	}
	for idx, p := range pairs {
		if p[0] > p[1] || p[1] >= nNodes {
			panic(fmt.Sprintf("invalid stiffness pair %v of %d nodes", p, nNodes))
		}
		pat.slot[p] = idx
	}
	return
}

// Stiffness is the global tangent stiffness K = d2E/dU2 stored as contiguous
// 3x3 blocks over unordered node pairs. Only the i <= j block of each pair is
// stored; the mirror block is its transpose, which assembly guarantees by
// construction (every element contribution is itself symmetric). Block order
// is fixed by the pattern, making matrix-vector products and reductions
// deterministic.
type Stiffness struct {
	pat  *stiffPattern
	data []float64
}

func NewStiffness(nNodes int, pairs [][2]int) *Stiffness {
	return &Stiffness{
		pat:  newStiffPattern(nNodes, pairs),
		data: make([]float64, 9*len(pairs)),
	}
}

// Dim is the number of scalar degrees of freedom (3 per node).
func (k *Stiffness) Dim() int { return 3 * k.pat.nNodes }

// NumBlocks is the number of stored node-pair blocks.
func (k *Stiffness) NumBlocks() int { return len(k.pat.pairs) }

func (k *Stiffness) Zero() {
	for i := range k.data {
		k.data[i] = 0
	}
}

// block returns the writable 9-float storage of pair ordinal idx.
func (k *Stiffness) block(idx int) []float64 {
	return k.data[9*idx : 9*idx+9]
}

// Block returns the 3x3 block coupling nodes i and j, transposing the stored
// block when (i, j) addresses the mirror side. ok is false when the pair is
// not in the pattern (a structurally zero block).
func (k *Stiffness) Block(i, j int) (b utils.Mat3, ok bool) {
	var (
		key        = [2]int{i, j}
		transposed bool
	)
	if i > j {
		key = [2]int{j, i}
		transposed = true
	}
	idx, ok := k.pat.slot[key]
	if !ok {
		return
	}
	copy(b[:], k.block(idx))
	if transposed {
		b = b.Transpose()
	}
	return
}

// MulVec computes dst = K*x over all degrees of freedom. Both slices must
// have length Dim.
func (k *Stiffness) MulVec(dst, x []float64) {
	if len(dst) != k.Dim() || len(x) != k.Dim() {
		panic(fmt.Sprintf("dimension mismatch: operator %d, dst %d, x %d", k.Dim(), len(dst), len(x)))
	}
	for i := range dst {
		dst[i] = 0
	}
	for idx, p := range k.pat.pairs {
		var (
			b      = k.block(idx)
			ri, rj = 3 * p[0], 3 * p[1]
		)
		x0, x1, x2 := x[rj], x[rj+1], x[rj+2]
		dst[ri] += b[0]*x0 + b[1]*x1 + b[2]*x2
		dst[ri+1] += b[3]*x0 + b[4]*x1 + b[5]*x2
		dst[ri+2] += b[6]*x0 + b[7]*x1 + b[8]*x2
		if p[0] == p[1] {
			continue
		}
		// mirror side applies the transpose
		y0, y1, y2 := x[ri], x[ri+1], x[ri+2]
		dst[rj] += b[0]*y0 + b[3]*y1 + b[6]*y2
		dst[rj+1] += b[1]*y0 + b[4]*y1 + b[7]*y2
		dst[rj+2] += b[2]*y0 + b[5]*y1 + b[8]*y2
	}
}

// ToCSR exports the full scalar matrix (both block triangles) for use with
// external sparse tooling.
func (k *Stiffness) ToCSR() *sparse.CSR {
	var (
		n   = k.Dim()
		dok = sparse.NewDOK(n, n)
	)
	for idx, p := range k.pat.pairs {
		b := k.block(idx)
		for bi := 0; bi < 3; bi++ {
			for bj := 0; bj < 3; bj++ {
				v := b[3*bi+bj]
				if v == 0 {
					continue
				}
				dok.Set(3*p[0]+bi, 3*p[1]+bj, v)
				if p[0] != p[1] {
					dok.Set(3*p[1]+bj, 3*p[0]+bi, v)
				}
			}
		}
	}
	return dok.ToCSR()
}
