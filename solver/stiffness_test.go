package solver

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A 5-node pattern with two elements worth of coupling.
func testPattern() (nNodes int, pairs [][2]int) {
	nNodes = 5
	pairs = [][2]int{
		{0, 0}, {0, 1}, {0, 2}, {0, 3},
		{1, 1}, {1, 2}, {1, 3},
		{2, 2}, {2, 3}, {2, 4},
		{3, 3}, {3, 4},
		{4, 4},
	}
	return
}

func fillRandom(k *Stiffness, rng *rand.Rand) {
	for i := range k.data {
		k.data[i] = rng.NormFloat64()
	}
	// self blocks must be symmetric, as assembly guarantees
	for idx, p := range k.pat.pairs {
		if p[0] != p[1] {
			continue
		}
		b := k.block(idx)
		b[1], b[3] = 0.5*(b[1]+b[3]), 0.5*(b[1]+b[3])
		b[2], b[6] = 0.5*(b[2]+b[6]), 0.5*(b[2]+b[6])
		b[5], b[7] = 0.5*(b[5]+b[7]), 0.5*(b[5]+b[7])
	}
}

func TestStiffnessSymmetry(t *testing.T) {
	var (
		rng = rand.New(rand.NewSource(1))
		k   = NewStiffness(testPattern())
	)
	fillRandom(k, rng)

	// Block(i,j) is the transpose of Block(j,i) for every stored pair
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			bij, ok1 := k.Block(i, j)
			bji, ok2 := k.Block(j, i)
			assert.Equal(t, ok1, ok2)
			if !ok1 {
				continue
			}
			bt := bji.Transpose()
			for e := 0; e < 9; e++ {
				assert.InDeltaf(t, bij[e], bt[e], 0., "block %d,%d entry %d", i, j, e)
			}
		}
	}

	// The scalar operator is symmetric: x.K.y == y.K.x
	var (
		n    = k.Dim()
		x    = make([]float64, n)
		y    = make([]float64, n)
		kx   = make([]float64, n)
		ky   = make([]float64, n)
		xKy  float64
		yKx  float64
		rng2 = rand.New(rand.NewSource(2))
	)
	for i := 0; i < n; i++ {
		x[i] = rng2.NormFloat64()
		y[i] = rng2.NormFloat64()
	}
	k.MulVec(kx, x)
	k.MulVec(ky, y)
	for i := 0; i < n; i++ {
		xKy += x[i] * ky[i]
		yKx += y[i] * kx[i]
	}
	assert.InDeltaf(t, xKy, yKx, 1.e-12*(1.+math.Abs(xKy)), "operator symmetry")
}

func TestStiffnessCSRExport(t *testing.T) {
	var (
		rng = rand.New(rand.NewSource(3))
		k   = NewStiffness(testPattern())
	)
	fillRandom(k, rng)

	csr := k.ToCSR()
	r, c := csr.Dims()
	require.Equal(t, k.Dim(), r)
	require.Equal(t, k.Dim(), c)

	// CSR is the same operator, and symmetric entry by entry
	var (
		n  = k.Dim()
		x  = make([]float64, n)
		kx = make([]float64, n)
	)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	k.MulVec(kx, x)
	for i := 0; i < n; i++ {
		var dot float64
		for j := 0; j < n; j++ {
			dot += csr.At(i, j) * x[j]
			assert.InDeltaf(t, csr.At(i, j), csr.At(j, i), 0., "csr symmetry %d,%d", i, j)
		}
		assert.InDeltaf(t, kx[i], dot, 1.e-12*(1.+math.Abs(kx[i])), "csr row %d", i)
	}
}

func TestStiffnessPattern(t *testing.T) {
	k := NewStiffness(testPattern())
	assert.Equal(t, 15, k.Dim())
	assert.Equal(t, 13, k.NumBlocks())

	// structurally zero pair
	_, ok := k.Block(0, 4)
	assert.False(t, ok)
	_, ok = k.Block(4, 0)
	assert.False(t, ok)

	// Zero clears all stored data
	fillRandom(k, rand.New(rand.NewSource(4)))
	k.Zero()
	for _, v := range k.data {
		assert.Equal(t, 0., v)
	}
}
