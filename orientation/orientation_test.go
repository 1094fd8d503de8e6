package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func checkQuadrature(t *testing.T, s *Set, label string) {
	t.Helper()
	assert.Equal(t, len(s.Dirs), len(s.Weights))
	var (
		wSum   float64
		mean   r3.Vec
		second [3][3]float64
	)
	for i, d := range s.Dirs {
		assert.InDeltaf(t, 1., r3.Norm(d), 1.e-12, "%s: direction %d not unit", label, i)
		w := s.Weights[i]
		assert.Truef(t, w > 0, "%s: weight %d not positive", label, i)
		wSum += w
		mean = r3.Add(mean, r3.Scale(w, d))
		c := [3]float64{d.X, d.Y, d.Z}
		for m := 0; m < 3; m++ {
			for n := 0; n < 3; n++ {
				second[m][n] += w * c[m] * c[n]
			}
		}
	}
	// Weighted integral of a constant reproduces the constant
	assert.InDeltaf(t, 1., wSum, 1.e-12, "%s: weights", label)
	// First moment vanishes, second moment is isotropic: <d (x) d> = I/3
	assert.InDeltaf(t, 0., r3.Norm(mean), 2.e-2, "%s: first moment", label)
	for m := 0; m < 3; m++ {
		for n := 0; n < 3; n++ {
			want := 0.
			if m == n {
				want = 1. / 3.
			}
			assert.InDeltaf(t, want, second[m][n], 1.e-2, "%s: second moment %d,%d", label, m, n)
		}
	}
}

func TestSphereGrid(t *testing.T) {
	s := NewSphereGrid(16)
	checkQuadrature(t, s, "grid16")
	// Ring construction lands near the conventional direction count
	assert.True(t, s.Len() > 250 && s.Len() < 400)

	// Coarse grids stay consistent too
	checkQuadrature(t, NewSphereGrid(8), "grid8")
}

func TestFibonacci(t *testing.T) {
	s := NewFibonacci(300)
	assert.Equal(t, 300, s.Len())
	checkQuadrature(t, s, "fib300")
}

func TestDefaultShared(t *testing.T) {
	a, b := Default(), Default()
	assert.True(t, a == b, "default set must be built once and shared")
	assert.True(t, a.Len() >= 300)
}
