// Package orientation builds unit-direction quadrature sets used to
// approximate integrals over all fiber orientations within an element.
package orientation

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Set is an immutable table of unit directions and matching quadrature
// weights. Weights sum to one, so the weighted sum of a constant sampled
// over the set reproduces that constant (mean-over-sphere convention).
type Set struct {
	Dirs    []r3.Vec
	Weights []float64
}

func (s *Set) Len() int { return len(s.Dirs) }

// NewSphereGrid constructs a latitude-ring quadrature with nPolar rings.
// Ring i sits at polar angle (i+1/2)*pi/nPolar and carries a point count
// proportional to sin(theta), so the points are near-uniform in solid angle.
// Alternate rings are phase shifted by half an azimuthal step to avoid
// meridian alignment. Total direction count is approximately 4*nPolar^2/pi.
func NewSphereGrid(nPolar int) (s *Set) {
	if nPolar < 1 {
		panic(fmt.Sprintf("sphere grid needs at least one polar ring, got %d", nPolar))
	}
	s = &Set{}
	var wTotal float64
	for i := 0; i < nPolar; i++ {
		theta := (float64(i) + 0.5) * math.Pi / float64(nPolar)
		sinT, cosT := math.Sin(theta), math.Cos(theta)
		nAzi := int(math.Round(2 * float64(nPolar) * sinT))
		if nAzi < 1 {
			nAzi = 1
		}
		phase := 0.
		if i%2 == 1 {
			phase = 0.5
		}
		w := sinT / float64(nAzi)
		for j := 0; j < nAzi; j++ {
			phi := 2 * math.Pi * (float64(j) + phase) / float64(nAzi)
			s.Dirs = append(s.Dirs, r3.Vec{
				X: sinT * math.Cos(phi),
				Y: sinT * math.Sin(phi),
				Z: cosT,
			})
			s.Weights = append(s.Weights, w)
			wTotal += w
		}
	}
	for i := range s.Weights {
		s.Weights[i] /= wTotal
	}
	return
}

// NewFibonacci constructs an n-point golden-spiral lattice with uniform
// weights. Useful when an exact direction count is wanted.
func NewFibonacci(n int) (s *Set) {
	if n < 1 {
		panic(fmt.Sprintf("fibonacci lattice needs at least one direction, got %d", n))
	}
	var (
		goldenAngle = math.Pi * (3. - math.Sqrt(5.))
		w           = 1. / float64(n)
	)
	s = &Set{
		Dirs:    make([]r3.Vec, n),
		Weights: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		z := 1. - (2.*float64(i)+1.)/float64(n)
		r := math.Sqrt(1. - z*z)
		phi := goldenAngle * float64(i)
		s.Dirs[i] = r3.Vec{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
		s.Weights[i] = w
	}
	return
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
)

// Default returns the shared read-only quadrature used when a solve does not
// supply its own. It is built once per process; callers must not mutate it.
// The 16-ring grid yields 326 directions, close to the conventional 300.
func Default() *Set {
	defaultOnce.Do(func() {
		defaultSet = NewSphereGrid(16)
	})
	return defaultSet
}
