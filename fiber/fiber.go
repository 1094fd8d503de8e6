// Package fiber implements the semi-affine fiber constitutive law: linear
// near the rest length, exponentially softening under compression (buckling)
// and exponentially stiffening beyond a critical tensile strain.
package fiber

import (
	"errors"
	"fmt"
	"math"
)

var ErrBadParameter = errors.New("fiber: invalid material parameter")

// Law evaluates a fiber energy density at a given strain (stretch minus one).
// It returns the energy w, the force dw/ds and the stiffness d2w/ds2 in one
// call because the element kernels always need all three.
type Law interface {
	Eval(strain float64) (w, dw, ddw float64)
}

// SemiAffine is the four-parameter fiber law. The stiffness is piecewise
//
//	K * exp(s/D0)            s < 0            (buckling, D0 > 0)
//	K                        0 <= s < LambdaS (linear)
//	K * exp((s-LambdaS)/DS)  s >= LambdaS     (stiffening, DS > 0)
//
// and force and energy follow by exact integration with w(0) = dw(0) = 0,
// which makes the law C2 across both regime boundaries. D0 <= 0 disables
// the buckling branch; LambdaS < 0 or DS <= 0 disables stiffening.
type SemiAffine struct {
	K       float64 // base stiffness
	D0      float64 // buckling decay strain
	LambdaS float64 // stiffening onset strain
	DS      float64 // stiffening decay strain

	buckling   bool
	stiffening bool
}

func NewSemiAffine(k, d0, lambdaS, ds float64) (m *SemiAffine, err error) {
	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		err = fmt.Errorf("%w: base stiffness must be positive, got %v", ErrBadParameter, k)
		return
	}
	if math.IsNaN(d0) || math.IsNaN(lambdaS) || math.IsNaN(ds) {
		err = fmt.Errorf("%w: NaN in (%v, %v, %v)", ErrBadParameter, d0, lambdaS, ds)
		return
	}
	m = &SemiAffine{
		K: k, D0: d0, LambdaS: lambdaS, DS: ds,
		buckling:   d0 > 0,
		stiffening: lambdaS >= 0 && ds > 0,
	}
	return
}

func (m *SemiAffine) Eval(s float64) (w, dw, ddw float64) {
	var (
		k = m.K
	)
	switch {
	case m.buckling && s < 0:
		e := math.Exp(s / m.D0)
		ddw = k * e
		dw = k * m.D0 * (e - 1.)
		w = k*m.D0*m.D0*(e-1.) - k*m.D0*s
	case m.stiffening && s >= m.LambdaS:
		var (
			ls = m.LambdaS
			ds = m.DS
			e  = math.Exp((s - ls) / ds)
		)
		ddw = k * e
		dw = k*ls + k*ds*(e-1.)
		w = 0.5*k*ls*ls + k*ls*(s-ls) + k*ds*ds*(e-1.) - k*ds*(s-ls)
	default:
		ddw = k
		dw = k * s
		w = 0.5 * k * s * s
	}
	return
}

// Linear is the degenerate law with constant stiffness, handy for comparing
// against small-strain elasticity.
type Linear struct {
	K float64
}

func (m Linear) Eval(s float64) (w, dw, ddw float64) {
	return 0.5 * m.K * s * s, m.K * s, m.K
}
