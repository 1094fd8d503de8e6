package fiber

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The collagen-gel parameter set used throughout the examples.
func testLaw(t *testing.T) *SemiAffine {
	t.Helper()
	m, err := NewSemiAffine(1645., 0.0008, 0.0075, 0.033)
	assert.Nil(t, err)
	return m
}

func TestSemiAffineRestState(t *testing.T) {
	m := testLaw(t)
	// At zero strain: zero energy, zero force, exactly the base stiffness
	w, dw, ddw := m.Eval(0)
	assert.Equal(t, 0., w)
	assert.Equal(t, 0., dw)
	assert.Equal(t, 1645., ddw)
}

func TestSemiAffineContinuity(t *testing.T) {
	var (
		m   = testLaw(t)
		eps = 1.e-9
	)
	// Values straddling a boundary differ by O(eps*slope); the deltas
	// below leave room for that while catching any genuine jump.
	for _, s0 := range []float64{0., m.LambdaS} {
		wl, dwl, ddwl := m.Eval(s0 - eps)
		wr, dwr, ddwr := m.Eval(s0 + eps)
		assert.InDeltaf(t, wl, wr, 1.e-6*(1.+math.Abs(wl)), "w at %v", s0)
		assert.InDeltaf(t, dwl, dwr, 1.e-5*(1.+math.Abs(dwl)), "dw at %v", s0)
		assert.InDeltaf(t, ddwl, ddwr, 1.e-4*(1.+math.Abs(ddwl)), "ddw at %v", s0)
	}
}

func TestSemiAffineDerivatives(t *testing.T) {
	var (
		m = testLaw(t)
		h = 1.e-6
	)
	// Central differences of w reproduce dw, and of dw reproduce ddw, in
	// every regime including across the regime boundaries.
	for _, s := range []float64{-0.5, -0.01, -0.0005, 0., 0.003, 0.0075, 0.02, 0.3, 1.5} {
		wp, dwp, _ := m.Eval(s + h)
		wm, dwm, _ := m.Eval(s - h)
		_, dw, ddw := m.Eval(s)
		fd1 := (wp - wm) / (2 * h)
		fd2 := (dwp - dwm) / (2 * h)
		assert.InDeltaf(t, dw, fd1, 1.e-4*(1.+math.Abs(dw)), "dw at s=%v", s)
		assert.InDeltaf(t, ddw, fd2, 1.e-3*(1.+math.Abs(ddw)), "ddw at s=%v", s)
	}
}

func TestSemiAffineDisabledBranches(t *testing.T) {
	// D0 <= 0 turns compression linear
	{
		m, err := NewSemiAffine(100., 0., 0.0075, 0.033)
		assert.Nil(t, err)
		w, dw, ddw := m.Eval(-0.2)
		assert.InDeltaf(t, 0.5*100.*0.04, w, 1.e-12, "w")
		assert.InDeltaf(t, -20., dw, 1.e-12, "dw")
		assert.InDeltaf(t, 100., ddw, 1.e-12, "ddw")
	}
	// DS <= 0 turns tension linear everywhere
	{
		m, err := NewSemiAffine(100., 0.0008, 0.0075, 0.)
		assert.Nil(t, err)
		_, dw, ddw := m.Eval(2.)
		assert.InDeltaf(t, 200., dw, 1.e-12, "dw")
		assert.InDeltaf(t, 100., ddw, 1.e-12, "ddw")
	}
}

func TestSemiAffineBadParameters(t *testing.T) {
	for _, k := range []float64{0., -5., math.NaN()} {
		_, err := NewSemiAffine(k, 0.0008, 0.0075, 0.033)
		assert.NotNil(t, err)
		assert.True(t, errors.Is(err, ErrBadParameter))
	}
	_, err := NewSemiAffine(100., math.NaN(), 0.0075, 0.033)
	assert.NotNil(t, err)
}

func TestTabulated(t *testing.T) {
	var (
		m      = testLaw(t)
		tab, e = Tabulate(m, 4.0, 1.e-4)
	)
	assert.Nil(t, e)
	// Interpolated values track the closed form at moderate strains
	for _, s := range []float64{-0.9, -0.05, -0.0003, 0.0021, 0.0075, 0.05, 0.42} {
		w, dw, ddw := m.Eval(s)
		tw, tdw, tddw := tab.Eval(s)
		assert.InDeltaf(t, w, tw, 1.e-2*(1.+math.Abs(w)), "w at s=%v", s)
		assert.InDeltaf(t, dw, tdw, 1.e-2*(1.+math.Abs(dw)), "dw at s=%v", s)
		assert.InDeltaf(t, ddw, tddw, 1.e-2*(1.+math.Abs(ddw)), "ddw at s=%v", s)
	}
	// Out-of-range strains clamp to the table edges
	{
		wl, _, _ := tab.Eval(-2.)
		wl2, _, _ := tab.Eval(-1.)
		assert.Equal(t, wl2, wl)
		wr, _, _ := tab.Eval(10.)
		wr2, _, _ := tab.Eval(4.0)
		assert.InDeltaf(t, wr2, wr, 1.e-6*math.Abs(wr2), "upper clamp")
	}
	// Bad table parameters are rejected
	{
		_, err := Tabulate(m, 4.0, 0.)
		assert.NotNil(t, err)
		_, err = Tabulate(m, -1.5, 1.e-4)
		assert.NotNil(t, err)
	}
}

func TestLinearLaw(t *testing.T) {
	m := Linear{K: 250.}
	w, dw, ddw := m.Eval(0.1)
	assert.InDeltaf(t, 1.25, w, 1.e-12, "w")
	assert.InDeltaf(t, 25., dw, 1.e-12, "dw")
	assert.InDeltaf(t, 250., ddw, 1.e-12, "ddw")
}
