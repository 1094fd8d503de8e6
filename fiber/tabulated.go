package fiber

import (
	"fmt"
	"math"
)

// Tabulated is a sampled material law with linear interpolation between
// samples. Sampling amortizes expensive law evaluations across the millions
// of lookups one assembly performs; out-of-range strains clamp to the table
// edges. The lower edge is always strain -1 (a fiber cannot be shorter than
// zero length).
type Tabulated struct {
	step float64
	max  float64
	w    []float64
	dw   []float64
	ddw  []float64
}

// Tabulate samples l on [-1, maxStrain] at the given resolution.
func Tabulate(l Law, maxStrain, step float64) (t *Tabulated, err error) {
	if step <= 0 || maxStrain <= -1 {
		err = fmt.Errorf("%w: table range [-1, %v] step %v", ErrBadParameter, maxStrain, step)
		return
	}
	n := int(math.Ceil((maxStrain+1.)/step)) + 1
	t = &Tabulated{
		step: step,
		max:  -1. + float64(n-1)*step,
		w:    make([]float64, n),
		dw:   make([]float64, n),
		ddw:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		t.w[i], t.dw[i], t.ddw[i] = l.Eval(-1. + float64(i)*step)
	}
	return
}

func (t *Tabulated) Eval(s float64) (w, dw, ddw float64) {
	var (
		x = (s + 1.) / t.step
		n = len(t.w)
	)
	switch {
	case s <= -1.:
		return t.w[0], t.dw[0], t.ddw[0]
	case s >= t.max:
		return t.w[n-1], t.dw[n-1], t.ddw[n-1]
	}
	i := int(x)
	if i > n-2 { // x can round onto the last sample
		i = n - 2
	}
	f := x - float64(i)
	w = t.w[i] + f*(t.w[i+1]-t.w[i])
	dw = t.dw[i] + f*(t.dw[i+1]-t.dw[i])
	ddw = t.ddw[i] + f*(t.ddw[i+1]-t.ddw[i])
	return
}
