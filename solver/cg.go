package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Operator is a symmetric linear operator on the solver's DOF vectors.
type Operator interface {
	Dim() int
	MulVec(dst, x []float64)
}

// CGOptions tunes the conjugate gradient inner solver. Zero values select
// the defaults: Tol 1e-5 (relative, on the squared residual norm against the
// squared right-hand side norm) and MaxIter equal to the operator dimension.
type CGOptions struct {
	Tol     float64
	MaxIter int
}

// CGResult reports how a linear solve went. Converged is false when the
// iteration cap was reached first; the solution is still the best iterate
// seen, never worse than the initial guess. Non-convergence is a status, not
// an error: far from equilibrium the tangent stiffness can be indefinite and
// a partial solve is still a useful Newton direction.
type CGResult struct {
	Converged  bool
	Iterations int
	Residual   float64
}

// ConjGrad solves A*x = b restricted to the free degrees of freedom, in
// place in x. Fixed entries of x are held at their incoming values and their
// contribution is eliminated into the right-hand side through the initial
// residual. free may be nil, meaning all DOFs are free.
func ConjGrad(A Operator, b, x []float64, free []bool, opt CGOptions) (res CGResult) {
	var (
		n       = A.Dim()
		tol     = opt.Tol
		maxIter = opt.MaxIter
	)
	if len(b) != n || len(x) != n || (free != nil && len(free) != n) {
		panic(fmt.Sprintf("dimension mismatch: operator %d, b %d, x %d", n, len(b), len(x)))
	}
	if tol <= 0 {
		tol = 1e-5
	}
	if maxIter <= 0 {
		maxIter = n
	}
	var (
		r  = make([]float64, n)
		p  = make([]float64, n)
		ap = make([]float64, n)
	)
	A.MulVec(r, x)
	floats.SubTo(r, b, r)
	project(r, free)

	var bNorm2 float64
	for i, v := range b {
		if free == nil || free[i] {
			bNorm2 += v * v
		}
	}

	var (
		rs      = floats.Dot(r, r)
		rsOld   = rs
		best    = append([]float64(nil), x...)
		bestRes = rs
	)
	copy(p, r)
	if rs <= tol*bNorm2 {
		res = CGResult{Converged: true, Residual: math.Sqrt(rs)}
		return
	}
	for it := 1; it <= maxIter; it++ {
		A.MulVec(ap, p)
		project(ap, free)
		pap := floats.Dot(p, ap)
		if pap == 0 {
			// search direction annihilated; nothing further to extract
			break
		}
		alpha := rsOld / pap
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, ap)
		rs = floats.Dot(r, r)
		res.Iterations = it
		if rs < bestRes {
			bestRes = rs
			copy(best, x)
		}
		if rs <= tol*bNorm2 {
			res.Converged = true
			break
		}
		floats.AddScaledTo(p, r, rs/rsOld, p)
		rsOld = rs
	}
	if rs > bestRes {
		copy(x, best)
		rs = bestRes
	}
	res.Residual = math.Sqrt(rs)
	return
}

func project(v []float64, free []bool) {
	if free == nil {
		return
	}
	for i, f := range free {
		if !f {
			v[i] = 0
		}
	}
}
