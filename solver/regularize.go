package solver

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/fibernetics/fibernet/mesh"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Weighting selects how the per-node force penalty adapts between rounds.
// All methods scale against the median force norm; nodes carrying forces far
// above it are taken as genuine and have their penalty reduced, so the
// suppression concentrates on small "noise" forces.
type Weighting int

const (
	WeightHuber Weighting = iota
	WeightBisquare
	WeightCauchy
	WeightUniform
)

func (w Weighting) String() string {
	switch w {
	case WeightHuber:
		return "huber"
	case WeightBisquare:
		return "bisquare"
	case WeightCauchy:
		return "cauchy"
	case WeightUniform:
		return "uniform"
	}
	return "unknown"
}

// NewWeighting parses a weighting name as found in parameter files.
func NewWeighting(name string) (w Weighting, err error) {
	switch name {
	case "huber", "":
		w = WeightHuber
	case "bisquare":
		w = WeightBisquare
	case "cauchy":
		w = WeightCauchy
	case "uniform", "normal":
		w = WeightUniform
	default:
		err = fmt.Errorf("unknown weighting %q (want huber, bisquare, cauchy or uniform)", name)
	}
	return
}

// tuning is the M-estimator scale constant: the force-norm threshold is
// tuning * median.
func (w Weighting) tuning() float64 {
	switch w {
	case WeightBisquare:
		return 4.685
	case WeightCauchy:
		return 2.385
	}
	return 1.345 // huber
}

// weightFloor keeps the penalty diagonal strictly positive so the
// regularized operator stays definite on the penalty term.
const weightFloor = 1e-10

// robustWeights recomputes the per-node penalty weights in place from the
// per-node force norms and returns the median norm. A zero median (for
// example the first round of a solve starting from a zero force estimate)
// puts every node in the below-threshold branch: all weights reset to one.
func robustWeights(w, fnorm, scratch []float64, method Weighting) (median float64) {
	copy(scratch, fnorm)
	sort.Float64s(scratch)
	median = stat.Quantile(0.5, stat.Empirical, scratch, nil)
	for i := range w {
		w[i] = 1
	}
	if median == 0 || method == WeightUniform {
		return
	}
	k := method.tuning() * median
	switch method {
	case WeightHuber:
		for i, fn := range fnorm {
			if fn > k {
				w[i] = k / fn
			}
		}
	case WeightBisquare:
		for i, fn := range fnorm {
			if fn > k {
				w[i] = weightFloor
				continue
			}
			r := fn / k
			w[i] = (1 - r*r) * (1 - r*r)
		}
	case WeightCauchy:
		for i, fn := range fnorm {
			r := fn / k
			w[i] = 1 / (1 + r*r)
		}
	}
	for i := range w {
		if w[i] < weightFloor {
			w[i] = weightFloor
		}
	}
	return
}

// regOperator applies the Gauss-Newton operator I + K*A*K of the robust
// objective without forming the product, where A is the diagonal of per-DOF
// penalty factors alpha*w. K*A*K is symmetric positive semidefinite for any
// symmetric K, so the composite is positive definite and safe for CG even
// when K itself is indefinite far from equilibrium.
type regOperator struct {
	K      *Stiffness
	diag   []float64 // alpha * weight, expanded per axis
	t1, t2 []float64
}

func newRegOperator(K *Stiffness) *regOperator {
	n := K.Dim()
	return &regOperator{
		K:    K,
		diag: make([]float64, n),
		t1:   make([]float64, n),
		t2:   make([]float64, n),
	}
}

func (o *regOperator) Dim() int { return o.K.Dim() }

func (o *regOperator) MulVec(dst, x []float64) {
	o.K.MulVec(o.t1, x)
	for i, d := range o.diag {
		o.t1[i] *= d
	}
	o.K.MulVec(o.t2, o.t1)
	floats.AddTo(dst, x, o.t2)
}

// setWeights refreshes the penalty diagonal from the per-node weights.
func (o *regOperator) setWeights(alpha float64, w []float64) {
	for i, wi := range w {
		d := alpha * wi
		o.diag[3*i], o.diag[3*i+1], o.diag[3*i+2] = d, d, d
	}
}

// RegularizeOptions tunes the inverse solve. Zero values select the
// defaults: Stepper 0.33, MaxIterations 100, RelTol 0.01, Alpha 3e9 (the
// regularization strength is unit dependent; the default suits SI-unit
// microscopy data) and a CG tolerance of 1e-18 on the squared residual.
type RegularizeOptions struct {
	Stepper       float64
	MaxIterations int
	RelTol        float64
	Alpha         float64
	Weighting     Weighting
	CG            CGOptions
	Logger        *slog.Logger
}

func (o *RegularizeOptions) defaults() {
	if o.Stepper <= 0 {
		o.Stepper = 0.33
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 100
	}
	if o.RelTol <= 0 {
		o.RelTol = 0.01
	}
	if o.Alpha <= 0 {
		o.Alpha = 3e9
	}
	if o.CG.Tol <= 0 {
		o.CG.Tol = 1e-18
	}
}

// Regularize recovers the displacement and force field that best explains
// the mesh's measured (target) displacements, minimizing
//
//	L(U) = |U - Umeas|^2 + sum_i alpha*w_i*|f_i(U)|^2
//
// by iteratively reweighted least squares. Each round assembles F and K at
// the current U, takes a damped Gauss-Newton step from the CG solve of
// (I + K*A*K)*du = (Umeas - U) - K*A*F restricted to the free DOFs, and then
// reweights the penalty from the median of the fresh per-node force norms.
// The stored force F = dE/dU carries the opposite sign of the reaction force
// the network applies, hence the minus on the K*A*F term.
//
// Convergence uses the same sliding-window test as Relax, over L instead of
// the raw energy. The returned error is nil unless assembly fails or no
// target field was set; running out of rounds is reported via Report.Status.
func Regularize(a *Assembler, st *State, opt RegularizeOptions) (rep Report, err error) {
	opt.defaults()
	var (
		msh = a.Mesh()
		n   = len(st.U)
		nN  = msh.NumNodes()
	)
	if msh.Target == nil {
		err = fmt.Errorf("%w: regularization needs a target displacement field", mesh.ErrNotReady)
		return
	}
	var (
		free    = msh.FreeAxes()
		target  = make([]float64, n)
		w       = make([]float64, nN)
		fnorm   = make([]float64, nN)
		scratch = make([]float64, nN)
		af      = make([]float64, n)
		kaf     = make([]float64, n)
		b       = make([]float64, n)
		du      = make([]float64, n)
		op      = newRegOperator(st.K)
		window  energyWindow
		median  float64
	)
	for i, u := range msh.Target {
		target[3*i], target[3*i+1], target[3*i+2] = u.X, u.Y, u.Z
	}
	for i := range w {
		w[i] = 1
	}
	if err = a.Assemble(st); err != nil {
		return
	}
	for it := 0; it < opt.MaxIterations; it++ {
		op.setWeights(opt.Alpha, w)
		for i := range af {
			af[i] = op.diag[i] * st.F[i]
		}
		st.K.MulVec(kaf, af)
		for i := range b {
			b[i] = 0
			du[i] = 0
			if free[i] {
				b[i] = (target[i] - st.U[i]) - kaf[i]
			}
		}
		var (
			residual = floats.Norm(b, 2)
			cg       = ConjGrad(op, b, du, free, opt.CG)
		)
		floats.AddScaled(st.U, opt.Stepper, du)
		if err = a.Assemble(st); err != nil {
			return
		}

		// objective with the weights this round's step minimized
		var misfit, penalty float64
		for i, t := range target {
			d := st.U[i] - t
			misfit += d * d
		}
		for i := 0; i < nN; i++ {
			fn := floats.Norm(st.F[3*i:3*i+3], 2)
			fnorm[i] = fn
			penalty += opt.Alpha * w[i] * fn * fn
		}
		L := misfit + penalty
		median = robustWeights(w, fnorm, scratch, opt.Weighting)

		stats := IterationStats{
			Iteration:    it,
			Objective:    L,
			StepNorm:     opt.Stepper * floats.Norm(du, 2),
			Residual:     residual,
			CGIterations: cg.Iterations,
			CGConverged:  cg.Converged,
		}
		rep.History = append(rep.History, stats)
		if opt.Logger != nil {
			opt.Logger.Debug("regularization round",
				"round", it, "objective", L, "misfit", misfit, "penalty", penalty,
				"median_force", median, "step", stats.StepNorm,
				"cg_iters", cg.Iterations, "cg_converged", cg.Converged)
		}

		window.push(L)
		rep.Iterations = it + 1
		if window.stable(opt.RelTol) {
			rep.Status = StatusConverged
			break
		}
		rep.Status = StatusMaxIterations
	}
	// residual of the stationarity condition at the final field
	op.setWeights(opt.Alpha, w)
	for i := range af {
		af[i] = op.diag[i] * st.F[i]
	}
	st.K.MulVec(kaf, af)
	var misfit, penalty float64
	for i, t := range target {
		d := st.U[i] - t
		misfit += d * d
		b[i] = 0
		if free[i] {
			b[i] = (t - st.U[i]) - kaf[i]
		}
	}
	for i := 0; i < nN; i++ {
		fn := floats.Norm(st.F[3*i:3*i+3], 2)
		penalty += opt.Alpha * w[i] * fn * fn
	}
	rep.Objective = misfit + penalty
	rep.Residual = floats.Norm(b, 2)
	if opt.Logger != nil {
		opt.Logger.Info("regularization finished",
			"status", rep.Status.String(), "rounds", rep.Iterations,
			"objective", rep.Objective, "misfit", misfit, "residual", rep.Residual)
	}
	return
}
