package solver

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Status is the terminal state of an outer solve loop. Hitting the iteration
// cap is reported, not raised: the caller gets the best-available state and
// decides whether to trust it.
type Status int

const (
	StatusConverged Status = iota
	StatusMaxIterations
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusMaxIterations:
		return "max iterations reached"
	}
	return "unknown"
}

// IterationStats is one outer iteration's diagnostics.
type IterationStats struct {
	Iteration    int
	Objective    float64 // E for relaxation, L for regularization
	StepNorm     float64 // norm of the applied displacement update
	Residual     float64 // net unbalanced force on free DOFs
	CGIterations int
	CGConverged  bool
}

// Report summarizes an outer solve.
type Report struct {
	Status     Status
	Iterations int
	Objective  float64
	Residual   float64
	History    []IterationStats
}

// energyWindow is the sliding window of recent objective values behind the
// relative-stability convergence test shared by both outer solvers.
type energyWindow struct {
	vals [6]float64
	n    int
}

func (w *energyWindow) push(e float64) {
	if w.n < len(w.vals) {
		w.vals[w.n] = e
		w.n++
		return
	}
	copy(w.vals[:], w.vals[1:])
	w.vals[len(w.vals)-1] = e
}

// stable reports whether the window is full and its population standard
// deviation is within relTol of its mean magnitude. An exactly flat window
// (including all zeros) counts as stable.
func (w *energyWindow) stable(relTol float64) bool {
	if w.n < len(w.vals) {
		return false
	}
	var (
		mean = stat.Mean(w.vals[:], nil)
		std  = stat.PopStdDev(w.vals[:], nil)
	)
	if mean < 0 {
		mean = -mean
	}
	return std <= relTol*mean
}

// RelaxOptions tunes the forward damped-Newton solve. Zero values select the
// defaults worked out for collagen gels: Stepper 0.066, MaxIterations 300,
// RelTol 0.01.
type RelaxOptions struct {
	Stepper       float64
	MaxIterations int
	RelTol        float64
	CG            CGOptions
	Logger        *slog.Logger
}

func (o *RelaxOptions) defaults() {
	if o.Stepper <= 0 {
		o.Stepper = 0.066
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 300
	}
	if o.RelTol <= 0 {
		o.RelTol = 0.01
	}
}

// Relax drives the displacement field toward mechanical equilibrium under
// the mesh's boundary conditions: fixed axes keep their pinned values, free
// axes balance the imposed external force against the stored force dE/dU.
// Each iteration assembles (E, F, K) at the current U, solves
// K*du = fext - F on the free DOFs by CG and applies a damped update
// U += stepper*du. Full Newton steps are unstable near the buckling and
// stiffening regimes, hence the damping.
//
// The returned error is nil unless assembly fails; running out of iterations
// is reported through Report.Status.
func Relax(a *Assembler, st *State, opt RelaxOptions) (rep Report, err error) {
	opt.defaults()
	var (
		msh    = a.Mesh()
		free   = msh.FreeAxes()
		fext   = msh.ExternalForce()
		n      = len(st.U)
		b      = make([]float64, n)
		du     = make([]float64, n)
		window energyWindow
	)
	for it := 0; it < opt.MaxIterations; it++ {
		if err = a.Assemble(st); err != nil {
			return
		}
		for i := range b {
			b[i] = 0
			du[i] = 0
			if free[i] {
				b[i] = fext[i] - st.F[i]
			}
		}
		var (
			residual = floats.Norm(b, 2)
			cg       = ConjGrad(st.K, b, du, free, opt.CG)
		)
		floats.AddScaled(st.U, opt.Stepper, du)

		stats := IterationStats{
			Iteration:    it,
			Objective:    st.Energy,
			StepNorm:     opt.Stepper * floats.Norm(du, 2),
			Residual:     residual,
			CGIterations: cg.Iterations,
			CGConverged:  cg.Converged,
		}
		rep.History = append(rep.History, stats)
		if opt.Logger != nil {
			opt.Logger.Debug("relax iteration",
				"iter", it, "energy", st.Energy, "step", stats.StepNorm,
				"residual", residual, "cg_iters", cg.Iterations, "cg_converged", cg.Converged)
		}

		window.push(st.Energy)
		rep.Iterations = it + 1
		if window.stable(opt.RelTol) {
			rep.Status = StatusConverged
			break
		}
		rep.Status = StatusMaxIterations
	}
	// refresh E and F at the final displacement field
	if err = a.Assemble(st); err != nil {
		return
	}
	for i := range b {
		b[i] = 0
		if free[i] {
			b[i] = fext[i] - st.F[i]
		}
	}
	rep.Objective = st.Energy
	rep.Residual = floats.Norm(b, 2)
	if opt.Logger != nil {
		opt.Logger.Info("relaxation finished",
			"status", rep.Status.String(), "iterations", rep.Iterations,
			"energy", rep.Objective, "residual", rep.Residual)
	}
	return
}
