package solver

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/fibernetics/fibernet/fiber"
	"github.com/fibernetics/fibernet/mesh"
	"github.com/fibernetics/fibernet/orientation"
	"github.com/fibernetics/fibernet/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrDegenerateGeometry marks an element crushed to zero extent along a
	// quadrature orientation, which leaves the fiber stretch undefined.
	ErrDegenerateGeometry = errors.New("solver: degenerate element geometry")
	// ErrNumericOverflow marks a non-finite value produced by otherwise valid
	// geometry, typically a displacement far outside the material's range.
	ErrNumericOverflow = errors.New("solver: non-finite value in assembly")
)

// minStretch is the smallest fiber stretch treated as valid geometry. Below
// it the 1/s terms in the force and stiffness weights are meaningless.
const minStretch = 1e-9

// tetContrib is one element's contribution, computed independently per
// element and merged in element order. blocks holds the 10 unordered
// corner-pair stiffness blocks in the order of pairOrder.
type tetContrib struct {
	energy float64
	f      [4]r3.Vec
	blocks [10][9]float64
}

// pairOrder enumerates the unordered corner pairs (m <= r) of a tetrahedron.
var pairOrder = [10][2]int{
	{0, 0}, {0, 1}, {0, 2}, {0, 3},
	{1, 1}, {1, 2}, {1, 3},
	{2, 2}, {2, 3},
	{3, 3},
}

// AssemblerOptions tunes assembly; the zero value means serial execution.
type AssemblerOptions struct {
	// Workers splits the per-element pass across goroutines. Results are
	// bit-identical for any worker count because contributions are merged
	// in element order by a single goroutine. Values below 1 mean serial.
	Workers int
}

// Assembler evaluates energy, nodal force and tangent stiffness for a fixed
// mesh, material law and orientation set. It owns the per-element arena and
// the precomputed slot table mapping corner pairs to global blocks, so
// repeated assemblies during a solve allocate nothing.
type Assembler struct {
	msh     *mesh.Mesh
	law     fiber.Law
	set     *orientation.Set
	workers int

	pat     *stiffPattern
	slots   [][10]int // per element: global block ordinal per corner pair
	counted []bool    // element has at least one variable corner
	arena   []tetContrib
}

// NewAssembler validates the inputs and precomputes the sparsity pattern and
// the element-to-block slot table. The orientation set may be nil, in which
// case the shared default set is used.
func NewAssembler(msh *mesh.Mesh, law fiber.Law, set *orientation.Set, opt AssemblerOptions) (a *Assembler, err error) {
	if msh == nil || msh.NumNodes() == 0 || msh.NumTets() == 0 {
		err = fmt.Errorf("%w: assembler needs a mesh with nodes and tetrahedra", mesh.ErrNotReady)
		return
	}
	if law == nil {
		err = fmt.Errorf("%w: nil material law", fiber.ErrBadParameter)
		return
	}
	if set == nil {
		set = orientation.Default()
	}
	if set.Len() == 0 {
		err = fmt.Errorf("%w: empty orientation set", fiber.ErrBadParameter)
		return
	}
	a = &Assembler{
		msh:     msh,
		law:     law,
		set:     set,
		workers: opt.Workers,
		pat:     newStiffPattern(msh.NumNodes(), msh.Pairs()),
		slots:   make([][10]int, msh.NumTets()),
		counted: make([]bool, msh.NumTets()),
		arena:   make([]tetContrib, msh.NumTets()),
	}
	if a.workers < 1 {
		a.workers = 1
	}
	for t, tet := range msh.Tets {
		for p, mr := range pairOrder {
			i, j := tet[mr[0]], tet[mr[1]]
			if i > j {
				i, j = j, i
			}
			a.slots[t][p] = a.pat.slot[[2]int{i, j}]
		}
		for _, n := range tet {
			if msh.Variable(n) {
				a.counted[t] = true
				break
			}
		}
	}
	return
}

// NewState allocates a state sized for this assembler's mesh, with the
// initial displacement field copied in and fixed axes pinned to their
// boundary values.
func (a *Assembler) NewState() (st *State) {
	var (
		n = a.msh.NumNodes()
	)
	st = &State{
		U:         make([]float64, 3*n),
		F:         make([]float64, 3*n),
		K:         &Stiffness{pat: a.pat, data: make([]float64, 9*len(a.pat.pairs))},
		TetEnergy: make([]float64, a.msh.NumTets()),
	}
	for i, u := range a.msh.Disp {
		st.SetNodeDisplacement(i, u)
	}
	for i, bc := range a.msh.BC {
		for ax := 0; ax < 3; ax++ {
			if bc[ax].IsFixed() {
				st.U[3*i+ax] = bc[ax].Displacement()
			}
		}
	}
	return
}

// Assemble recomputes Energy, F, K and TetEnergy from st.U. The element pass
// runs on the configured worker count; the merge into the global arrays is a
// single pass in ascending element order, so the result is independent of
// the worker count down to the last bit.
func (a *Assembler) Assemble(st *State) (err error) {
	var (
		nT = a.msh.NumTets()
	)
	if a.workers == 1 || nT < 2*a.workers {
		for t := 0; t < nT; t++ {
			if err = a.computeTet(t, st.U); err != nil {
				return
			}
		}
	} else {
		var (
			pm   = utils.NewPartitionMap(a.workers, nT)
			errs = make([]error, a.workers)
			wg   sync.WaitGroup
		)
		for n := 0; n < a.workers; n++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				tMin, tMax := pm.GetBucketRange(n)
				for t := tMin; t < tMax; t++ {
					if e := a.computeTet(t, st.U); e != nil {
						errs[n] = e
						return
					}
				}
			}(n)
		}
		wg.Wait()
		for _, e := range errs {
			if e != nil {
				return e
			}
		}
	}
	a.reduce(st)
	return
}

// computeTet fills the arena entry for element t from the displacement
// field. This is the hot path: per orientation it evaluates the stretch, the
// material law, and rank-one force and stiffness updates.
func (a *Assembler) computeTet(t int, u []float64) (err error) {
	var (
		tet = a.msh.Tets[t]
		phi = a.msh.Phi[t]
		vol = a.msh.Volume[t]
		c   = &a.arena[t]
		F   = utils.Ident3()
	)
	*c = tetContrib{}
	for m := 0; m < 4; m++ {
		n := tet[m]
		F.AddOuter(r3.Vec{X: u[3*n], Y: u[3*n+1], Z: u[3*n+2]}, phi[m])
	}
	for b, d := range a.set.Dirs {
		var (
			sbar = F.MulVec(d)
			s    = r3.Norm(sbar)
		)
		if s < minStretch {
			err = fmt.Errorf("%w: element %d crushed along orientation %d (stretch %v)",
				ErrDegenerateGeometry, t, b, s)
			return
		}
		var (
			wv         = a.set.Weights[b] * vol
			w, dw, ddw = a.law.Eval(s - 1.)
			gradCoef   = wv * dw / s
			hessCoef   = wv * (s*ddw - dw) / (s * s * s)
			sstar      [4]float64
		)
		// Per-orientation stiffness kernel M = hessCoef*(sbar (x) sbar) +
		// gradCoef*I, shared by all ten corner pairs of this element.
		mxx := hessCoef*sbar.X*sbar.X + gradCoef
		mxy := hessCoef * sbar.X * sbar.Y
		mxz := hessCoef * sbar.X * sbar.Z
		myy := hessCoef*sbar.Y*sbar.Y + gradCoef
		myz := hessCoef * sbar.Y * sbar.Z
		mzz := hessCoef*sbar.Z*sbar.Z + gradCoef

		c.energy += wv * w
		for m := 0; m < 4; m++ {
			sstar[m] = r3.Dot(phi[m], d)
			c.f[m] = r3.Add(c.f[m], r3.Scale(gradCoef*sstar[m], sbar))
		}
		for p, mr := range pairOrder {
			var (
				coef = sstar[mr[0]] * sstar[mr[1]]
				blk  = &c.blocks[p]
			)
			blk[0] += coef * mxx
			blk[1] += coef * mxy
			blk[2] += coef * mxz
			blk[3] += coef * mxy
			blk[4] += coef * myy
			blk[5] += coef * myz
			blk[6] += coef * mxz
			blk[7] += coef * myz
			blk[8] += coef * mzz
		}
	}
	if !finiteContrib(c) {
		err = fmt.Errorf("%w: element %d", ErrNumericOverflow, t)
	}
	return
}

// reduce folds the arena into the global state in ascending element order.
func (a *Assembler) reduce(st *State) {
	st.Energy = 0
	for i := range st.F {
		st.F[i] = 0
	}
	st.K.Zero()
	for t := range a.arena {
		var (
			c   = &a.arena[t]
			tet = a.msh.Tets[t]
		)
		st.TetEnergy[t] = c.energy
		if a.counted[t] {
			st.Energy += c.energy
		}
		for m := 0; m < 4; m++ {
			n := tet[m]
			st.F[3*n] += c.f[m].X
			st.F[3*n+1] += c.f[m].Y
			st.F[3*n+2] += c.f[m].Z
		}
		for p := range pairOrder {
			var (
				dst = st.K.block(a.slots[t][p])
				src = &c.blocks[p]
			)
			for i := 0; i < 9; i++ {
				dst[i] += src[i]
			}
		}
	}
}

func finiteContrib(c *tetContrib) bool {
	if math.IsNaN(c.energy) || math.IsInf(c.energy, 0) {
		return false
	}
	for m := 0; m < 4; m++ {
		v := c.f[m]
		if math.IsNaN(v.X+v.Y+v.Z) || math.IsInf(v.X+v.Y+v.Z, 0) {
			return false
		}
	}
	for p := range c.blocks {
		for i := 0; i < 9; i++ {
			if v := c.blocks[p][i]; math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Mesh returns the mesh this assembler was built for.
func (a *Assembler) Mesh() *mesh.Mesh { return a.msh }

// Orientations returns the quadrature set in use.
func (a *Assembler) Orientations() *orientation.Set { return a.set }
