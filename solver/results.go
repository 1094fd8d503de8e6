package solver

import (
	"github.com/fibernetics/fibernet/mesh"
	"github.com/fibernetics/fibernet/utils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// TetSummary is one element's contribution to the result tables: the
// rest-position center, the stored energy and the reference volume.
type TetSummary struct {
	Center r3.Vec
	Energy float64
	Volume float64
}

// Moments aggregates the force field around the mesh centroid. Defined is
// false when the node subset inside the cutoff radius is empty or carries no
// force at all; the remaining fields are then zero. The zero-norm guards are
// documented degeneracies, not silent failures: Skipped counts nodes
// coincident with the centroid, whose projection direction is undefined, and
// a zero Contractility forces Polarity to zero rather than dividing.
type Moments struct {
	Defined bool

	Nodes   int // nodes within the cutoff radius
	Skipped int // subset nodes skipped for zero-norm offsets

	FSum           r3.Vec // net force over the subset
	Center         r3.Vec // mesh centroid, the projection reference point
	ForceEpicenter r3.Vec // least-squares crossing point of the force lines

	// Contractility is the sum of nodal force projections onto the unit
	// vectors pointing from the centroid to each node.
	Contractility float64

	// Moment holds the eigenvalues of the symmetrized force-moment tensor
	// sum RR (x) f in descending order, Axis the matching unit eigenvectors.
	// Axis[0] is the dominant force-moment axis.
	Moment [3]float64
	Axis   [3]r3.Vec

	// FProj[i] is the force projection sum along Axis[i]; Polarity is
	// FProj[0] / Contractility, zero when Contractility is zero.
	FProj    [3]float64
	Polarity float64
}

// Results derives summary quantities from a solved state. It reads the mesh
// and state without owning them, so extraction can run on a state that a
// writer is about to persist.
type Results struct {
	msh *mesh.Mesh
	st  *State
}

func NewResults(msh *mesh.Mesh, st *State) *Results {
	return &Results{msh: msh, st: st}
}

// NodeDisplacements returns the per-node displacement vectors.
func (r *Results) NodeDisplacements() (u []r3.Vec) {
	u = make([]r3.Vec, r.msh.NumNodes())
	for i := range u {
		u[i] = r.st.NodeDisplacement(i)
	}
	return
}

// NodeForces returns the per-node stored force vectors.
func (r *Results) NodeForces() (f []r3.Vec) {
	f = make([]r3.Vec, r.msh.NumNodes())
	for i := range f {
		f[i] = r.st.NodeForce(i)
	}
	return
}

// TetSummaries returns the per-element centers, energies and volumes.
func (r *Results) TetSummaries() (ts []TetSummary) {
	ts = make([]TetSummary, r.msh.NumTets())
	for t := range ts {
		ts[t] = TetSummary{
			Center: r.msh.TetCenter(t),
			Energy: r.st.TetEnergy[t],
			Volume: r.msh.Volume[t],
		}
	}
	return
}

// NodeVolumes returns the per-node share of the mesh volume, a quarter of
// each incident element. Used to convert nodal forces to force densities.
func (r *Results) NodeVolumes() (v []float64) {
	v = make([]float64, r.msh.NumNodes())
	for t, tet := range r.msh.Tets {
		for _, n := range tet {
			v[n] += 0.25 * r.msh.Volume[t]
		}
	}
	return
}

// ForceMoments computes the aggregate descriptors of the force field carried
// by the nodes within rmax of the mesh centroid.
func (r *Results) ForceMoments(rmax float64) (mom Moments) {
	var (
		center = r.msh.Centroid()
		nN     = r.msh.NumNodes()
		M      [3][3]float64 // force-moment tensor sum RR (x) f
		epiA   [3][3]float64 // normal equations of the epicenter fit
		epiB   r3.Vec
	)
	mom.Center = center
	for n := 0; n < nN; n++ {
		var (
			RR = r3.Sub(r.msh.Nodes[n], center)
			rn = r3.Norm(RR)
		)
		if rn >= rmax {
			continue
		}
		mom.Nodes++
		var (
			f  = r.st.NodeForce(n)
			f2 = r3.Norm2(f)
			fc = [3]float64{f.X, f.Y, f.Z}
			rc = [3]float64{RR.X, RR.Y, RR.Z}
		)
		mom.FSum = r3.Add(mom.FSum, f)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				M[i][j] += rc[i] * fc[j]
				epiA[i][j] -= fc[i] * fc[j]
			}
			epiA[i][i] += f2
		}
		epiB = r3.Add(epiB, r3.Sub(r3.Scale(f2, RR), r3.Scale(r3.Dot(f, RR), f)))
		if rn > 0 {
			mom.Contractility += r3.Dot(RR, f) / rn
		} else {
			mom.Skipped++
		}
	}
	if mom.Nodes == 0 || (mom.FSum == r3.Vec{} && tensorZero(M) && mom.Contractility == 0) {
		return
	}
	mom.Defined = true

	// Epicenter: the point x minimizing the squared torques |(R-x) x f|^2,
	// from sum(|f|^2 I - f (x) f) x = sum(|f|^2 R - (f.R) f). The system is
	// singular when all forces are parallel; the centroid then stands in.
	mom.ForceEpicenter = center
	epi := mat3FromTensor(epiA)
	if inv, ierr := epi.Inverse(); ierr == nil {
		mom.ForceEpicenter = r3.Add(center, inv.MulVec(epiB))
	}

	// Principal force moments: the extrema of v.M.v over unit directions are
	// the eigenvalues of the symmetric part of M.
	var (
		sym = mat.NewSymDense(3, nil)
		eig mat.EigenSym
	)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			sym.SetSym(i, j, 0.5*(M[i][j]+M[j][i]))
		}
	}
	if ok := eig.Factorize(sym, true); !ok {
		mom.Defined = false
		return
	}
	var (
		vals = eig.Values(nil) // ascending
		vecs = mat.NewDense(3, 3, nil)
	)
	eig.VectorsTo(vecs)
	for i := 0; i < 3; i++ {
		src := 2 - i // descending
		mom.Moment[i] = vals[src]
		mom.Axis[i] = r3.Vec{X: vecs.At(0, src), Y: vecs.At(1, src), Z: vecs.At(2, src)}
	}

	// Per-axis force projections, summed with the same zero-norm guard as
	// the contractility.
	for n := 0; n < nN; n++ {
		RR := r3.Sub(r.msh.Nodes[n], center)
		rn := r3.Norm(RR)
		if rn >= rmax || rn == 0 {
			continue
		}
		var (
			eR = r3.Scale(1/rn, RR)
			f  = r.st.NodeForce(n)
		)
		for i := 0; i < 3; i++ {
			mom.FProj[i] += r3.Dot(eR, mom.Axis[i]) * r3.Dot(mom.Axis[i], f)
		}
	}
	if mom.Contractility != 0 {
		mom.Polarity = mom.FProj[0] / mom.Contractility
	}
	return
}

func tensorZero(M [3][3]float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if M[i][j] != 0 {
				return false
			}
		}
	}
	return true
}

func mat3FromTensor(T [3][3]float64) (R utils.Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			R[3*i+j] = T[i][j]
		}
	}
	return
}
