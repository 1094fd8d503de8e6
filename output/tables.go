// Package output writes the result tables of a solve: node vector fields,
// per-element energy and volume, force densities and the per-iteration solve
// record. Everything is a plain whitespace table that readfiles can load
// back.
package output

import (
	"bufio"
	"fmt"
	"os"

	"github.com/fibernetics/fibernet/solver"
	"gonum.org/v1/gonum/spatial/r3"
)

// writeTable creates filename and streams rows through fn.
func writeTable(filename string, fn func(w *bufio.Writer) error) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	if err = fn(w); err != nil {
		return
	}
	return w.Flush()
}

// StoreVectors writes one "x y z" row per entry. Positions, displacements
// and forces all share this layout.
func StoreVectors(filename string, vs []r3.Vec) error {
	return writeTable(filename, func(w *bufio.Writer) error {
		for _, v := range vs {
			if _, err := fmt.Fprintf(w, "%g %g %g\n", v.X, v.Y, v.Z); err != nil {
				return err
			}
		}
		return nil
	})
}

// StoreTetSummaries writes the element tables: the rest-position centers to
// centerName and the matching "energy volume" rows to evName.
func StoreTetSummaries(centerName, evName string, ts []solver.TetSummary) error {
	centers := make([]r3.Vec, len(ts))
	for i, s := range ts {
		centers[i] = s.Center
	}
	if err := StoreVectors(centerName, centers); err != nil {
		return err
	}
	return writeTable(evName, func(w *bufio.Writer) error {
		for _, s := range ts {
			if _, err := fmt.Fprintf(w, "%g %g\n", s.Energy, s.Volume); err != nil {
				return err
			}
		}
		return nil
	})
}

// StoreForceDensity writes the per-node force over the node's share of the
// mesh volume. A node outside every element has no volume and no force; its
// density row is zero.
func StoreForceDensity(filename string, f []r3.Vec, vol []float64) error {
	if len(f) != len(vol) {
		return fmt.Errorf("output: %d forces against %d node volumes", len(f), len(vol))
	}
	return writeTable(filename, func(w *bufio.Writer) error {
		for i, v := range f {
			d := r3.Vec{}
			if vol[i] > 0 {
				d = r3.Scale(1/vol[i], v)
			}
			if _, err := fmt.Fprintf(w, "%g %g %g\n", d.X, d.Y, d.Z); err != nil {
				return err
			}
		}
		return nil
	})
}

// StoreRecord writes the per-iteration diagnostics of an outer solve.
func StoreRecord(filename string, rep solver.Report) error {
	return writeTable(filename, func(w *bufio.Writer) error {
		if _, err := fmt.Fprintf(w, "# iteration objective step residual cg_iterations cg_converged\n"); err != nil {
			return err
		}
		for _, s := range rep.History {
			ok := 0
			if s.CGConverged {
				ok = 1
			}
			if _, err := fmt.Fprintf(w, "%d %g %g %g %d %d\n",
				s.Iteration, s.Objective, s.StepNorm, s.Residual, s.CGIterations, ok); err != nil {
				return err
			}
		}
		return nil
	})
}
