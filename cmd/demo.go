/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/fibernetics/fibernet/mesh"
	"github.com/fibernetics/fibernet/solver"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

// DemoCmd represents the demo command
var DemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Relax the built-in single-cube example",
	Long: `
Relaxes a unit cube of six tetrahedra with one face held in place and the
opposite face pulled by a constant force, then prints the equilibrium
displacements and reaction forces. A first run needs no input files at all.

fibernet demo`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
			m   = &SolveFiles{}
		)
		fmt.Println("demo called")
		m.Params, _ = cmd.Flags().GetString("params")
		if m.OutDir, err = cmd.Flags().GetString("outDir"); err != nil {
			panic(err)
		}
		pull, _ := cmd.Flags().GetFloat64("pull")
		defer startProfile(cmd).Stop()
		RunDemo(m, pull)
	},
}

func init() {
	rootCmd.AddCommand(DemoCmd)
	DemoCmd.Flags().StringP("params", "I", "", "YAML parameter file")
	DemoCmd.Flags().StringP("outDir", "o", "", "directory for the result tables, empty = print only")
	DemoCmd.Flags().Float64("pull", 2.5, "force on each node of the pulled face")
}

// demoMesh is the unit cube split into six tetrahedra. The x=0 face is held
// at zero displacement, every node of the x=1 face carries the pull force
// along +x.
func demoMesh(pull float64) (msh *mesh.Mesh, err error) {
	nodes := []r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 1, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 0, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 0, Z: 1},
	}
	tets := [][4]int{
		{0, 1, 3, 5}, {1, 2, 3, 5}, {0, 5, 3, 4},
		{4, 5, 3, 7}, {5, 2, 3, 6}, {3, 5, 6, 7},
	}
	msh = mesh.New()
	if err = msh.SetNodes(nodes); err != nil {
		return
	}
	if err = msh.SetTetrahedra(tets); err != nil {
		return
	}
	bc := make([][3]mesh.AxisState, len(nodes))
	for n := range nodes {
		if nodes[n].X == 0 {
			bc[n] = [3]mesh.AxisState{mesh.Fixed(0), mesh.Fixed(0), mesh.Fixed(0)}
		} else {
			bc[n] = [3]mesh.AxisState{mesh.Imposed(pull), mesh.Free(), mesh.Free()}
		}
	}
	err = msh.SetBoundary(bc)
	return
}

func RunDemo(m *SolveFiles, pull float64) {
	ip := loadParameters(m.Params)
	ip.Print()

	msh, err := demoMesh(pull)
	if err != nil {
		fatal(err)
	}
	a, err := solver.NewAssembler(msh, buildLaw(&ip),
		buildOrientations("", ip.Beams),
		solver.AssemblerOptions{Workers: ip.Workers})
	if err != nil {
		fatal(err)
	}
	st := a.NewState()
	rep, err := solver.Relax(a, st, solver.RelaxOptions{
		Stepper:       ip.Stepper,
		MaxIterations: ip.MaxIterations,
		RelTol:        ip.RelConvCrit,
		CG:            cgOptions(&ip),
		Logger:        newLogger(),
	})
	if err != nil {
		fatal(err)
	}

	fmt.Printf("[%s]\t= Status after %d iterations, energy %g\n",
		rep.Status, rep.Iterations, rep.Objective)
	res := solver.NewResults(msh, st)
	u, f := res.NodeDisplacements(), res.NodeForces()
	fmt.Println("node     u                                f")
	for n := range u {
		fmt.Printf("%4d  %10.4g %10.4g %10.4g  %10.4g %10.4g %10.4g\n",
			n, u[n].X, u[n].Y, u[n].Z, f[n].X, f[n].Y, f[n].Z)
	}
	if len(m.OutDir) != 0 {
		writeResults(m.OutDir, msh, res, rep)
	}
	printMoments(res, 0)
}
