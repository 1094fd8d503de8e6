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
	"os"

	"github.com/fibernetics/fibernet/readfiles"
	"github.com/fibernetics/fibernet/solver"
	"github.com/spf13/cobra"
)

// RelaxCmd represents the relax command
var RelaxCmd = &cobra.Command{
	Use:   "relax",
	Short: "Relax a network under boundary conditions to mechanical equilibrium",
	Long: `
Loads node coordinates, tetrahedra and per-node boundary conditions, then
drives the free degrees of freedom to force balance.

fibernet relax -R coords.dat -T tets.dat -B bcond.dat`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
			m   = &SolveFiles{}
		)
		fmt.Println("relax called")
		if m.Coords, err = cmd.Flags().GetString("coords"); err != nil {
			panic(err)
		}
		if m.Tets, err = cmd.Flags().GetString("tets"); err != nil {
			panic(err)
		}
		if m.BCond, err = cmd.Flags().GetString("bcond"); err != nil {
			panic(err)
		}
		m.Displacements, _ = cmd.Flags().GetString("initial")
		m.Beams, _ = cmd.Flags().GetString("beams")
		m.Params, _ = cmd.Flags().GetString("params")
		m.OutDir, _ = cmd.Flags().GetString("outDir")
		rmax, _ := cmd.Flags().GetFloat64("fmRmax")
		defer startProfile(cmd).Stop()
		RunRelax(m, rmax)
	},
}

func init() {
	rootCmd.AddCommand(RelaxCmd)
	RelaxCmd.Flags().StringP("coords", "R", "", "node coordinate table, one \"x y z\" row per node")
	RelaxCmd.Flags().StringP("tets", "T", "", "tetrahedron table, four 1-based corner indices per row")
	RelaxCmd.Flags().StringP("bcond", "B", "", "boundary table, one \"x y z flag\" row per node: flag > 0.5 is a variable node with imposed force, otherwise fixed displacement")
	RelaxCmd.Flags().StringP("params", "I", "", "YAML parameter file")
	RelaxCmd.Flags().String("initial", "", "displacement table to resume from, typically a previous U.dat")
	RelaxCmd.Flags().String("beams", "", "fiber direction table overriding the built-in quadrature")
	RelaxCmd.Flags().StringP("outDir", "o", ".", "directory for the result tables")
	RelaxCmd.Flags().Float64("fmRmax", 0, "radius around the centroid for the force-moment summary, 0 = whole mesh")
}

func RunRelax(m *SolveFiles, rmax float64) {
	var willExit bool
	if len(m.Coords) == 0 {
		fmt.Printf("error: must supply a coordinate file (-R, --coords)\n")
		willExit = true
	}
	if len(m.Tets) == 0 {
		fmt.Printf("error: must supply a tetrahedron file (-T, --tets)\n")
		willExit = true
	}
	if len(m.BCond) == 0 {
		fmt.Printf("error: must supply a boundary condition file (-B, --bcond)\n")
		willExit = true
	}
	if willExit {
		os.Exit(1)
	}

	ip := loadParameters(m.Params)
	ip.Print()

	msh := loadMesh(m)
	bc, err := readfiles.ReadBoundaryConditions(m.BCond)
	if err != nil {
		fatal(err)
	}
	if err = msh.SetBoundary(bc); err != nil {
		fatal(err)
	}
	if len(m.Displacements) != 0 {
		u, uerr := readfiles.ReadDisplacements(m.Displacements)
		if uerr != nil {
			fatal(uerr)
		}
		if uerr = msh.SetDisplacements(u); uerr != nil {
			fatal(uerr)
		}
	}

	a, err := solver.NewAssembler(msh, buildLaw(&ip),
		buildOrientations(m.Beams, ip.Beams),
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
	writeResults(m.OutDir, msh, res, rep)
	printMoments(res, rmax)
}
