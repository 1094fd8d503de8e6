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

// RegularizeCmd represents the regularize command
var RegularizeCmd = &cobra.Command{
	Use:   "regularize",
	Short: "Recover the force field that explains a measured displacement field",
	Long: `
Loads node coordinates, tetrahedra and a measured displacement field, then
fits displacements and sparse nodal forces by robustly weighted, Tikhonov
regularized Gauss-Newton iteration.

fibernet regularize -R coords.dat -T tets.dat -U measured.dat`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
			m   = &SolveFiles{}
		)
		fmt.Println("regularize called")
		if m.Coords, err = cmd.Flags().GetString("coords"); err != nil {
			panic(err)
		}
		if m.Tets, err = cmd.Flags().GetString("tets"); err != nil {
			panic(err)
		}
		if m.Displacements, err = cmd.Flags().GetString("displacements"); err != nil {
			panic(err)
		}
		m.Beams, _ = cmd.Flags().GetString("beams")
		m.Params, _ = cmd.Flags().GetString("params")
		m.OutDir, _ = cmd.Flags().GetString("outDir")
		rmax, _ := cmd.Flags().GetFloat64("fmRmax")
		defer startProfile(cmd).Stop()
		RunRegularize(m, rmax)
	},
}

func init() {
	rootCmd.AddCommand(RegularizeCmd)
	RegularizeCmd.Flags().StringP("coords", "R", "", "node coordinate table, one \"x y z\" row per node")
	RegularizeCmd.Flags().StringP("tets", "T", "", "tetrahedron table, four 1-based corner indices per row")
	RegularizeCmd.Flags().StringP("displacements", "U", "", "measured displacement table, one \"x y z\" row per node")
	RegularizeCmd.Flags().StringP("params", "I", "", "YAML parameter file")
	RegularizeCmd.Flags().String("beams", "", "fiber direction table overriding the built-in quadrature")
	RegularizeCmd.Flags().StringP("outDir", "o", ".", "directory for the result tables")
	RegularizeCmd.Flags().Float64("fmRmax", 0, "radius around the centroid for the force-moment summary, 0 = whole mesh")
}

func RunRegularize(m *SolveFiles, rmax float64) {
	var willExit bool
	if len(m.Coords) == 0 {
		fmt.Printf("error: must supply a coordinate file (-R, --coords)\n")
		willExit = true
	}
	if len(m.Tets) == 0 {
		fmt.Printf("error: must supply a tetrahedron file (-T, --tets)\n")
		willExit = true
	}
	if len(m.Displacements) == 0 {
		fmt.Printf("error: must supply a measured displacement file (-U, --displacements)\n")
		willExit = true
	}
	if willExit {
		os.Exit(1)
	}

	ip := loadParameters(m.Params)
	ip.Print()

	weighting, err := solver.NewWeighting(ip.Weighting)
	if err != nil {
		fatal(err)
	}

	msh := loadMesh(m)
	target, err := readfiles.ReadDisplacements(m.Displacements)
	if err != nil {
		fatal(err)
	}
	if err = msh.SetTargetDisplacements(target); err != nil {
		fatal(err)
	}

	a, err := solver.NewAssembler(msh, buildLaw(&ip),
		buildOrientations(m.Beams, ip.Beams),
		solver.AssemblerOptions{Workers: ip.Workers})
	if err != nil {
		fatal(err)
	}
	st := a.NewState()
	rep, err := solver.Regularize(a, st, solver.RegularizeOptions{
		Stepper:       ip.Stepper,
		MaxIterations: ip.MaxIterations,
		RelTol:        ip.RelConvCrit,
		Alpha:         ip.Alpha,
		Weighting:     weighting,
		CG:            cgOptions(&ip),
		Logger:        newLogger(),
	})
	if err != nil {
		fatal(err)
	}

	fmt.Printf("[%s]\t= Status after %d iterations, objective %g\n",
		rep.Status, rep.Iterations, rep.Objective)
	res := solver.NewResults(msh, st)
	writeResults(m.OutDir, msh, res, rep)
	printMoments(res, rmax)
}
