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
	"math"
	"os"
	"path/filepath"

	"github.com/fibernetics/fibernet/InputParameters"
	"github.com/fibernetics/fibernet/fiber"
	"github.com/fibernetics/fibernet/mesh"
	"github.com/fibernetics/fibernet/orientation"
	"github.com/fibernetics/fibernet/output"
	"github.com/fibernetics/fibernet/readfiles"
	"github.com/fibernetics/fibernet/solver"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

// SolveFiles names the input tables and output directory of a solve run.
type SolveFiles struct {
	Coords        string
	Tets          string
	BCond         string
	Displacements string
	Beams         string
	Params        string
	OutDir        string
}

func fatal(err error) {
	fmt.Printf("error: %s\n", err.Error())
	os.Exit(1)
}

// exampleParams is printed when a parameter file fails to parse.
const exampleParams = `
########################################
Title: "Collagen Gel"
Material:
  K: 1645
  D0: 0.0008
  LambdaS: 0.0075
  DS: 0.033
Beams: 300
Alpha: 3.0e9
Weighting: huber
Workers: 4
########################################
`

func loadParameters(filename string) (ip InputParameters.InputParameters) {
	ip = InputParameters.Default()
	if len(filename) == 0 {
		return
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		fatal(err)
	}
	if err = ip.Parse(data); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		fmt.Printf("Example File:%s\n", exampleParams)
		os.Exit(1)
	}
	return
}

func loadMesh(m *SolveFiles) (msh *mesh.Mesh) {
	nodes, err := readfiles.ReadCoords(m.Coords)
	if err != nil {
		fatal(err)
	}
	tets, err := readfiles.ReadTets(m.Tets)
	if err != nil {
		fatal(err)
	}
	msh = mesh.New()
	if err = msh.SetNodes(nodes); err != nil {
		fatal(err)
	}
	if err = msh.SetTetrahedra(tets); err != nil {
		fatal(err)
	}
	return
}

func buildLaw(ip *InputParameters.InputParameters) fiber.Law {
	law, err := fiber.NewSemiAffine(ip.Material.K, ip.Material.D0,
		ip.Material.LambdaS, ip.Material.DS)
	if err != nil {
		fatal(err)
	}
	return law
}

// buildOrientations prefers an explicit beam file, then the Beams count from
// the parameter file, then the built-in quadrature.
func buildOrientations(beamsFile string, n int) *orientation.Set {
	if len(beamsFile) != 0 {
		set, err := readfiles.ReadBeams(beamsFile)
		if err != nil {
			fatal(err)
		}
		return set
	}
	if n > 0 {
		return orientation.NewFibonacci(n)
	}
	return orientation.Default()
}

func cgOptions(ip *InputParameters.InputParameters) solver.CGOptions {
	return solver.CGOptions{Tol: ip.CGTol, MaxIter: ip.CGMaxIterations}
}

// startProfile turns on CPU profiling when --profile is set. The returned
// stopper is a no-op otherwise.
func startProfile(cmd *cobra.Command) interface{ Stop() } {
	if on, _ := cmd.Flags().GetBool("profile"); on {
		return profile.Start(profile.ProfilePath("."))
	}
	return noProfile{}
}

type noProfile struct{}

func (noProfile) Stop() {}

// writeResults stores the standard result tables: rest positions R.dat,
// displacements U.dat, forces F.dat, element centers RR.dat with their
// energy/volume rows EV.dat, force densities Fden.dat and the iteration
// record relrec.dat.
func writeResults(outDir string, msh *mesh.Mesh, res *solver.Results, rep solver.Report) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		fatal(err)
	}
	store := func(name string, err error) {
		if err != nil {
			fatal(fmt.Errorf("writing %s: %w", name, err))
		}
	}
	path := func(name string) string { return filepath.Join(outDir, name) }

	store("R.dat", output.StoreVectors(path("R.dat"), msh.Nodes))
	store("U.dat", output.StoreVectors(path("U.dat"), res.NodeDisplacements()))
	store("F.dat", output.StoreVectors(path("F.dat"), res.NodeForces()))
	store("EV.dat", output.StoreTetSummaries(path("RR.dat"), path("EV.dat"), res.TetSummaries()))
	store("Fden.dat", output.StoreForceDensity(path("Fden.dat"), res.NodeForces(), res.NodeVolumes()))
	store("relrec.dat", output.StoreRecord(path("relrec.dat"), rep))
}

// printMoments prints the aggregate descriptors of the solved force field.
func printMoments(res *solver.Results, rmax float64) {
	if rmax <= 0 {
		rmax = math.Inf(1)
	}
	mom := res.ForceMoments(rmax)
	if !mom.Defined {
		fmt.Printf("force moments undefined (no force-bearing nodes within rmax)\n")
		return
	}
	fmt.Printf("%8.5g\t= Contractility\n", mom.Contractility)
	fmt.Printf("%8.5g\t= Polarity\n", mom.Polarity)
	fmt.Printf("%v\t= Principal moments\n", mom.Moment)
	fmt.Printf("%v\t= Force epicenter\n", mom.ForceEpicenter)
}
