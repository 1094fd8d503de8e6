// Package readfiles loads the plain whitespace-table input files of a solve:
// node coordinates, tetrahedra, boundary conditions, displacement fields and
// fiber orientation sets. Blank lines and '#' comments are skipped; all
// errors name the file and line they come from.
package readfiles

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fibernetics/fibernet/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// eachRow scans filename as a whitespace table, stripping blank lines and
// everything after a '#', and hands each data row to fn with its 1-based
// line number.
func eachRow(filename string, fn func(line int, fields []string) error) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	var (
		scanner = bufio.NewScanner(file)
		lineno  = 0
	)
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := fn(lineno, fields); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %v", filename, err)
	}
	return nil
}

func parseFloats(dst []float64, fields []string, filename string, line int) error {
	if len(fields) != len(dst) {
		return fmt.Errorf("%s:%d: want %d columns, got %d", filename, line, len(dst), len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("%s:%d: column %d: %v", filename, line, i+1, err)
		}
		dst[i] = v
	}
	return nil
}

// ReadCoords loads a node coordinate table, one x y z line per node.
func ReadCoords(filename string) (nodes []r3.Vec, err error) {
	var row [3]float64
	err = eachRow(filename, func(line int, fields []string) error {
		if e := parseFloats(row[:], fields, filename, line); e != nil {
			return e
		}
		nodes = append(nodes, r3.Vec{X: row[0], Y: row[1], Z: row[2]})
		return nil
	})
	if err == nil && len(nodes) == 0 {
		err = fmt.Errorf("%s: no coordinate rows", filename)
	}
	return
}

// ReadTets loads a tetrahedron table, four corner indices per line. Indices
// are 1-based on disk and returned 0-based.
func ReadTets(filename string) (tets [][4]int, err error) {
	err = eachRow(filename, func(line int, fields []string) error {
		if len(fields) != 4 {
			return fmt.Errorf("%s:%d: want 4 corner indices, got %d columns", filename, line, len(fields))
		}
		var tet [4]int
		for i, f := range fields {
			n, e := strconv.Atoi(f)
			if e != nil {
				return fmt.Errorf("%s:%d: column %d: %v", filename, line, i+1, e)
			}
			if n < 1 {
				return fmt.Errorf("%s:%d: corner index %d is not 1-based", filename, line, n)
			}
			tet[i] = n - 1
		}
		tets = append(tets, tet)
		return nil
	})
	if err == nil && len(tets) == 0 {
		err = fmt.Errorf("%s: no tetrahedron rows", filename)
	}
	return
}

// ReadDisplacements loads a displacement table, one x y z line per node.
// The same format carries initial fields and measured target fields.
func ReadDisplacements(filename string) (u []r3.Vec, err error) {
	var row [3]float64
	err = eachRow(filename, func(line int, fields []string) error {
		if e := parseFloats(row[:], fields, filename, line); e != nil {
			return e
		}
		u = append(u, r3.Vec{X: row[0], Y: row[1], Z: row[2]})
		return nil
	})
	if err == nil && len(u) == 0 {
		err = fmt.Errorf("%s: no displacement rows", filename)
	}
	return
}

// ReadBoundaryConditions loads a bcond table with one "x y z flag" line per
// node. A flag above 0.5 marks a variable node and the vector is the imposed
// external force; otherwise the node is fixed and the vector is the pinned
// displacement.
func ReadBoundaryConditions(filename string) (bc [][3]mesh.AxisState, err error) {
	var row [4]float64
	err = eachRow(filename, func(line int, fields []string) error {
		if e := parseFloats(row[:], fields, filename, line); e != nil {
			return e
		}
		if row[3] > 0.5 {
			bc = append(bc, [3]mesh.AxisState{
				mesh.Imposed(row[0]), mesh.Imposed(row[1]), mesh.Imposed(row[2]),
			})
		} else {
			bc = append(bc, [3]mesh.AxisState{
				mesh.Fixed(row[0]), mesh.Fixed(row[1]), mesh.Fixed(row[2]),
			})
		}
		return nil
	})
	if err == nil && len(bc) == 0 {
		err = fmt.Errorf("%s: no boundary condition rows", filename)
	}
	return
}
