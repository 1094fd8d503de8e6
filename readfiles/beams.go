package readfiles

import (
	"fmt"

	"github.com/fibernetics/fibernet/orientation"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadBeams loads a fiber orientation table, one direction per line, into a
// uniformly weighted quadrature set. Directions are normalized on load; a
// zero-length row is an error.
func ReadBeams(filename string) (s *orientation.Set, err error) {
	var row [3]float64
	s = &orientation.Set{}
	err = eachRow(filename, func(line int, fields []string) error {
		if e := parseFloats(row[:], fields, filename, line); e != nil {
			return e
		}
		var (
			d = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
			n = r3.Norm(d)
		)
		if n == 0 {
			return fmt.Errorf("%s:%d: zero-length direction", filename, line)
		}
		s.Dirs = append(s.Dirs, r3.Scale(1/n, d))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(s.Dirs) == 0 {
		return nil, fmt.Errorf("%s: no direction rows", filename)
	}
	s.Weights = make([]float64, len(s.Dirs))
	for i := range s.Weights {
		s.Weights[i] = 1. / float64(len(s.Dirs))
	}
	return
}
