package readfiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fibernetics/fibernet/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func writeTable(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.Nil(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadCoords(t *testing.T) {
	path := writeTable(t, "coords.dat", `# unit tetrahedron
0 0 0
1 0 0   # inline comment

0 1.5 0
0 0 -2e-3
`)
	nodes, err := ReadCoords(path)
	require.Nil(t, err)
	require.Equal(t, 4, len(nodes))
	assert.Equal(t, r3.Vec{}, nodes[0])
	assert.Equal(t, r3.Vec{X: 1}, nodes[1])
	assert.Equal(t, r3.Vec{Y: 1.5}, nodes[2])
	assert.Equal(t, r3.Vec{Z: -2e-3}, nodes[3])
}

func TestReadCoordsErrors(t *testing.T) {
	{
		_, err := ReadCoords(filepath.Join(t.TempDir(), "missing.dat"))
		assert.NotNil(t, err)
	}
	{
		_, err := ReadCoords(writeTable(t, "short.dat", "1 2\n"))
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "short.dat:1")
	}
	{
		_, err := ReadCoords(writeTable(t, "bad.dat", "0 0 0\n1 x 0\n"))
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "bad.dat:2")
	}
	{
		_, err := ReadCoords(writeTable(t, "empty.dat", "# only comments\n\n"))
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "no coordinate rows")
	}
}

func TestReadTets(t *testing.T) {
	path := writeTable(t, "tets.dat", `1 2 3 4
2 3 4 5
`)
	tets, err := ReadTets(path)
	require.Nil(t, err)
	require.Equal(t, 2, len(tets))
	assert.Equal(t, [4]int{0, 1, 2, 3}, tets[0])
	assert.Equal(t, [4]int{1, 2, 3, 4}, tets[1])
}

func TestReadTetsErrors(t *testing.T) {
	{
		// indices on disk start at one
		_, err := ReadTets(writeTable(t, "zero.dat", "0 1 2 3\n"))
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "not 1-based")
	}
	{
		_, err := ReadTets(writeTable(t, "tri.dat", "1 2 3\n"))
		assert.NotNil(t, err)
	}
	{
		_, err := ReadTets(writeTable(t, "float.dat", "1 2 3 4.5\n"))
		assert.NotNil(t, err)
	}
}

func TestReadBoundaryConditions(t *testing.T) {
	path := writeTable(t, "bcond.dat", `0 0 0 0
0.1 -0.2 0.3 0
2.5 0 0 1
0 0 0 1
`)
	bc, err := ReadBoundaryConditions(path)
	require.Nil(t, err)
	require.Equal(t, 4, len(bc))

	// flag 0: fixed, vector is the pinned displacement
	for ax := 0; ax < 3; ax++ {
		assert.True(t, bc[0][ax].IsFixed())
		assert.True(t, bc[1][ax].IsFixed())
	}
	assert.Equal(t, 0.1, bc[1][0].Displacement())
	assert.Equal(t, -0.2, bc[1][1].Displacement())
	assert.Equal(t, 0.3, bc[1][2].Displacement())

	// flag 1: variable, vector is the imposed external force
	for ax := 0; ax < 3; ax++ {
		assert.False(t, bc[2][ax].IsFixed())
		assert.False(t, bc[3][ax].IsFixed())
	}
	assert.Equal(t, 2.5, bc[2][0].Force())
	assert.Equal(t, 0., bc[2][1].Force())
	assert.Equal(t, 0., bc[3][0].Force())
}

func TestReadDisplacements(t *testing.T) {
	path := writeTable(t, "u.dat", "0 0 0\n1e-6 2e-6 -3e-6\n")
	u, err := ReadDisplacements(path)
	require.Nil(t, err)
	require.Equal(t, 2, len(u))
	assert.Equal(t, r3.Vec{X: 1e-6, Y: 2e-6, Z: -3e-6}, u[1])
}

func TestReadBeams(t *testing.T) {
	path := writeTable(t, "beams.dat", `1 0 0
0 2 0
0 0 -1
`)
	s, err := ReadBeams(path)
	require.Nil(t, err)
	require.Equal(t, 3, s.Len())
	// directions come back normalized with uniform weights
	assert.Equal(t, r3.Vec{X: 1}, s.Dirs[0])
	assert.Equal(t, r3.Vec{Y: 1}, s.Dirs[1])
	assert.Equal(t, r3.Vec{Z: -1}, s.Dirs[2])
	for _, w := range s.Weights {
		assert.InDelta(t, 1./3., w, 1e-15)
	}

	_, err = ReadBeams(writeTable(t, "null.dat", "1 0 0\n0 0 0\n"))
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "zero-length")
}

func TestReadersFeedMesh(t *testing.T) {
	// the loaded tables assemble directly into a usable mesh
	var (
		coords = writeTable(t, "coords.dat", "0 0 0\n1 0 0\n0 1 0\n0 0 1\n")
		tets   = writeTable(t, "tets.dat", "1 2 3 4\n")
		bcond  = writeTable(t, "bcond.dat", "0 0 0 0\n0 0 0 0\n0 0 0 0\n0 0 1e-11 1\n")
	)
	nodes, err := ReadCoords(coords)
	require.Nil(t, err)
	tt, err := ReadTets(tets)
	require.Nil(t, err)
	bc, err := ReadBoundaryConditions(bcond)
	require.Nil(t, err)

	m := mesh.New()
	require.Nil(t, m.SetNodes(nodes))
	require.Nil(t, m.SetTetrahedra(tt))
	require.Nil(t, m.SetBoundary(bc))
	assert.Equal(t, 1, m.NumVariable())
	assert.InDelta(t, 1./6., m.Volume[0], 1e-12)
}
