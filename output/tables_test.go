package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fibernetics/fibernet/readfiles"
	"github.com/fibernetics/fibernet/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestStoreVectorsRoundTrip(t *testing.T) {
	name := filepath.Join(t.TempDir(), "U.dat")
	want := []r3.Vec{
		{X: 1, Y: 2, Z: 3},
		{X: -0.25, Y: 1e-9, Z: 0},
		{X: 0.1234567890123456, Y: -7e22, Z: 4.5},
	}
	require.NoError(t, StoreVectors(name, want))

	// %g emits the shortest digit string that parses back to the same
	// float64, so the round trip is exact.
	got, err := readfiles.ReadDisplacements(name)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStoreTetSummaries(t *testing.T) {
	dir := t.TempDir()
	centerName := filepath.Join(dir, "centers.dat")
	evName := filepath.Join(dir, "ev.dat")
	ts := []solver.TetSummary{
		{Center: r3.Vec{X: 0.25, Y: 0.5, Z: 0.25}, Energy: 1.5, Volume: 1. / 6},
		{Center: r3.Vec{X: 0.75, Y: 0.5, Z: 0.75}, Energy: 0, Volume: 1. / 3},
	}
	require.NoError(t, StoreTetSummaries(centerName, evName, ts))

	centers, err := readfiles.ReadCoords(centerName)
	require.NoError(t, err)
	require.Len(t, centers, 2)
	assert.Equal(t, ts[0].Center, centers[0])
	assert.Equal(t, ts[1].Center, centers[1])

	raw, err := os.ReadFile(evName)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1.5 0.16666666666666666", lines[0])
	assert.Equal(t, "0 0.3333333333333333", lines[1])
}

func TestStoreForceDensity(t *testing.T) {
	name := filepath.Join(t.TempDir(), "fden.dat")
	f := []r3.Vec{
		{X: 2, Y: -4, Z: 1},
		{X: 5, Y: 5, Z: 5},
	}
	vol := []float64{0.5, 0}
	require.NoError(t, StoreForceDensity(name, f, vol))

	got, err := readfiles.ReadDisplacements(name)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, r3.Vec{X: 4, Y: -8, Z: 2}, got[0])
	// Zero node volume yields a zero density row rather than an Inf.
	assert.Equal(t, r3.Vec{}, got[1])

	assert.Error(t, StoreForceDensity(name, f, vol[:1]))
}

func TestStoreRecord(t *testing.T) {
	name := filepath.Join(t.TempDir(), "relrec.dat")
	rep := solver.Report{
		History: []solver.IterationStats{
			{Iteration: 0, Objective: 12.5, StepNorm: 0.25, Residual: 3, CGIterations: 17, CGConverged: true},
			{Iteration: 1, Objective: 6.25, StepNorm: 0.125, Residual: 1.5, CGIterations: 9, CGConverged: false},
		},
	}
	require.NoError(t, StoreRecord(name, rep))

	raw, err := os.ReadFile(name)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "#"))
	assert.Equal(t, "0 12.5 0.25 3 17 1", lines[1])
	assert.Equal(t, "1 6.25 0.125 1.5 9 0", lines[2])
}
