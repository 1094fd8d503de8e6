package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverDefault(t *testing.T) {
	doc := []byte(`
Title: gel pull
Material:
  K: 900
  DS: 0.04
Alpha: 1.0e-9
Weighting: bisquare
Workers: 4
`)
	ip := Default()
	require.NoError(t, ip.Parse(doc))

	assert.Equal(t, "gel pull", ip.Title)
	assert.Equal(t, 900., ip.Material.K)
	assert.Equal(t, 0.04, ip.Material.DS)
	assert.Equal(t, 1e-9, ip.Alpha)
	assert.Equal(t, "bisquare", ip.Weighting)
	assert.Equal(t, 4, ip.Workers)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 0.0008, ip.Material.D0)
	assert.Equal(t, 0.0075, ip.Material.LambdaS)
	assert.Equal(t, 300, ip.Beams)
	assert.Equal(t, 0.01, ip.RelConvCrit)

	// Zero-valued solver knobs stay zero, deferring to solver defaults.
	assert.Zero(t, ip.Stepper)
	assert.Zero(t, ip.MaxIterations)
	assert.Zero(t, ip.CGTol)
	assert.Zero(t, ip.CGMaxIterations)
	ip.Print()
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	ip := Default()
	assert.Error(t, ip.Parse([]byte("Material: [not, a, mapping]")))
}
