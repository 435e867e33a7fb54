package plotter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"

	"github.com/knei-knurow/madgwick/internal/samples"
)

func TestSaveOrientationPlots(t *testing.T) {
	dir := t.TempDir()
	estimates := []samples.Estimate{
		{T: 0, Q: quat.Number{Real: 1}},
		{T: 0.01, Q: quat.Number{Real: 0.9998, Kmag: 0.02}, Yaw: 0.04},
		{T: 0.02, Q: quat.Number{Real: 0.9992, Kmag: 0.04}, Yaw: 0.08, Skipped: true},
	}

	files, err := SaveOrientationPlots(filepath.Join(dir, "flight.png"), estimates)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "flight_quaternion.png"),
		filepath.Join(dir, "flight_euler.png"),
	}, files)
	for _, f := range files {
		info, err := os.Stat(f)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestSaveOrientationPlotsEmpty(t *testing.T) {
	_, err := SaveOrientationPlots(filepath.Join(t.TempDir(), "x.png"), nil)
	assert.ErrorIs(t, err, ErrNoEstimates)
}

func TestDegrees(t *testing.T) {
	assert.InDelta(t, 180, degrees(3.141592653589793), 1e-12)
}
