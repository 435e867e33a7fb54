package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knei-knurow/madgwick"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTuningConfig(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		path := writeConfig(t, "tuning.json", `{"beta": 0.1, "sample_rate_hz": 200, "use_timestamps": true}`)

		cfg, err := LoadTuningConfig(path)
		require.NoError(t, err)

		assert.Equal(t, 0.1, cfg.GetBeta())
		deltat, err := cfg.GetDeltaT()
		require.NoError(t, err)
		assert.Equal(t, 0.005, deltat)
		assert.True(t, cfg.GetUseTimestamps())
	})

	t.Run("yaml", func(t *testing.T) {
		path := writeConfig(t, "tuning.yaml", "gyro_meas_error_deg: 40\ndeltat: 0.01\n")

		cfg, err := LoadTuningConfig(path)
		require.NoError(t, err)

		assert.InDelta(t, madgwick.BetaFromGyroError(madgwick.GyroMeasError), cfg.GetBeta(), 1e-9)
		deltat, err := cfg.GetDeltaT()
		require.NoError(t, err)
		assert.Equal(t, 0.01, deltat)
		assert.False(t, cfg.GetUseTimestamps())
	})

	t.Run("partial config keeps defaults", func(t *testing.T) {
		path := writeConfig(t, "tuning.yml", "deltat: 0.02\n")

		cfg, err := LoadTuningConfig(path)
		require.NoError(t, err)
		assert.Equal(t, madgwick.DefaultBeta, cfg.GetBeta())
	})
}

func TestLoadTuningConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"bad extension", "tuning.toml", "beta = 1", "extension"},
		{"bad json", "tuning.json", "{", "failed to parse"},
		{"bad yaml", "tuning.yaml", "beta: [1", "failed to parse"},
		{"negative beta", "tuning.json", `{"beta": -1}`, "beta must be"},
		{"zero deltat", "tuning.yaml", "deltat: 0\n", "deltat must be"},
		{"both gains", "tuning.json", `{"beta": 1, "gyro_meas_error_deg": 40}`, "mutually exclusive"},
		{"both steps", "tuning.json", `{"deltat": 0.01, "sample_rate_hz": 100}`, "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := LoadTuningConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to stat")
	})

	t.Run("too large", func(t *testing.T) {
		path := writeConfig(t, "big.json", `{"beta": 1`+strings.Repeat(" ", 2*1024*1024)+`}`)
		_, err := LoadTuningConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestValidateRejectsNonFinite(t *testing.T) {
	cfg := EmptyTuningConfig()
	cfg.Beta = ptrFloat64(math.Inf(1))
	assert.Error(t, cfg.Validate())

	cfg.Beta = ptrFloat64(math.NaN())
	assert.Error(t, cfg.Validate())
}

func TestGetDeltaTUnset(t *testing.T) {
	_, err := EmptyTuningConfig().GetDeltaT()
	assert.ErrorIs(t, err, ErrNoDeltaT)
}

func TestSetters(t *testing.T) {
	cfg := EmptyTuningConfig()
	cfg.GyroMeasErrorDeg = ptrFloat64(20)
	cfg.SampleRateHz = ptrFloat64(50)

	cfg.SetBeta(0.3)
	cfg.SetDeltaT(0.004)
	cfg.SetUseTimestamps(true)

	require.NoError(t, cfg.Validate())
	assert.Nil(t, cfg.GyroMeasErrorDeg)
	assert.Nil(t, cfg.SampleRateHz)
	assert.Equal(t, 0.3, cfg.GetBeta())
	deltat, err := cfg.GetDeltaT()
	require.NoError(t, err)
	assert.Equal(t, 0.004, deltat)
	assert.True(t, cfg.GetUseTimestamps())
}

func TestNewFilter(t *testing.T) {
	cfg := EmptyTuningConfig()
	_, err := cfg.NewFilter()
	require.ErrorIs(t, err, ErrNoDeltaT)

	cfg.SetDeltaT(0.01)
	f, err := cfg.NewFilter()
	require.NoError(t, err)
	assert.Equal(t, madgwick.DefaultBeta, f.Beta())
	assert.Equal(t, 0.01, f.DeltaT())

	cfg.Beta = ptrFloat64(-2)
	_, err = cfg.NewFilter()
	assert.Error(t, err)
}
