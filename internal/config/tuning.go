// Package config loads filter tuning parameters from JSON or YAML files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/knei-knurow/madgwick"
)

// ErrNoDeltaT is returned when neither deltat nor sample_rate_hz is configured.
// The integration step has no safe default.
var ErrNoDeltaT = errors.New("neither deltat nor sample_rate_hz is set")

// TuningConfig represents the filter tuning parameters. A nil field is unset and
// the Get* methods fall back to defaults.
type TuningConfig struct {
	// Gain, either directly or derived from the gyroscope error (deg/s)
	Beta             *float64 `json:"beta,omitempty" yaml:"beta,omitempty"`
	GyroMeasErrorDeg *float64 `json:"gyro_meas_error_deg,omitempty" yaml:"gyro_meas_error_deg,omitempty"`

	// Integration step, either directly (s) or as a sample rate (Hz)
	DeltaT       *float64 `json:"deltat,omitempty" yaml:"deltat,omitempty"`
	SampleRateHz *float64 `json:"sample_rate_hz,omitempty" yaml:"sample_rate_hz,omitempty"`

	// Derive the integration step from sample timestamps during replay
	UseTimestamps *bool `json:"use_timestamps,omitempty" yaml:"use_timestamps,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a .json, .yaml or .yml file.
// Fields omitted from the file stay nil, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.Beta != nil && c.GyroMeasErrorDeg != nil {
		return errors.New("beta and gyro_meas_error_deg are mutually exclusive")
	}
	if c.DeltaT != nil && c.SampleRateHz != nil {
		return errors.New("deltat and sample_rate_hz are mutually exclusive")
	}

	for _, field := range []struct {
		name string
		v    *float64
	}{
		{"beta", c.Beta},
		{"gyro_meas_error_deg", c.GyroMeasErrorDeg},
		{"deltat", c.DeltaT},
		{"sample_rate_hz", c.SampleRateHz},
	} {
		if field.v == nil {
			continue
		}
		if v := *field.v; v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("%s must be a finite positive number, got %v", field.name, v)
		}
	}

	return nil
}

// SetBeta sets the gain, replacing any configured gyroscope error.
func (c *TuningConfig) SetBeta(beta float64) {
	c.Beta = ptrFloat64(beta)
	c.GyroMeasErrorDeg = nil
}

// SetDeltaT sets the integration step, replacing any configured sample rate.
func (c *TuningConfig) SetDeltaT(deltat float64) {
	c.DeltaT = ptrFloat64(deltat)
	c.SampleRateHz = nil
}

// SetUseTimestamps sets whether replay derives deltat from sample timestamps.
func (c *TuningConfig) SetUseTimestamps(v bool) {
	c.UseTimestamps = ptrBool(v)
}

// GetBeta returns the configured gain, the gain derived from
// gyro_meas_error_deg, or madgwick.DefaultBeta.
func (c *TuningConfig) GetBeta() float64 {
	switch {
	case c.Beta != nil:
		return *c.Beta
	case c.GyroMeasErrorDeg != nil:
		return madgwick.BetaFromGyroError(*c.GyroMeasErrorDeg * math.Pi / 180)
	default:
		return madgwick.DefaultBeta
	}
}

// GetDeltaT returns the configured integration step in seconds.
func (c *TuningConfig) GetDeltaT() (float64, error) {
	switch {
	case c.DeltaT != nil:
		return *c.DeltaT, nil
	case c.SampleRateHz != nil:
		return 1 / *c.SampleRateHz, nil
	default:
		return 0, ErrNoDeltaT
	}
}

// GetUseTimestamps returns whether replay derives deltat from timestamps.
// Defaults to false.
func (c *TuningConfig) GetUseTimestamps() bool {
	if c.UseTimestamps == nil {
		return false
	}
	return *c.UseTimestamps
}

// NewFilter builds a filter from the configuration.
func (c *TuningConfig) NewFilter() (*madgwick.Filter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	deltat, err := c.GetDeltaT()
	if err != nil {
		return nil, err
	}
	return madgwick.New(c.GetBeta(), deltat), nil
}
