// Package samples reads and writes IMU sample logs and orientation estimates
// as CSV, and generates random measurement streams.
package samples

import (
	"io"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sample is one accelerometer/gyroscope/magnetometer triple taken at time T (s).
type Sample struct {
	T    float64
	Acc  r3.Vec // any self-consistent unit
	Gyro r3.Vec // rad/s
	Mag  r3.Vec // any self-consistent unit
}

// Estimate is the filter output for one sample.
type Estimate struct {
	T       float64
	Q       quat.Number
	Yaw     float64 // rad
	Pitch   float64 // rad
	Roll    float64 // rad
	Skipped bool    // the sample was discarded and Q repeats the previous estimate
}

// Source is anything that can provide samples over time. Next returns io.EOF
// when the source is exhausted.
type Source interface {
	Next() (Sample, error)
}

// SliceSource serves samples from memory.
type SliceSource struct {
	samples []Sample
	pos     int
}

// NewSliceSource returns a Source over s.
func NewSliceSource(s []Sample) *SliceSource {
	return &SliceSource{samples: s}
}

// Next implements Source.
func (s *SliceSource) Next() (Sample, error) {
	if s.pos >= len(s.samples) {
		return Sample{}, io.EOF
	}
	sample := s.samples[s.pos]
	s.pos++
	return sample, nil
}
