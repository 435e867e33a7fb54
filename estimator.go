// Package madgwick implements Madgwick's gradient descent orientation filter,
// which fuses accelerometer, gyroscope and magnetometer readings into a unit
// quaternion attitude estimate.
package madgwick

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// GyroMeasError is the gyroscope measurement error (rad/s) corresponding to 40 deg/s.
	GyroMeasError = 0.6981317008

	// DefaultBeta is the filter gain used by NewDefault.
	DefaultBeta = 8.384266471
)

// Filter holds the state of one orientation filter instance. It is meant to be
// owned by a single sensor rig: Update reads and writes the stored orientation,
// so concurrent use of one Filter needs external locking.
type Filter struct {
	// Configuration variables
	beta   float64 // Gain applied to the normalised gradient step
	deltat float64 // Integration step (s), should match the sample period

	// Internal variables
	q       quat.Number // Orientation estimate in (w,x,y,z) order, must *always* be a unit quaternion
	skipped bool        // Whether the last call to Update left q untouched

	euler      [3]float64 // ZYX Euler angles (yaw, pitch, roll) of q
	eulerValid bool       // Whether euler is up to date with q
}

// New returns a filter at the identity orientation with the given gain and
// integration step.
//
// There is no default for deltat: it has to be the actual time between two
// samples, e.g. 0.01 for a 100 Hz IMU.
func New(beta, deltat float64) *Filter {
	f := &Filter{
		beta:   beta,
		deltat: deltat,
	}
	f.Reset()
	return f
}

// NewDefault returns a filter using DefaultBeta.
func NewDefault(deltat float64) *Filter {
	return New(DefaultBeta, deltat)
}

// Update fuses one accelerometer, gyroscope and magnetometer sample into the
// orientation estimate and returns the new estimate.
//
// - acc: accelerometer reading, any self-consistent unit
//
// - gyro: gyroscope reading (rad/s), used as is
//
// - mag: magnetometer reading, any self-consistent unit
//
// If acc or mag has zero norm, or if the gradient or the integrated quaternion
// degenerates, the estimate is left unchanged and returned as is. Skipped
// reports whether that happened.
func (f *Filter) Update(acc, gyro, mag r3.Vec) quat.Number {
	f.skipped = true

	// Normalise accelerometer and magnetometer measurements
	a, ok := normalize(acc)
	if !ok {
		return f.q
	}
	m, ok := normalize(mag)
	if !ok {
		return f.q
	}

	// Reference direction of the Earth's magnetic field, from the previous estimate
	bx, bz := magneticReference(f.q, m)

	// Gradient descent corrective step
	s, ok := normalizeQuat(gradient(f.q, a, m, bx, bz))
	if !ok {
		return f.q
	}

	// Rate of change of the quaternion: gyro kinematics minus the corrective step
	omega := quat.Number{Imag: gyro.X, Jmag: gyro.Y, Kmag: gyro.Z}
	qDot := quat.Sub(quat.Scale(0.5, quat.Mul(f.q, omega)), quat.Scale(f.beta, s))

	// Integrate and renormalise
	q, ok := normalizeQuat(quat.Add(f.q, quat.Scale(f.deltat, qDot)))
	if !ok {
		return f.q
	}

	f.q = q
	f.skipped = false
	f.eulerValid = false
	return f.q
}

// Skipped reports whether the most recent call to Update discarded its sample.
// A freshly constructed or reset filter reports false.
func (f *Filter) Skipped() bool {
	return f.skipped
}
