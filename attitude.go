package madgwick

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

var quatIdentity = quat.Number{Real: 1}

// Orientation returns the current orientation estimate, in (w,x,y,z) order
// as (Real,Imag,Jmag,Kmag).
func (f *Filter) Orientation() quat.Number {
	return f.q
}

// SetOrientation sets the current orientation estimate. The quaternion is
// normalised; if its norm is zero (or not finite) the estimate is reset to the
// identity orientation instead.
func (f *Filter) SetOrientation(q quat.Number) {
	// update the current orientation estimate
	if n, ok := normalizeQuat(q); ok {
		f.q = n
	} else {
		f.q = quatIdentity
	}

	// Reset the alternative representation validity flag
	f.eulerValid = false
}

// SetOrientationEuler sets the current orientation estimate to a particular set
// of ZYX Euler angles (rad).
func (f *Filter) SetOrientationEuler(yaw, pitch, roll float64) {
	// halve the yaw, pitch and roll values (for calculation purposes only)
	yaw *= 0.5
	pitch *= 0.5
	roll *= 0.5

	// precalculate the required sin and cos values
	var (
		cpsi = math.Cos(yaw)
		spsi = math.Sin(yaw)
		cth  = math.Cos(pitch)
		sth  = math.Sin(pitch)
		cphi = math.Cos(roll)
		sphi = math.Sin(roll)
	)

	f.SetOrientation(quat.Number{
		Real: cpsi*cth*cphi + spsi*sth*sphi,
		Imag: cpsi*cth*sphi - spsi*sth*cphi,
		Jmag: cpsi*sth*cphi + spsi*cth*sphi,
		Kmag: spsi*cth*cphi - cpsi*sth*sphi,
	})
}

func (f *Filter) updateEuler() {
	// These calculations rely on the assumption that q is a unit quaternion!
	//
	// The output ranges are:
	//   Yaw:    psi  = euler[0] is in (-pi,pi]
	//   Pitch: theta = euler[1] is in [-pi/2,pi/2]
	//   Roll:   phi  = euler[2] is in (-pi,pi]
	w, x, y, z := f.q.Real, f.q.Imag, f.q.Jmag, f.q.Kmag

	// Calculate pitch, coerced to [-1,1] first
	stheta := 2.0 * (w*y - z*x)
	if stheta >= 1 {
		stheta = 1
	} else if stheta <= -1 {
		stheta = -1
	}
	f.euler[1] = math.Asin(stheta)

	// Calculate yaw and roll
	ysq := y * y
	f.euler[0] = math.Atan2(w*z+x*y, 0.5-(ysq+z*z))
	f.euler[2] = math.Atan2(w*x+y*z, 0.5-(ysq+x*x))

	f.eulerValid = true
}
