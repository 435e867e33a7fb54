package madgwick

import "math"

// Reset returns the orientation estimate to identity. The gain and the
// integration step are left untouched.
func (f *Filter) Reset() {
	f.SetOrientation(quatIdentity)
	f.skipped = false
}

// Beta returns the current filter gain.
func (f *Filter) Beta() float64 {
	return f.beta
}

// SetBeta sets the filter gain. Larger values pull the estimate towards the
// accelerometer/magnetometer solution faster, at the cost of more noise.
//
// The value is not validated; it should be a finite positive number.
func (f *Filter) SetBeta(beta float64) {
	f.beta = beta
}

// DeltaT returns the current integration step in seconds.
func (f *Filter) DeltaT() float64 {
	return f.deltat
}

// SetDeltaT sets the integration step in seconds. It should equal the time
// elapsed between two consecutive samples.
//
// The value is not validated; it should be a finite positive number.
func (f *Filter) SetDeltaT(deltat float64) {
	f.deltat = deltat
}

// BetaFromGyroError returns the gain sqrt(3/4)*e for a gyroscope measurement
// error e in rad/s.
func BetaFromGyroError(e float64) float64 {
	return math.Sqrt(3.0/4.0) * e
}
