package madgwick

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// normalize scales v to unit length. It returns false if v has zero or
// non-finite norm.
func normalize(v r3.Vec) (r3.Vec, bool) {
	norm := r3.Norm(v)
	if !usableNorm(norm) {
		return v, false
	}
	return r3.Scale(1/norm, v), true
}

// normalizeQuat scales q to unit length. It returns false if q has zero or
// non-finite norm.
func normalizeQuat(q quat.Number) (quat.Number, bool) {
	norm := quat.Abs(q)
	if !usableNorm(norm) {
		return q, false
	}
	return quat.Scale(1/norm, q), true
}

func usableNorm(norm float64) bool {
	return norm != 0 && !math.IsNaN(norm) && !math.IsInf(norm, 0)
}

// magneticReference rotates the unit magnetometer reading m into the Earth frame
// using q, and returns its horizontal (bx >= 0) and vertical (bz) components.
// The horizontal reference has no y component by construction.
func magneticReference(q quat.Number, m r3.Vec) (bx, bz float64) {
	h := quat.Mul(quat.Mul(q, quat.Number{Imag: m.X, Jmag: m.Y, Kmag: m.Z}), quat.Conj(q))
	return math.Sqrt(h.Imag*h.Imag + h.Jmag*h.Jmag), h.Kmag
}

// gradient returns the (unnormalised) gradient of the objective function
// comparing the gravity and magnetic field directions predicted by q with the
// unit readings a and m.
func gradient(q quat.Number, a, m r3.Vec, bx, bz float64) quat.Number {
	q1, q2, q3, q4 := q.Real, q.Imag, q.Jmag, q.Kmag

	// Auxiliary variables to avoid repeated arithmetic
	var (
		q1q2 = q1 * q2
		q1q3 = q1 * q3
		q1q4 = q1 * q4
		q2q2 = q2 * q2
		q2q3 = q2 * q3
		q2q4 = q2 * q4
		q3q3 = q3 * q3
		q3q4 = q3 * q4
		q4q4 = q4 * q4

		twoQ1 = 2 * q1
		twoQ2 = 2 * q2
		twoQ3 = 2 * q3
		twoQ4 = 2 * q4
	)

	// Objective function, predicted minus measured
	var (
		f1 = 2*(q2q4-q1q3) - a.X
		f2 = 2*(q1q2+q3q4) - a.Y
		f3 = 1 - 2*q2q2 - 2*q3q3 - a.Z
		f4 = bx*(0.5-q3q3-q4q4) + bz*(q2q4-q1q3) - m.X
		f5 = bx*(q2q3-q1q4) + bz*(q1q2+q3q4) - m.Y
		f6 = bx*(q1q3+q2q4) + bz*(0.5-q2q2-q3q3) - m.Z
	)

	// Transposed Jacobian times the objective function
	return quat.Number{
		Real: -twoQ3*f1 + twoQ2*f2 -
			bz*q3*f4 +
			(-bx*q4+bz*q2)*f5 +
			bx*q3*f6,
		Imag: twoQ4*f1 + twoQ1*f2 -
			4*q2*f3 +
			bz*q4*f4 +
			(bx*q3+bz*q1)*f5 +
			(bx*q4-2*bz*q2)*f6,
		Jmag: -twoQ1*f1 + twoQ4*f2 -
			4*q3*f3 +
			(-2*bx*q3-bz*q1)*f4 +
			(bx*q2+bz*q4)*f5 +
			(bx*q1-2*bz*q3)*f6,
		Kmag: twoQ2*f1 + twoQ3*f2 +
			(-2*bx*q4+bz*q2)*f4 +
			(-bx*q1+bz*q3)*f5 +
			bx*q2*f6,
	}
}
