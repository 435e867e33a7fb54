package madgwick

// Euler returns the ZYX Euler angles (rad) of the current orientation estimate.
func (f *Filter) Euler() (yaw, pitch, roll float64) {
	if !f.eulerValid {
		f.updateEuler()
	}
	return f.euler[0], f.euler[1], f.euler[2]
}

// Yaw returns the ZYX Euler yaw of the current orientation estimate (1st of the three ZYX Euler angles).
func (f *Filter) Yaw() float64 {
	if !f.eulerValid {
		f.updateEuler()
	}
	return f.euler[0]
}

// Pitch returns the ZYX Euler pitch of the current orientation estimate (2nd of the three ZYX Euler angles).
func (f *Filter) Pitch() float64 {
	if !f.eulerValid {
		f.updateEuler()
	}
	return f.euler[1]
}

// Roll returns the ZYX Euler roll of the current orientation estimate (3rd of the three ZYX Euler angles).
func (f *Filter) Roll() float64 {
	if !f.eulerValid {
		f.updateEuler()
	}
	return f.euler[2]
}
