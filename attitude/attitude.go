// Package attitude defines the orientation value types shared across the
// flight stack.
package attitude

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Axis indexes for per-axis sample arrays.
const (
	AxisRoll = iota
	AxisPitch
	AxisYaw
)

// EulerAngles represents body-frame orientation as three angles in radians,
// following the Tait-Bryan z-y'-x'' (yaw-pitch-roll) convention.
type EulerAngles struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// FromQuaternion converts a rotation unit quaternion to euler angles.
// See the following wikipedia page for the formulas used here:
// https://en.wikipedia.org/wiki/Conversion_between_quaternions_and_Euler_angles#Quaternion_to_Euler_angles_conversion
func FromQuaternion(q quat.Number) EulerAngles {
	w := q.Real
	x := q.Imag
	y := q.Jmag
	z := q.Kmag

	return EulerAngles{
		Roll:  math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)),
		Pitch: math.Asin(2 * (w*y - x*z)),
		Yaw:   math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z)),
	}
}

// Quaternion returns the rotation unit quaternion corresponding to the angles.
func (ea EulerAngles) Quaternion() quat.Number {
	cr := math.Cos(ea.Roll / 2)
	sr := math.Sin(ea.Roll / 2)
	cp := math.Cos(ea.Pitch / 2)
	sp := math.Sin(ea.Pitch / 2)
	cy := math.Cos(ea.Yaw / 2)
	sy := math.Sin(ea.Yaw / 2)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}
