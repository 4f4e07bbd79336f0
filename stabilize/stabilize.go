// Package stabilize defines the attitude-stabilization capability consumed by
// the flight loop, along with a cascaded angle/rate PID implementation.
package stabilize

import (
	"context"

	"github.com/openrotor/flightcore/attitude"
	"github.com/openrotor/flightcore/receiver"
)

// Corrections are the roll/pitch/yaw outputs of one stabilizer update, in
// normalized mixer units.
type Corrections struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// A Stabilizer turns pilot demands and the measured attitude into the
// corrections the mixer applies on top of throttle.
type Stabilizer interface {
	// Init prepares the controller. Called once before the loop begins.
	Init(ctx context.Context) error

	// ResetIntegral zeroes accumulated integral state. The loop calls this
	// while the throttle is down to prevent windup on the ground.
	ResetIntegral()

	// Update produces corrections for one fast-loop tick.
	Update(ctx context.Context, demands receiver.Demands, orient attitude.EulerAngles,
		gyro attitude.AngularVelocity) (Corrections, error)

	// MaxArmingAngle returns the largest roll or pitch magnitude, in radians,
	// at which arming is considered safe.
	MaxArmingAngle() float64
}
