// Package receiver defines the control-link capability the flight loop
// interrogates for pilot demands, stick gestures, and link health.
package receiver

import "context"

// Demand indexes a Demands array by channel role.
const (
	DemandThrottle = iota
	DemandRoll
	DemandPitch
	DemandYaw
)

// Demands holds one shaped demand per channel role. Throttle is in [0,1];
// roll, pitch, and yaw are in [-1,1].
type Demands [4]float64

// AuxState is the position of the auxiliary mode switch.
type AuxState int

// AuxNeutral is the switch position required for arming.
const AuxNeutral AuxState = 0

// A Receiver decodes the pilot's control link. Refresh is the only operation
// that touches the link; the other methods report state as of the last
// Refresh or ComputeExpo call.
type Receiver interface {
	// Init prepares the link. Called once before the loop begins.
	Init(ctx context.Context) error

	// Refresh ingests the latest channel data.
	Refresh(ctx context.Context) error

	// ComputeExpo reshapes the raw channel values into Demands, with
	// roll/pitch rotated by the given heading offset (radians) for
	// heading-relative control.
	ComputeExpo(headingOffset float64)

	// Changed reports whether any tracked input changed in the last Refresh.
	Changed() bool

	// Arming reports whether the arm stick gesture is present.
	Arming() bool

	// Disarming reports whether the disarm stick gesture is present.
	Disarming() bool

	// ThrottleIsDown reports whether the throttle stick is at minimum.
	ThrottleIsDown() bool

	// LostSignal reports whether the control link has been lost.
	LostSignal() bool

	// AuxState returns the current auxiliary switch position.
	AuxState() AuxState

	// Demands returns the demands computed by the last ComputeExpo.
	Demands() Demands
}
