// Package altitude defines the altitude-hold capability of the flight loop.
package altitude

import (
	"context"

	"github.com/openrotor/flightcore/attitude"
	"github.com/openrotor/flightcore/receiver"
)

// A Hold estimates vertical state and, when engaged, takes over the throttle
// demand. Its control calculation runs at its own loop rate, never in the
// same tick as the receiver dispatch.
type Hold interface {
	// Init prepares the estimator. Called once before the loop begins.
	Init(ctx context.Context) error

	// ComputePID runs the hold control calculation.
	ComputePID(ctx context.Context, armed bool) error

	// FuseWithIMU corrects the vertical-velocity estimate with the latest
	// attitude.
	FuseWithIMU(ctx context.Context, euler attitude.EulerAngles, armed bool) error

	// AdjustThrottle returns the throttle demand with any hold correction
	// applied.
	AdjustThrottle(ctx context.Context, throttle float64) (float64, error)

	// HandleAuxSwitch engages or releases hold for the new switch position,
	// capturing the throttle at the moment of the transition.
	HandleAuxSwitch(ctx context.Context, aux receiver.AuxState, throttle float64) error
}
