// Package mixer defines the motor-output capability of the flight loop.
package mixer

import (
	"context"

	"github.com/openrotor/flightcore/stabilize"
)

// A Mixer maps throttle and attitude corrections to individual motor
// commands. Exactly one of its run/cut operations executes per fast-loop
// tick.
type Mixer interface {
	// Init prepares the motor outputs. Called once before the loop begins.
	Init(ctx context.Context) error

	// RunDisarmed drives the disarmed idle/test pattern.
	RunDisarmed(ctx context.Context) error

	// RunArmed spins the motors for the given throttle and corrections.
	RunArmed(ctx context.Context, throttle float64, c stabilize.Corrections) error

	// CutMotors forces every output off immediately.
	CutMotors(ctx context.Context) error
}
