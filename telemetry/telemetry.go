// Package telemetry defines the reporting sink fed by the flight loop.
package telemetry

import (
	"context"

	"github.com/openrotor/flightcore/attitude"
)

// A Reporter receives the refreshed attitude and arm state once per fast-loop
// tick. Implementations decide what, if anything, to forward.
type Reporter interface {
	// Init prepares the sink. Called once before the loop begins.
	Init(ctx context.Context) error

	// Update pushes one tick's attitude and arm state.
	Update(ctx context.Context, euler attitude.EulerAngles, armed bool) error
}
