// Package board defines the hardware and time access the flight loop depends
// on. Any conforming implementation is substitutable; the loop never touches
// sensors, clocks, or indicators directly.
package board

import (
	"context"
	"time"

	"github.com/openrotor/flightcore/attitude"
)

// A Board provides fused orientation sensing, a monotonic clock, and the
// status indicator for one airframe.
type Board interface {
	// InitIMU starts orientation sensing. Called once before the loop begins.
	InitIMU(ctx context.Context) error

	// RefreshIMU runs any low-rate internal update the sensing pipeline needs.
	// The loop calls it once per estimator update with the tick's time sample.
	RefreshIMU(ctx context.Context, now time.Time, armed bool) error

	// Orientation returns the latest fused orientation in radians.
	Orientation(ctx context.Context) (attitude.EulerAngles, error)

	// GyroCounts returns the latest raw angular-rate sample in device counts.
	GyroCounts(ctx context.Context) ([3]int32, error)

	// ReadIMU returns the fused orientation together with the angular rate in
	// rad/s. The fast loop uses this combined fetch so both come from the same
	// sample.
	ReadIMU(ctx context.Context) (attitude.EulerAngles, attitude.AngularVelocity, error)

	// Now returns the current monotonic time.
	Now() time.Time

	// SetStatusLED turns the status indicator on or off.
	SetStatusLED(ctx context.Context, on bool) error

	// Delay blocks for the given duration or until ctx is done. Startup only;
	// never called once the loop is running.
	Delay(ctx context.Context, d time.Duration)
}
