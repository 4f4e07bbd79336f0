// Package fake implements a board backed by settable state instead of
// hardware.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/num/quat"

	"github.com/openrotor/flightcore/attitude"
)

// Board reports whatever orientation, rate, and time it was last given. All
// state is settable while a loop is running, so tests can fly a scripted
// attitude profile against real loop code.
type Board struct {
	Name string

	mu           sync.Mutex
	clock        clock.Clock
	orientation  quat.Number
	angularVel   attitude.AngularVelocity
	gyroCounts   [3]int32
	ledOn        bool
	ledChanges   int
	imuInits     int
	imuRefreshes int
}

// NewBoard returns a fake board reading time from the given clock. Passing a
// *clock.Mock makes time, including startup delays, fully test-controlled;
// passing nil uses the wall clock.
func NewBoard(name string, c clock.Clock) *Board {
	if c == nil {
		c = clock.New()
	}
	return &Board{Name: name, clock: c, orientation: quat.Number{Real: 1}}
}

// InitIMU counts the initialization and succeeds.
func (b *Board) InitIMU(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.imuInits++
	return nil
}

// RefreshIMU counts the refresh and succeeds.
func (b *Board) RefreshIMU(ctx context.Context, now time.Time, armed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.imuRefreshes++
	return nil
}

// SetOrientation sets the orientation subsequent reads will report. The value
// is stored as a unit quaternion the way sensing silicon reports it.
func (b *Board) SetOrientation(ea attitude.EulerAngles) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orientation = ea.Quaternion()
}

// Orientation returns the set orientation.
func (b *Board) Orientation(ctx context.Context) (attitude.EulerAngles, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return attitude.FromQuaternion(b.orientation), nil
}

// SetAngularVelocity sets the angular rate ReadIMU will report.
func (b *Board) SetAngularVelocity(av attitude.AngularVelocity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.angularVel = av
}

// SetGyroCounts sets the raw angular-rate sample GyroCounts will report.
func (b *Board) SetGyroCounts(counts [3]int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gyroCounts = counts
}

// GyroCounts returns the set raw angular-rate sample.
func (b *Board) GyroCounts(ctx context.Context) ([3]int32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gyroCounts, nil
}

// ReadIMU returns the set orientation and angular rate together.
func (b *Board) ReadIMU(ctx context.Context) (attitude.EulerAngles, attitude.AngularVelocity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return attitude.FromQuaternion(b.orientation), b.angularVel, nil
}

// Now returns the clock's current time.
func (b *Board) Now() time.Time {
	return b.clock.Now()
}

// SetStatusLED records the indicator state, counting transitions.
func (b *Board) SetStatusLED(ctx context.Context, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if on != b.ledOn {
		b.ledChanges++
	}
	b.ledOn = on
	return nil
}

// LEDOn returns whether the indicator is lit.
func (b *Board) LEDOn() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledOn
}

// LEDTransitions returns how many times the indicator changed state.
func (b *Board) LEDTransitions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledChanges
}

// IMUInits returns how many times InitIMU ran.
func (b *Board) IMUInits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.imuInits
}

// IMURefreshes returns how many times RefreshIMU ran.
func (b *Board) IMURefreshes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.imuRefreshes
}

// Delay blocks for the given duration. On a mocked clock the mock is advanced
// instead, so startup sequences complete without waiting.
func (b *Board) Delay(ctx context.Context, d time.Duration) {
	if mock, ok := b.clock.(*clock.Mock); ok {
		mock.Add(d)
		return
	}
	utils.SelectContextOrWait(ctx, d)
}
