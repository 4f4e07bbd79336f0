// Package inject provides dependency-injected collaborators for testing the
// flight loop. Each type embeds its interface and overrides only the methods
// with a Func installed.
package inject

import (
	"context"
	"time"

	"go.viam.com/utils"

	"github.com/openrotor/flightcore/attitude"
	"github.com/openrotor/flightcore/board"
)

// Board is an injected board.
type Board struct {
	board.Board
	InitIMUFunc      func(ctx context.Context) error
	RefreshIMUFunc   func(ctx context.Context, now time.Time, armed bool) error
	OrientationFunc  func(ctx context.Context) (attitude.EulerAngles, error)
	GyroCountsFunc   func(ctx context.Context) ([3]int32, error)
	ReadIMUFunc      func(ctx context.Context) (attitude.EulerAngles, attitude.AngularVelocity, error)
	NowFunc          func() time.Time
	SetStatusLEDFunc func(ctx context.Context, on bool) error
	DelayFunc        func(ctx context.Context, d time.Duration)
	CloseFunc        func(ctx context.Context) error
}

// InitIMU calls the injected InitIMU or the real version.
func (b *Board) InitIMU(ctx context.Context) error {
	if b.InitIMUFunc == nil {
		return b.Board.InitIMU(ctx)
	}
	return b.InitIMUFunc(ctx)
}

// RefreshIMU calls the injected RefreshIMU or the real version.
func (b *Board) RefreshIMU(ctx context.Context, now time.Time, armed bool) error {
	if b.RefreshIMUFunc == nil {
		return b.Board.RefreshIMU(ctx, now, armed)
	}
	return b.RefreshIMUFunc(ctx, now, armed)
}

// Orientation calls the injected Orientation or the real version.
func (b *Board) Orientation(ctx context.Context) (attitude.EulerAngles, error) {
	if b.OrientationFunc == nil {
		return b.Board.Orientation(ctx)
	}
	return b.OrientationFunc(ctx)
}

// GyroCounts calls the injected GyroCounts or the real version.
func (b *Board) GyroCounts(ctx context.Context) ([3]int32, error) {
	if b.GyroCountsFunc == nil {
		return b.Board.GyroCounts(ctx)
	}
	return b.GyroCountsFunc(ctx)
}

// ReadIMU calls the injected ReadIMU or the real version.
func (b *Board) ReadIMU(ctx context.Context) (attitude.EulerAngles, attitude.AngularVelocity, error) {
	if b.ReadIMUFunc == nil {
		return b.Board.ReadIMU(ctx)
	}
	return b.ReadIMUFunc(ctx)
}

// Now calls the injected Now or the real version.
func (b *Board) Now() time.Time {
	if b.NowFunc == nil {
		return b.Board.Now()
	}
	return b.NowFunc()
}

// SetStatusLED calls the injected SetStatusLED or the real version.
func (b *Board) SetStatusLED(ctx context.Context, on bool) error {
	if b.SetStatusLEDFunc == nil {
		return b.Board.SetStatusLED(ctx, on)
	}
	return b.SetStatusLEDFunc(ctx, on)
}

// Delay calls the injected Delay or the real version.
func (b *Board) Delay(ctx context.Context, d time.Duration) {
	if b.DelayFunc == nil {
		b.Board.Delay(ctx, d)
		return
	}
	b.DelayFunc(ctx, d)
}

// Close calls the injected Close or the real version.
func (b *Board) Close(ctx context.Context) error {
	if b.CloseFunc == nil {
		return utils.TryClose(ctx, b.Board)
	}
	return b.CloseFunc(ctx)
}
