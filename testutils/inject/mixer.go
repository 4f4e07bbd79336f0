package inject

import (
	"context"

	"go.viam.com/utils"

	"github.com/openrotor/flightcore/mixer"
	"github.com/openrotor/flightcore/stabilize"
)

// Mixer is an injected mixer.
type Mixer struct {
	mixer.Mixer
	InitFunc        func(ctx context.Context) error
	RunDisarmedFunc func(ctx context.Context) error
	RunArmedFunc    func(ctx context.Context, throttle float64, c stabilize.Corrections) error
	CutMotorsFunc   func(ctx context.Context) error
	CloseFunc       func(ctx context.Context) error
}

// Init calls the injected Init or the real version.
func (m *Mixer) Init(ctx context.Context) error {
	if m.InitFunc == nil {
		return m.Mixer.Init(ctx)
	}
	return m.InitFunc(ctx)
}

// RunDisarmed calls the injected RunDisarmed or the real version.
func (m *Mixer) RunDisarmed(ctx context.Context) error {
	if m.RunDisarmedFunc == nil {
		return m.Mixer.RunDisarmed(ctx)
	}
	return m.RunDisarmedFunc(ctx)
}

// RunArmed calls the injected RunArmed or the real version.
func (m *Mixer) RunArmed(ctx context.Context, throttle float64, c stabilize.Corrections) error {
	if m.RunArmedFunc == nil {
		return m.Mixer.RunArmed(ctx, throttle, c)
	}
	return m.RunArmedFunc(ctx, throttle, c)
}

// CutMotors calls the injected CutMotors or the real version.
func (m *Mixer) CutMotors(ctx context.Context) error {
	if m.CutMotorsFunc == nil {
		return m.Mixer.CutMotors(ctx)
	}
	return m.CutMotorsFunc(ctx)
}

// Close calls the injected Close or the real version.
func (m *Mixer) Close(ctx context.Context) error {
	if m.CloseFunc == nil {
		return utils.TryClose(ctx, m.Mixer)
	}
	return m.CloseFunc(ctx)
}
