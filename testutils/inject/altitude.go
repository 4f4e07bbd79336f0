package inject

import (
	"context"

	"go.viam.com/utils"

	"github.com/openrotor/flightcore/altitude"
	"github.com/openrotor/flightcore/attitude"
	"github.com/openrotor/flightcore/receiver"
)

// AltitudeHold is an injected altitude hold.
type AltitudeHold struct {
	altitude.Hold
	InitFunc            func(ctx context.Context) error
	ComputePIDFunc      func(ctx context.Context, armed bool) error
	FuseWithIMUFunc     func(ctx context.Context, euler attitude.EulerAngles, armed bool) error
	AdjustThrottleFunc  func(ctx context.Context, throttle float64) (float64, error)
	HandleAuxSwitchFunc func(ctx context.Context, aux receiver.AuxState, throttle float64) error
	CloseFunc           func(ctx context.Context) error
}

// Init calls the injected Init or the real version.
func (h *AltitudeHold) Init(ctx context.Context) error {
	if h.InitFunc == nil {
		return h.Hold.Init(ctx)
	}
	return h.InitFunc(ctx)
}

// ComputePID calls the injected ComputePID or the real version.
func (h *AltitudeHold) ComputePID(ctx context.Context, armed bool) error {
	if h.ComputePIDFunc == nil {
		return h.Hold.ComputePID(ctx, armed)
	}
	return h.ComputePIDFunc(ctx, armed)
}

// FuseWithIMU calls the injected FuseWithIMU or the real version.
func (h *AltitudeHold) FuseWithIMU(ctx context.Context, euler attitude.EulerAngles, armed bool) error {
	if h.FuseWithIMUFunc == nil {
		return h.Hold.FuseWithIMU(ctx, euler, armed)
	}
	return h.FuseWithIMUFunc(ctx, euler, armed)
}

// AdjustThrottle calls the injected AdjustThrottle or the real version.
func (h *AltitudeHold) AdjustThrottle(ctx context.Context, throttle float64) (float64, error) {
	if h.AdjustThrottleFunc == nil {
		return h.Hold.AdjustThrottle(ctx, throttle)
	}
	return h.AdjustThrottleFunc(ctx, throttle)
}

// HandleAuxSwitch calls the injected HandleAuxSwitch or the real version.
func (h *AltitudeHold) HandleAuxSwitch(ctx context.Context, aux receiver.AuxState, throttle float64) error {
	if h.HandleAuxSwitchFunc == nil {
		return h.Hold.HandleAuxSwitch(ctx, aux, throttle)
	}
	return h.HandleAuxSwitchFunc(ctx, aux, throttle)
}

// Close calls the injected Close or the real version.
func (h *AltitudeHold) Close(ctx context.Context) error {
	if h.CloseFunc == nil {
		return utils.TryClose(ctx, h.Hold)
	}
	return h.CloseFunc(ctx)
}
