package inject

import (
	"context"

	"go.viam.com/utils"

	"github.com/openrotor/flightcore/receiver"
)

// Receiver is an injected receiver.
type Receiver struct {
	receiver.Receiver
	InitFunc           func(ctx context.Context) error
	RefreshFunc        func(ctx context.Context) error
	ComputeExpoFunc    func(headingOffset float64)
	ChangedFunc        func() bool
	ArmingFunc         func() bool
	DisarmingFunc      func() bool
	ThrottleIsDownFunc func() bool
	LostSignalFunc     func() bool
	AuxStateFunc       func() receiver.AuxState
	DemandsFunc        func() receiver.Demands
	CloseFunc          func(ctx context.Context) error
}

// Init calls the injected Init or the real version.
func (r *Receiver) Init(ctx context.Context) error {
	if r.InitFunc == nil {
		return r.Receiver.Init(ctx)
	}
	return r.InitFunc(ctx)
}

// Refresh calls the injected Refresh or the real version.
func (r *Receiver) Refresh(ctx context.Context) error {
	if r.RefreshFunc == nil {
		return r.Receiver.Refresh(ctx)
	}
	return r.RefreshFunc(ctx)
}

// ComputeExpo calls the injected ComputeExpo or the real version.
func (r *Receiver) ComputeExpo(headingOffset float64) {
	if r.ComputeExpoFunc == nil {
		r.Receiver.ComputeExpo(headingOffset)
		return
	}
	r.ComputeExpoFunc(headingOffset)
}

// Changed calls the injected Changed or the real version.
func (r *Receiver) Changed() bool {
	if r.ChangedFunc == nil {
		return r.Receiver.Changed()
	}
	return r.ChangedFunc()
}

// Arming calls the injected Arming or the real version.
func (r *Receiver) Arming() bool {
	if r.ArmingFunc == nil {
		return r.Receiver.Arming()
	}
	return r.ArmingFunc()
}

// Disarming calls the injected Disarming or the real version.
func (r *Receiver) Disarming() bool {
	if r.DisarmingFunc == nil {
		return r.Receiver.Disarming()
	}
	return r.DisarmingFunc()
}

// ThrottleIsDown calls the injected ThrottleIsDown or the real version.
func (r *Receiver) ThrottleIsDown() bool {
	if r.ThrottleIsDownFunc == nil {
		return r.Receiver.ThrottleIsDown()
	}
	return r.ThrottleIsDownFunc()
}

// LostSignal calls the injected LostSignal or the real version.
func (r *Receiver) LostSignal() bool {
	if r.LostSignalFunc == nil {
		return r.Receiver.LostSignal()
	}
	return r.LostSignalFunc()
}

// AuxState calls the injected AuxState or the real version.
func (r *Receiver) AuxState() receiver.AuxState {
	if r.AuxStateFunc == nil {
		return r.Receiver.AuxState()
	}
	return r.AuxStateFunc()
}

// Demands calls the injected Demands or the real version.
func (r *Receiver) Demands() receiver.Demands {
	if r.DemandsFunc == nil {
		return r.Receiver.Demands()
	}
	return r.DemandsFunc()
}

// Close calls the injected Close or the real version.
func (r *Receiver) Close(ctx context.Context) error {
	if r.CloseFunc == nil {
		return utils.TryClose(ctx, r.Receiver)
	}
	return r.CloseFunc(ctx)
}
