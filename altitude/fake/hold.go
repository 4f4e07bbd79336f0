// Package fake implements an altitude hold that records its inputs and can
// override throttle on demand.
package fake

import (
	"context"
	"sync"

	"github.com/openrotor/flightcore/altitude"
	"github.com/openrotor/flightcore/attitude"
	"github.com/openrotor/flightcore/receiver"
)

var _ altitude.Hold = (*Hold)(nil)

// Hold records every call the loop makes and passes throttle through
// unchanged unless an override is set.
type Hold struct {
	Name string

	mu            sync.Mutex
	inits         int
	pidRuns       int
	lastPIDArmed  bool
	fusions       int
	lastFused     attitude.EulerAngles
	lastFuseArmed bool
	auxCalls      []receiver.AuxState
	lastAuxThrot  float64
	override      float64
	overrideSet   bool
}

// NewHold returns a recording fake altitude hold.
func NewHold(name string) *Hold {
	return &Hold{Name: name}
}

// Init counts the initialization and succeeds.
func (h *Hold) Init(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inits++
	return nil
}

// ComputePID records the control calculation.
func (h *Hold) ComputePID(ctx context.Context, armed bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pidRuns++
	h.lastPIDArmed = armed
	return nil
}

// FuseWithIMU records the fused attitude.
func (h *Hold) FuseWithIMU(ctx context.Context, euler attitude.EulerAngles, armed bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fusions++
	h.lastFused = euler
	h.lastFuseArmed = armed
	return nil
}

// AdjustThrottle returns the override when set, the input otherwise.
func (h *Hold) AdjustThrottle(ctx context.Context, throttle float64) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.overrideSet {
		return h.override, nil
	}
	return throttle, nil
}

// HandleAuxSwitch records the switch transition and its throttle.
func (h *Hold) HandleAuxSwitch(ctx context.Context, aux receiver.AuxState, throttle float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.auxCalls = append(h.auxCalls, aux)
	h.lastAuxThrot = throttle
	return nil
}

// SetThrottleOverride makes AdjustThrottle return the given value.
func (h *Hold) SetThrottleOverride(throttle float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.override = throttle
	h.overrideSet = true
}

// ClearThrottleOverride restores passthrough behavior.
func (h *Hold) ClearThrottleOverride() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.overrideSet = false
}

// Inits returns how many times Init ran.
func (h *Hold) Inits() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inits
}

// PIDRuns returns how many times ComputePID ran.
func (h *Hold) PIDRuns() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pidRuns
}

// LastPIDArmed returns the armed flag from the most recent ComputePID.
func (h *Hold) LastPIDArmed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastPIDArmed
}

// Fusions returns how many times FuseWithIMU ran.
func (h *Hold) Fusions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fusions
}

// LastFused returns the attitude from the most recent FuseWithIMU.
func (h *Hold) LastFused() attitude.EulerAngles {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastFused
}

// AuxCalls returns the switch positions passed to HandleAuxSwitch in order.
func (h *Hold) AuxCalls() []receiver.AuxState {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]receiver.AuxState, len(h.auxCalls))
	copy(out, h.auxCalls)
	return out
}

// LastAuxThrottle returns the throttle from the most recent HandleAuxSwitch.
func (h *Hold) LastAuxThrottle() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastAuxThrot
}
