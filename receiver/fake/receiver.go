// Package fake implements a receiver whose channel data comes from settable
// state or a scripted sequence instead of a radio link.
package fake

import (
	"context"
	"math"
	"sync"

	"github.com/openrotor/flightcore/receiver"
	"github.com/openrotor/flightcore/utils"
)

// Channel pulse bounds in microseconds, matching common RC hardware.
const (
	minPulse = 1000
	midPulse = 1500
	maxPulse = 2000

	// Throttle at or below this pulse counts as down.
	throttleDownPulse = minPulse + 50

	// Cubic expo coefficient applied to roll, pitch, and yaw.
	expoCoeff = 0.65
)

var _ receiver.Receiver = (*Receiver)(nil)

// A Step is one scripted Refresh outcome. A zero Pulses array holds the
// previous channel values.
type Step struct {
	Pulses     [4]uint16
	Changed    bool
	Arming     bool
	Disarming  bool
	LostSignal bool
	Aux        receiver.AuxState
}

// Receiver is a fake control link. Tests either drive it through the
// setters or enqueue Steps that successive Refresh calls consume.
type Receiver struct {
	Name string

	mu         sync.Mutex
	script     []Step
	pulses     [4]uint16
	changed    bool
	arming     bool
	disarming  bool
	lost       bool
	aux        receiver.AuxState
	demands    receiver.Demands
	lastOffset float64
	inits      int
	refreshes  int
}

// NewReceiver returns a fake receiver with all sticks centered and throttle
// down.
func NewReceiver(name string) *Receiver {
	return &Receiver{
		Name:   name,
		pulses: [4]uint16{minPulse, midPulse, midPulse, midPulse},
	}
}

// Init counts the initialization and succeeds.
func (r *Receiver) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits++
	return nil
}

// Script appends steps for Refresh to consume in order.
func (r *Receiver) Script(steps ...Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.script = append(r.script, steps...)
}

// Refresh applies the next scripted step if one is queued.
func (r *Receiver) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes++
	if len(r.script) == 0 {
		return nil
	}
	step := r.script[0]
	r.script = r.script[1:]
	if step.Pulses != ([4]uint16{}) {
		r.pulses = step.Pulses
	}
	r.changed = step.Changed
	r.arming = step.Arming
	r.disarming = step.Disarming
	r.lost = step.LostSignal
	r.aux = step.Aux
	return nil
}

// ComputeExpo maps the channel pulses to demands, applies cubic expo to
// roll/pitch/yaw, and rotates roll/pitch by the heading offset.
func (r *Receiver) ComputeExpo(headingOffset float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastOffset = headingOffset

	throttle := utils.MapRange(float64(r.pulses[receiver.DemandThrottle]), minPulse, maxPulse, 0, 1)
	roll := expo(utils.MapRange(float64(r.pulses[receiver.DemandRoll]), minPulse, maxPulse, -1, 1))
	pitch := expo(utils.MapRange(float64(r.pulses[receiver.DemandPitch]), minPulse, maxPulse, -1, 1))
	yaw := expo(utils.MapRange(float64(r.pulses[receiver.DemandYaw]), minPulse, maxPulse, -1, 1))

	cos := math.Cos(headingOffset)
	sin := math.Sin(headingOffset)
	r.demands = receiver.Demands{
		receiver.DemandThrottle: utils.Constrain(throttle, 0, 1),
		receiver.DemandRoll:     utils.Constrain(roll*cos-pitch*sin, -1, 1),
		receiver.DemandPitch:    utils.Constrain(pitch*cos+roll*sin, -1, 1),
		receiver.DemandYaw:      utils.Constrain(yaw, -1, 1),
	}
}

// expo shapes a centered stick value for finer control near center.
func expo(d float64) float64 {
	return d * (expoCoeff*utils.Square(d) + 1 - expoCoeff)
}

// SetPulses sets the raw channel pulses in microseconds, ordered throttle,
// roll, pitch, yaw.
func (r *Receiver) SetPulses(pulses [4]uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pulses = pulses
}

// SetChanged sets whether the next Changed call reports an input change.
func (r *Receiver) SetChanged(changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = changed
}

// SetGestures sets the arm and disarm gesture flags.
func (r *Receiver) SetGestures(arming, disarming bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arming = arming
	r.disarming = disarming
}

// SetLostSignal sets the link-loss flag.
func (r *Receiver) SetLostSignal(lost bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lost = lost
}

// SetAux sets the auxiliary switch position.
func (r *Receiver) SetAux(aux receiver.AuxState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aux = aux
}

// Changed reports the change flag from the last Refresh.
func (r *Receiver) Changed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed
}

// Arming reports the arm gesture flag.
func (r *Receiver) Arming() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.arming
}

// Disarming reports the disarm gesture flag.
func (r *Receiver) Disarming() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disarming
}

// ThrottleIsDown reports whether the throttle pulse is at minimum.
func (r *Receiver) ThrottleIsDown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pulses[receiver.DemandThrottle] <= throttleDownPulse
}

// LostSignal reports the link-loss flag.
func (r *Receiver) LostSignal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lost
}

// AuxState returns the auxiliary switch position.
func (r *Receiver) AuxState() receiver.AuxState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aux
}

// Demands returns the demands from the last ComputeExpo.
func (r *Receiver) Demands() receiver.Demands {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.demands
}

// LastHeadingOffset returns the offset passed to the last ComputeExpo.
func (r *Receiver) LastHeadingOffset() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastOffset
}

// Inits returns how many times Init ran.
func (r *Receiver) Inits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inits
}

// Refreshes returns how many times Refresh ran.
func (r *Receiver) Refreshes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshes
}
