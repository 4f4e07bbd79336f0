// Package fake implements a mixer that records motor commands instead of
// driving hardware.
package fake

import (
	"context"
	"sync"

	"github.com/openrotor/flightcore/mixer"
	"github.com/openrotor/flightcore/stabilize"
)

var _ mixer.Mixer = (*Mixer)(nil)

// Call names recorded by the fake, in the order the loop issued them.
const (
	CallDisarmed = "disarmed"
	CallArmed    = "armed"
	CallCut      = "cut"
)

// Mixer records every motor command it receives so tests can assert both
// counts and ordering.
type Mixer struct {
	Name string

	mu              sync.Mutex
	inits           int
	calls           []string
	lastThrottle    float64
	lastCorrections stabilize.Corrections
}

// NewMixer returns a recording fake mixer.
func NewMixer(name string) *Mixer {
	return &Mixer{Name: name}
}

// Init counts the initialization and succeeds.
func (m *Mixer) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inits++
	return nil
}

// RunDisarmed records the disarmed idle pattern.
func (m *Mixer) RunDisarmed(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, CallDisarmed)
	return nil
}

// RunArmed records an armed run with its throttle and corrections.
func (m *Mixer) RunArmed(ctx context.Context, throttle float64, c stabilize.Corrections) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, CallArmed)
	m.lastThrottle = throttle
	m.lastCorrections = c
	return nil
}

// CutMotors records a cut.
func (m *Mixer) CutMotors(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, CallCut)
	return nil
}

// Inits returns how many times Init ran.
func (m *Mixer) Inits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inits
}

// Calls returns the ordered motor commands received so far.
func (m *Mixer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent motor command, or "" if none.
func (m *Mixer) LastCall() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

// LastThrottle returns the throttle from the most recent RunArmed.
func (m *Mixer) LastThrottle() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastThrottle
}

// LastCorrections returns the corrections from the most recent RunArmed.
func (m *Mixer) LastCorrections() stabilize.Corrections {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCorrections
}
