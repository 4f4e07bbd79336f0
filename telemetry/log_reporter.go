package telemetry

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"github.com/openrotor/flightcore/attitude"
	"github.com/openrotor/flightcore/timing"
	"github.com/openrotor/flightcore/utils"
)

var _ Reporter = (*LogReporter)(nil)

// LogReporter writes attitude and arm state to a logger. The fast loop pushes
// at a few hundred hertz, so the reporter runs its own due-time gate and
// drops updates between deadlines.
type LogReporter struct {
	logger golog.Logger
	clock  clock.Clock
	gate   *timing.Task
	armed  bool
	seen   bool
}

// NewLogReporter returns a reporter emitting at most one line per interval.
// Passing a nil clock uses the wall clock.
func NewLogReporter(logger golog.Logger, interval time.Duration, c clock.Clock) (*LogReporter, error) {
	gate, err := timing.NewTask(interval)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = clock.New()
	}
	return &LogReporter{logger: logger, clock: c, gate: gate}, nil
}

// Init logs that reporting is live.
func (r *LogReporter) Init(ctx context.Context) error {
	r.logger.Debug("telemetry reporting started")
	return nil
}

// Update logs the attitude when the gate is due. Arm state transitions are
// always logged, whether or not the gate fires.
func (r *LogReporter) Update(ctx context.Context, euler attitude.EulerAngles, armed bool) error {
	if !r.seen || armed != r.armed {
		r.seen = true
		r.armed = armed
		r.logger.Infow("arm state", "armed", armed)
	}
	if !r.gate.Ready(r.clock.Now()) {
		return nil
	}
	r.logger.Infow("attitude",
		"roll_deg", utils.RadToDeg(euler.Roll),
		"pitch_deg", utils.RadToDeg(euler.Pitch),
		"yaw_deg", utils.RadToDeg(euler.Yaw),
		"armed", armed,
	)
	return nil
}
