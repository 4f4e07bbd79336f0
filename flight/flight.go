// Package flight implements the fixed-rate orchestration loop at the heart of
// the firmware: a slow loop that responds to pilot demands, a fast loop that
// stabilizes and spins the motors, and periodic arming-safety and failsafe
// checks, all paced off a single time sample per tick.
package flight

import (
	"context"
	"math"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/openrotor/flightcore/altitude"
	"github.com/openrotor/flightcore/attitude"
	"github.com/openrotor/flightcore/board"
	"github.com/openrotor/flightcore/imu"
	"github.com/openrotor/flightcore/mixer"
	"github.com/openrotor/flightcore/receiver"
	"github.com/openrotor/flightcore/stabilize"
	"github.com/openrotor/flightcore/telemetry"
	"github.com/openrotor/flightcore/timing"
)

// State is the loop's mutable flight state. Tick mutates it; the Controller's
// State method returns a copy for inspection.
type State struct {
	// Armed reports whether the motors respond to demands.
	Armed bool
	// Failsafe latches true when the link drops while armed. It blocks
	// re-arming until the next Init.
	Failsafe bool
	// SafeToArm tracks the periodic near-level angle check.
	SafeToArm bool
	// AuxState is the stored auxiliary switch position.
	AuxState receiver.AuxState
	// YawInitial is the heading captured at arming, the reference for
	// heading-relative control.
	YawInitial float64
	// LastEuler is the most recent fast-loop orientation sample, heading
	// normalized to [0,2*pi).
	LastEuler attitude.EulerAngles
}

// Controller owns the loop. It is single-threaded: Init, Tick, Run, and Close
// must all be called from the same goroutine.
type Controller struct {
	cfg    Config
	logger golog.Logger

	board     board.Board
	rx        receiver.Receiver
	est       *imu.Estimator
	stab      stabilize.Stabilizer
	mix       mixer.Mixer
	alti      altitude.Hold
	telemetry telemetry.Reporter

	innerTask      *timing.Task
	outerTask      *timing.Task
	altitudeTask   *timing.Task
	angleCheckTask *timing.Task

	state       State
	initialized bool
}

// NewController wires a loop around the given collaborators. Init must run
// before the first Tick.
func NewController(cfg Config, deps Deps, logger golog.Logger) (*Controller, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := deps.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:       cfg,
		logger:    logger,
		board:     deps.Board,
		rx:        deps.Receiver,
		est:       deps.Estimator,
		stab:      deps.Stabilizer,
		mix:       deps.Mixer,
		alti:      deps.Altitude,
		telemetry: deps.Telemetry,
	}

	var err error
	if c.innerTask, err = timing.NewTask(cfg.InnerInterval); err != nil {
		return nil, err
	}
	if c.outerTask, err = timing.NewTask(cfg.OuterInterval); err != nil {
		return nil, err
	}
	if c.altitudeTask, err = timing.NewTask(cfg.AltitudeInterval); err != nil {
		return nil, err
	}
	if c.angleCheckTask, err = timing.NewTask(cfg.AngleCheckInterval); err != nil {
		return nil, err
	}
	return c, nil
}

// State returns a copy of the current flight state.
func (c *Controller) State() State {
	return c.state
}

// Init runs the bring-up sequence: orientation sensing start, the visual
// startup indication, a settle pause for the IMU, gate reset, and
// collaborator initialization. It leaves the loop disarmed with the failsafe
// latch clear.
func (c *Controller) Init(ctx context.Context) error {
	if err := c.est.Init(ctx); err != nil {
		return errors.Wrap(err, "initializing imu")
	}

	if err := c.flashLED(ctx); err != nil {
		return err
	}

	// Let the IMU settle before the gates anchor.
	c.board.Delay(ctx, c.cfg.StartupSettle)

	c.innerTask.Reset()
	c.outerTask.Reset()
	c.angleCheckTask.Reset()

	if err := c.rx.Init(ctx); err != nil {
		return errors.Wrap(err, "initializing receiver")
	}
	if err := c.stab.Init(ctx); err != nil {
		return errors.Wrap(err, "initializing stabilizer")
	}
	if err := c.mix.Init(ctx); err != nil {
		return errors.Wrap(err, "initializing mixer")
	}
	if err := c.telemetry.Init(ctx); err != nil {
		return errors.Wrap(err, "initializing telemetry")
	}

	c.altitudeTask.Reset()
	if err := c.alti.Init(ctx); err != nil {
		return errors.Wrap(err, "initializing altitude hold")
	}

	// Start unarmed with the failsafe latch clear.
	c.state = State{}
	c.initialized = true
	c.logger.Infow("flight controller initialized",
		"inner_interval", c.cfg.InnerInterval,
		"outer_interval", c.cfg.OuterInterval,
	)
	return nil
}

// flashLED blinks the status LED to signal startup: LEDFlashCount flashes
// spread over twice LEDFlashPeriod, ending dark.
func (c *Controller) flashLED(ctx context.Context) error {
	pause := c.cfg.LEDFlashPeriod / time.Duration(c.cfg.LEDFlashCount)
	if err := c.board.SetStatusLED(ctx, false); err != nil {
		return errors.Wrap(err, "status led")
	}
	for i := 0; i < c.cfg.LEDFlashCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.board.SetStatusLED(ctx, true); err != nil {
			return errors.Wrap(err, "status led")
		}
		c.board.Delay(ctx, pause)
		if err := c.board.SetStatusLED(ctx, false); err != nil {
			return errors.Wrap(err, "status led")
		}
		c.board.Delay(ctx, pause)
	}
	return c.board.SetStatusLED(ctx, false)
}

// Tick runs one pass of the loop. It samples the clock once and lets each
// gate decide from that sample; anomalies in collaborators are logged and
// become state, never loop aborts. The returned error is non-nil only when
// the controller is unusable (uninitialized or ctx done).
func (c *Controller) Tick(ctx context.Context) error {
	if !c.initialized {
		return errors.New("flight controller not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := c.board.Now()

	// Slow loop: respond to receiver demands. The altitude-hold calculation
	// never shares an iteration with it.
	if c.outerTask.CheckAndUpdate(now) {
		c.outer(ctx)
	} else if c.altitudeTask.CheckAndUpdate(now) {
		if err := c.alti.ComputePID(ctx, c.state.Armed); err != nil {
			c.logger.Errorw("altitude hold calculation failed", "error", err)
		}
	}

	// Fast loop: stabilize, spin motors.
	if c.innerTask.CheckAndUpdate(now) {
		c.inner(ctx, now)
	}

	// Periodically check roll and pitch for arming readiness.
	if c.angleCheckTask.Ready(now) {
		c.checkAngle()
	}

	// Losing the link while armed cuts the motors before latching failsafe.
	if c.state.Armed && c.rx.LostSignal() {
		if err := c.mix.CutMotors(ctx); err != nil {
			c.logger.Errorw("cutting motors failed", "error", err)
		}
		c.state.Armed = false
		c.state.Failsafe = true
		if err := c.board.SetStatusLED(ctx, false); err != nil {
			c.logger.Errorw("status led update failed", "error", err)
		}
		c.logger.Warnw("signal lost; failsafe latched")
	}

	return nil
}

// outer handles one slow-loop pass: refresh the receiver, manage arming, and
// route auxiliary switch changes.
func (c *Controller) outer(ctx context.Context) {
	if err := c.rx.Refresh(ctx); err != nil {
		c.logger.Errorw("receiver refresh failed", "error", err)
	}

	// When landed, keep integral state from winding up.
	if c.rx.ThrottleIsDown() {
		c.stab.ResetIntegral()
	}

	if c.rx.Changed() {
		switch {
		case c.state.Armed:
			if c.rx.Disarming() {
				c.state.Armed = false
				c.logger.Infow("disarmed")
			}
		case c.rx.Arming() && !c.state.Failsafe && c.state.SafeToArm:
			// The stored aux position refreshes here even when a non-neutral
			// switch blocks the arm.
			c.state.AuxState = c.rx.AuxState()
			if c.state.AuxState == receiver.AuxNeutral {
				c.state.YawInitial = c.state.LastEuler.Yaw
				c.state.Armed = true
				c.logger.Infow("armed", "yaw_initial", c.state.YawInitial)
			}
		}
	}

	// Auxiliary switch moves drive altitude hold.
	if aux := c.rx.AuxState(); aux != c.state.AuxState {
		c.state.AuxState = aux
		throttle := c.rx.Demands()[receiver.DemandThrottle]
		if err := c.alti.HandleAuxSwitch(ctx, aux, throttle); err != nil {
			c.logger.Errorw("aux switch handling failed", "error", err)
		}
	}
}

// inner handles one fast-loop pass: shape demands, take the tick's IMU
// sample, fuse and adjust for altitude hold, stabilize, and drive the motors.
func (c *Controller) inner(ctx context.Context, now time.Time) {
	// Shape stick demands, offsetting by the heading captured at arming for
	// heading-relative control. This uses the previous sample's heading; the
	// fresh one lands below.
	c.rx.ComputeExpo(c.state.LastEuler.Yaw - c.state.YawInitial)

	if err := c.est.Update(ctx, now, c.state.Armed); err != nil {
		c.logger.Errorw("imu update failed", "error", err)
		return
	}
	euler, gyro, err := c.board.ReadIMU(ctx)
	if err != nil {
		c.logger.Errorw("imu read failed", "error", err)
		return
	}

	// Heading moves from [-pi,pi] to [0,2*pi).
	if euler.Yaw < 0 {
		euler.Yaw += 2 * math.Pi
	}
	c.state.LastEuler = euler

	if err := c.board.SetStatusLED(ctx, c.state.Armed); err != nil {
		c.logger.Errorw("status led update failed", "error", err)
	}

	if err := c.alti.FuseWithIMU(ctx, euler, c.state.Armed); err != nil {
		c.logger.Errorw("altitude fusion failed", "error", err)
	}

	demands := c.rx.Demands()
	throttle, err := c.alti.AdjustThrottle(ctx, demands[receiver.DemandThrottle])
	if err != nil {
		c.logger.Errorw("altitude throttle adjustment failed", "error", err)
		throttle = demands[receiver.DemandThrottle]
	}
	demands[receiver.DemandThrottle] = throttle

	corrections, err := c.stab.Update(ctx, demands, euler, gyro)
	if err != nil {
		c.logger.Errorw("stabilizer update failed", "error", err)
	}

	// Exactly one motor action per pass: idle while disarmed, spin while
	// armed and flying, cut on failsafe or throttle-down.
	switch {
	case !c.state.Armed:
		err = c.mix.RunDisarmed(ctx)
	case !c.state.Failsafe && !c.rx.ThrottleIsDown():
		err = c.mix.RunArmed(ctx, demands[receiver.DemandThrottle], corrections)
	default:
		err = c.mix.CutMotors(ctx)
	}
	if err != nil {
		c.logger.Errorw("mixer update failed", "error", err)
	}

	if err := c.telemetry.Update(ctx, euler, c.state.Armed); err != nil {
		c.logger.Errorw("telemetry update failed", "error", err)
	}
}

// checkAngle peeks at the cached orientation and records whether the frame is
// level enough to arm. It never triggers a fresh IMU read.
func (c *Controller) checkAngle() {
	max := c.stab.MaxArmingAngle()
	c.state.SafeToArm = math.Abs(c.state.LastEuler.Roll) < max &&
		math.Abs(c.state.LastEuler.Pitch) < max
}

// Run ticks the loop until ctx is done, pausing PollInterval between passes.
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Tick(ctx); err != nil {
			return err
		}
		c.board.Delay(ctx, c.cfg.PollInterval)
	}
}

// Close releases every collaborator that supports closing.
func (c *Controller) Close(ctx context.Context) error {
	return multierr.Combine(
		goutils.TryClose(ctx, c.telemetry),
		goutils.TryClose(ctx, c.alti),
		goutils.TryClose(ctx, c.mix),
		goutils.TryClose(ctx, c.stab),
		goutils.TryClose(ctx, c.rx),
		goutils.TryClose(ctx, c.board),
	)
}
