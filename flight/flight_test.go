package flight_test

import (
	"context"
	"math"
	"testing"
	"time"

	clk "github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	fakealtitude "github.com/openrotor/flightcore/altitude/fake"
	"github.com/openrotor/flightcore/attitude"
	"github.com/openrotor/flightcore/board"
	fakeboard "github.com/openrotor/flightcore/board/fake"
	"github.com/openrotor/flightcore/flight"
	"github.com/openrotor/flightcore/imu"
	fakemixer "github.com/openrotor/flightcore/mixer/fake"
	"github.com/openrotor/flightcore/receiver"
	fakereceiver "github.com/openrotor/flightcore/receiver/fake"
	"github.com/openrotor/flightcore/stabilize"
	"github.com/openrotor/flightcore/telemetry"
	"github.com/openrotor/flightcore/testutils/inject"
	"github.com/openrotor/flightcore/utils"
)

// rig wires a controller around fakes with a mocked clock so tests can walk
// the loop tick by tick.
type rig struct {
	clock *clk.Mock
	board *fakeboard.Board
	rx    *fakereceiver.Receiver
	est   *imu.Estimator
	mix   *fakemixer.Mixer
	hold  *fakealtitude.Hold
	ctrl  *flight.Controller

	teleUpdates int
	teleArmed   bool
}

// newRig assembles a rig. A non-nil wrap intercepts the fake board, letting a
// test inject failures while the fake keeps time and state working.
func newRig(t *testing.T, logger golog.Logger, wrap func(board.Board) board.Board) *rig {
	t.Helper()
	r := &rig{clock: clk.NewMock()}
	r.board = fakeboard.NewBoard("flight", r.clock)
	var brd board.Board = r.board
	if wrap != nil {
		brd = wrap(r.board)
	}
	r.rx = fakereceiver.NewReceiver("flight")
	r.mix = fakemixer.NewMixer("flight")
	r.hold = fakealtitude.NewHold("flight")

	var err error
	r.est, err = imu.NewEstimator(imu.Config{}, brd, logger)
	test.That(t, err, test.ShouldBeNil)
	stab, err := stabilize.NewCascade(stabilize.Config{}, logger)
	test.That(t, err, test.ShouldBeNil)

	tele := &inject.TelemetryReporter{
		InitFunc: func(ctx context.Context) error { return nil },
		UpdateFunc: func(ctx context.Context, euler attitude.EulerAngles, armed bool) error {
			r.teleUpdates++
			r.teleArmed = armed
			return nil
		},
	}

	r.ctrl, err = flight.NewController(flight.Config{}, flight.Deps{
		Board:      brd,
		Receiver:   r.rx,
		Estimator:  r.est,
		Stabilizer: stab,
		Mixer:      r.mix,
		Altitude:   r.hold,
		Telemetry:  tele,
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	return r
}

func (r *rig) init(t *testing.T) {
	t.Helper()
	test.That(t, r.ctrl.Init(context.Background()), test.ShouldBeNil)
}

func (r *rig) tick(t *testing.T) {
	t.Helper()
	test.That(t, r.ctrl.Tick(context.Background()), test.ShouldBeNil)
}

// tickAfter advances the mocked clock and runs one tick.
func (r *rig) tickAfter(t *testing.T, d time.Duration) {
	t.Helper()
	r.clock.Add(d)
	r.tick(t)
}

// arm walks the rig through init, a first tick to pass the angle check, and
// an arming gesture on the next outer pass.
func (r *rig) arm(t *testing.T) {
	t.Helper()
	r.init(t)
	r.tick(t)
	test.That(t, r.ctrl.State().SafeToArm, test.ShouldBeTrue)

	r.rx.Script(fakereceiver.Step{Changed: true, Arming: true}, fakereceiver.Step{})
	r.tickAfter(t, 10*time.Millisecond)
	test.That(t, r.ctrl.State().Armed, test.ShouldBeTrue)
}

func TestNewControllerValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)

	_, err := flight.NewController(flight.Config{}, flight.Deps{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "board is required")

	deps := flight.Deps{
		Board: r.board, Receiver: r.rx, Estimator: r.est,
		Mixer: r.mix, Altitude: r.hold,
	}
	_, err = flight.NewController(flight.Config{}, deps, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "stabilizer is required")

	_, err = flight.NewController(flight.Config{OuterInterval: -time.Millisecond}, flight.Deps{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "outer interval")
}

func TestInit(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)
	start := r.clock.Now()
	r.init(t)

	test.That(t, r.board.IMUInits(), test.ShouldEqual, 1)
	test.That(t, r.rx.Inits(), test.ShouldEqual, 1)
	test.That(t, r.mix.Inits(), test.ShouldEqual, 1)
	test.That(t, r.hold.Inits(), test.ShouldEqual, 1)

	// Twenty flashes, each with an on and an off phase, end dark.
	test.That(t, r.board.LEDTransitions(), test.ShouldEqual, 40)
	test.That(t, r.board.LEDOn(), test.ShouldBeFalse)

	// The flash sequence spans twice its period, then the IMU settle pause.
	elapsed := r.clock.Now().Sub(start)
	test.That(t, elapsed, test.ShouldEqual, 2*time.Second+100*time.Millisecond)

	st := r.ctrl.State()
	test.That(t, st.Armed, test.ShouldBeFalse)
	test.That(t, st.Failsafe, test.ShouldBeFalse)
	test.That(t, st.SafeToArm, test.ShouldBeFalse)
}

func TestTickRequiresInit(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)
	err := r.ctrl.Tick(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not initialized")
}

func TestTickCadence(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)
	r.init(t)

	// Ticks at 0, 5, 10, 15, and 25ms against a 10ms outer gate: the outer
	// pass runs at 0, 10, and 25. The altitude calculation only gets a turn
	// on ticks where the outer pass does not run.
	r.tick(t)
	test.That(t, r.rx.Refreshes(), test.ShouldEqual, 1)
	test.That(t, r.hold.PIDRuns(), test.ShouldEqual, 0)

	r.tickAfter(t, 5*time.Millisecond)
	test.That(t, r.rx.Refreshes(), test.ShouldEqual, 1)
	test.That(t, r.hold.PIDRuns(), test.ShouldEqual, 1)

	r.tickAfter(t, 5*time.Millisecond)
	test.That(t, r.rx.Refreshes(), test.ShouldEqual, 2)
	test.That(t, r.hold.PIDRuns(), test.ShouldEqual, 1)

	r.tickAfter(t, 5*time.Millisecond)
	test.That(t, r.rx.Refreshes(), test.ShouldEqual, 2)
	test.That(t, r.hold.PIDRuns(), test.ShouldEqual, 1)

	r.tickAfter(t, 10*time.Millisecond)
	test.That(t, r.rx.Refreshes(), test.ShouldEqual, 3)
	test.That(t, r.hold.PIDRuns(), test.ShouldEqual, 1)

	// The fast loop ran on every tick, driving one motor command and one
	// telemetry update each.
	test.That(t, len(r.mix.Calls()), test.ShouldEqual, 5)
	test.That(t, r.teleUpdates, test.ShouldEqual, 5)

	// Disarmed throughout, so every motor command was the idle pattern.
	for _, call := range r.mix.Calls() {
		test.That(t, call, test.ShouldEqual, fakemixer.CallDisarmed)
	}
}

func TestArmDisarm(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)
	r.board.SetOrientation(attitude.EulerAngles{Yaw: math.Pi / 2})
	r.arm(t)

	// Arming captured the heading as the reference for heading-relative
	// control.
	test.That(t, r.ctrl.State().YawInitial, test.ShouldAlmostEqual, math.Pi/2, 1e-9)

	// Armed with the throttle still down, the motors stay cut.
	test.That(t, r.mix.LastCall(), test.ShouldEqual, fakemixer.CallCut)
	test.That(t, r.board.LEDOn(), test.ShouldBeTrue)
	test.That(t, r.teleArmed, test.ShouldBeTrue)

	// Raising the throttle spins them.
	r.rx.SetPulses([4]uint16{1500, 1500, 1500, 1500})
	r.tickAfter(t, 10*time.Millisecond)
	test.That(t, r.mix.LastCall(), test.ShouldEqual, fakemixer.CallArmed)
	test.That(t, r.mix.LastThrottle(), test.ShouldAlmostEqual, 0.5)

	// The disarm gesture brings everything back down.
	r.rx.Script(fakereceiver.Step{Changed: true, Disarming: true}, fakereceiver.Step{})
	r.tickAfter(t, 10*time.Millisecond)
	test.That(t, r.ctrl.State().Armed, test.ShouldBeFalse)
	test.That(t, r.mix.LastCall(), test.ShouldEqual, fakemixer.CallDisarmed)
	test.That(t, r.board.LEDOn(), test.ShouldBeFalse)
}

func TestArmBlockedByAngle(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)

	// Tipped past the arming limit before the loop starts.
	r.board.SetOrientation(attitude.EulerAngles{Roll: utils.DegToRad(30)})
	r.init(t)
	r.tick(t)
	test.That(t, r.ctrl.State().SafeToArm, test.ShouldBeFalse)

	r.rx.Script(fakereceiver.Step{Changed: true, Arming: true}, fakereceiver.Step{})
	r.tickAfter(t, 10*time.Millisecond)
	test.That(t, r.ctrl.State().Armed, test.ShouldBeFalse)
}

func TestArmBlockedByAuxSwitch(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)
	r.init(t)
	r.tick(t)
	test.That(t, r.ctrl.State().SafeToArm, test.ShouldBeTrue)

	// A non-neutral switch blocks the arm but still refreshes the stored
	// switch position, so no spurious transition fires afterward.
	r.rx.Script(fakereceiver.Step{Changed: true, Arming: true, Aux: 1})
	r.tickAfter(t, 10*time.Millisecond)
	st := r.ctrl.State()
	test.That(t, st.Armed, test.ShouldBeFalse)
	test.That(t, st.AuxState, test.ShouldEqual, receiver.AuxState(1))
	test.That(t, len(r.hold.AuxCalls()), test.ShouldEqual, 0)
}

func TestFailsafe(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)
	r.arm(t)
	callsBefore := len(r.mix.Calls())

	// The link drops between gate deadlines; the failsafe check still runs.
	r.rx.SetLostSignal(true)
	r.tickAfter(t, time.Millisecond)

	st := r.ctrl.State()
	test.That(t, st.Armed, test.ShouldBeFalse)
	test.That(t, st.Failsafe, test.ShouldBeTrue)
	test.That(t, r.board.LEDOn(), test.ShouldBeFalse)

	// The motors were cut on the same tick.
	calls := r.mix.Calls()
	test.That(t, len(calls), test.ShouldBeGreaterThan, callsBefore)
	test.That(t, calls[len(calls)-1], test.ShouldEqual, fakemixer.CallCut)

	// The latch blocks re-arming even with a healthy link and good angles.
	r.rx.SetLostSignal(false)
	r.rx.Script(fakereceiver.Step{Changed: true, Arming: true}, fakereceiver.Step{})
	r.tickAfter(t, 10*time.Millisecond)
	test.That(t, r.ctrl.State().Armed, test.ShouldBeFalse)
	test.That(t, r.ctrl.State().Failsafe, test.ShouldBeTrue)

	// Disarmed with the latch set, the fast loop idles rather than cutting.
	test.That(t, r.mix.LastCall(), test.ShouldEqual, fakemixer.CallDisarmed)

	// Only a fresh bring-up clears the latch.
	r.init(t)
	test.That(t, r.ctrl.State().Failsafe, test.ShouldBeFalse)
}

func TestThrottleDownResetsIntegral(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)

	var resets int
	stab := &inject.Stabilizer{
		InitFunc:          func(ctx context.Context) error { return nil },
		ResetIntegralFunc: func() { resets++ },
		UpdateFunc: func(ctx context.Context, demands receiver.Demands, orient attitude.EulerAngles,
			gyro attitude.AngularVelocity,
		) (stabilize.Corrections, error) {
			return stabilize.Corrections{}, nil
		},
		MaxArmingAngleFunc: func() float64 { return utils.DegToRad(25) },
	}
	tele := &inject.TelemetryReporter{
		InitFunc:   func(ctx context.Context) error { return nil },
		UpdateFunc: func(ctx context.Context, euler attitude.EulerAngles, armed bool) error { return nil },
	}
	ctrl, err := flight.NewController(flight.Config{}, flight.Deps{
		Board:      r.board,
		Receiver:   r.rx,
		Estimator:  r.est,
		Stabilizer: stab,
		Mixer:      r.mix,
		Altitude:   r.hold,
		Telemetry:  tele,
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ctrl.Init(context.Background()), test.ShouldBeNil)

	// Throttle starts down: every outer pass resets integral state.
	test.That(t, ctrl.Tick(context.Background()), test.ShouldBeNil)
	test.That(t, resets, test.ShouldEqual, 1)
	r.clock.Add(10 * time.Millisecond)
	test.That(t, ctrl.Tick(context.Background()), test.ShouldBeNil)
	test.That(t, resets, test.ShouldEqual, 2)

	// Raised throttle stops the resets.
	r.rx.SetPulses([4]uint16{1500, 1500, 1500, 1500})
	r.clock.Add(10 * time.Millisecond)
	test.That(t, ctrl.Tick(context.Background()), test.ShouldBeNil)
	test.That(t, resets, test.ShouldEqual, 2)
}

func TestAuxSwitchRouting(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)
	r.init(t)
	r.tick(t)

	// The switch moves without any stick change; the transition routes to
	// altitude hold with the current throttle demand.
	r.rx.Script(fakereceiver.Step{Aux: 2})
	r.tickAfter(t, 10*time.Millisecond)
	test.That(t, r.hold.AuxCalls(), test.ShouldResemble, []receiver.AuxState{2})
	test.That(t, r.ctrl.State().AuxState, test.ShouldEqual, receiver.AuxState(2))

	// Holding the same position fires nothing further.
	r.tickAfter(t, 10*time.Millisecond)
	test.That(t, len(r.hold.AuxCalls()), test.ShouldEqual, 1)

	// Moving back fires the release.
	r.rx.Script(fakereceiver.Step{Aux: 0})
	r.tickAfter(t, 10*time.Millisecond)
	test.That(t, r.hold.AuxCalls(), test.ShouldResemble, []receiver.AuxState{2, 0})
}

func TestAltitudeThrottleAdjustment(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)
	r.arm(t)

	r.rx.SetPulses([4]uint16{1500, 1500, 1500, 1500})
	r.hold.SetThrottleOverride(0.77)
	r.tickAfter(t, 10*time.Millisecond)

	// The mixer sees the adjusted throttle, not the pilot demand.
	test.That(t, r.mix.LastCall(), test.ShouldEqual, fakemixer.CallArmed)
	test.That(t, r.mix.LastThrottle(), test.ShouldAlmostEqual, 0.77)
}

func TestHeadingNormalizationAndOffset(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)
	r.board.SetOrientation(attitude.EulerAngles{Yaw: math.Pi / 2})
	r.arm(t)

	// A westward heading reads back normalized into [0,2*pi).
	r.board.SetOrientation(attitude.EulerAngles{Yaw: -math.Pi / 2})
	r.tickAfter(t, 10*time.Millisecond)
	test.That(t, r.ctrl.State().LastEuler.Yaw, test.ShouldAlmostEqual, 3*math.Pi/2, 1e-9)

	// Demand shaping sees the heading from the previous sample, offset by
	// the heading captured at arming.
	r.tickAfter(t, 10*time.Millisecond)
	test.That(t, r.rx.LastHeadingOffset(), test.ShouldAlmostEqual, math.Pi, 1e-9)
}

func TestInnerSampleFlow(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)
	r.board.SetOrientation(attitude.EulerAngles{Roll: math.Pi / 4})
	r.init(t)
	r.tick(t)

	// One fast-loop pass moves the same sample through the estimator, the
	// cached state, and altitude fusion.
	test.That(t, r.est.Attitude().Roll, test.ShouldEqual, int32(450))
	test.That(t, r.ctrl.State().LastEuler.Roll, test.ShouldAlmostEqual, math.Pi/4, 1e-9)
	test.That(t, r.hold.Fusions(), test.ShouldEqual, 1)
	test.That(t, r.hold.LastFused().Roll, test.ShouldAlmostEqual, math.Pi/4, 1e-9)
	test.That(t, r.board.IMURefreshes(), test.ShouldEqual, 1)
}

func TestCollaboratorErrorsKeepLoopRunning(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)
	var brd *inject.Board
	r := newRig(t, logger, func(b board.Board) board.Board {
		brd = &inject.Board{Board: b}
		return brd
	})
	r.init(t)

	// A failing IMU refresh skips the fast-loop pass but not the loop.
	brd.RefreshIMUFunc = func(ctx context.Context, now time.Time, armed bool) error {
		return errors.New("bus stall")
	}
	r.tick(t)
	test.That(t, len(r.mix.Calls()), test.ShouldEqual, 0)
	test.That(t, len(logs.FilterMessageSnippet("imu update failed").All()), test.ShouldEqual, 1)

	// With the refresh healthy again, the next due pass runs normally.
	brd.RefreshIMUFunc = nil
	r.tickAfter(t, 5*time.Millisecond)
	test.That(t, len(r.mix.Calls()), test.ShouldEqual, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, nil)
	r.init(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.ctrl.Run(ctx)
	}()

	// The mocked clock advances through Run's poll pauses, so the loop makes
	// progress without wall time passing.
	for i := 0; i < 200 && len(r.mix.Calls()) < 3; i++ {
		time.Sleep(time.Millisecond)
	}
	cancel()
	test.That(t, <-errCh, test.ShouldBeError, context.Canceled)
	test.That(t, len(r.mix.Calls()), test.ShouldBeGreaterThanOrEqualTo, 3)
}

func TestClose(t *testing.T) {
	logger := golog.NewTestLogger(t)
	var closed int
	r := newRig(t, logger, func(b board.Board) board.Board {
		return &inject.Board{
			Board:     b,
			CloseFunc: func(ctx context.Context) error { closed++; return nil },
		}
	})
	r.init(t)
	test.That(t, r.ctrl.Close(context.Background()), test.ShouldBeNil)
	test.That(t, closed, test.ShouldEqual, 1)
}

func TestInitPropagatesFailures(t *testing.T) {
	logger := golog.NewTestLogger(t)
	r := newRig(t, logger, func(b board.Board) board.Board {
		return &inject.Board{
			Board:       b,
			InitIMUFunc: func(ctx context.Context) error { return errors.New("no response") },
		}
	})
	err := r.ctrl.Init(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "initializing imu")
	test.That(t, err.Error(), test.ShouldContainSubstring, "no response")
}

// A LogReporter on an observed logger shows the telemetry wiring end to end.
func TestTelemetryThroughLogReporter(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)
	mock := clk.NewMock()
	fb := fakeboard.NewBoard("flight", mock)
	rx := fakereceiver.NewReceiver("flight")
	est, err := imu.NewEstimator(imu.Config{}, fb, logger)
	test.That(t, err, test.ShouldBeNil)
	stab, err := stabilize.NewCascade(stabilize.Config{}, logger)
	test.That(t, err, test.ShouldBeNil)
	reporter, err := telemetry.NewLogReporter(logger, 50*time.Millisecond, mock)
	test.That(t, err, test.ShouldBeNil)

	ctrl, err := flight.NewController(flight.Config{}, flight.Deps{
		Board:      fb,
		Receiver:   rx,
		Estimator:  est,
		Stabilizer: stab,
		Mixer:      fakemixer.NewMixer("flight"),
		Altitude:   fakealtitude.NewHold("flight"),
		Telemetry:  reporter,
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ctrl.Init(context.Background()), test.ShouldBeNil)

	fb.SetOrientation(attitude.EulerAngles{Roll: utils.DegToRad(10)})
	for i := 0; i < 5; i++ {
		mock.Add(10 * time.Millisecond)
		test.That(t, ctrl.Tick(context.Background()), test.ShouldBeNil)
	}
	test.That(t, len(logs.FilterMessageSnippet("attitude").All()), test.ShouldBeGreaterThanOrEqualTo, 1)
}
