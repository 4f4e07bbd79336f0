// Package main flies a scripted hover profile against the real flight loop,
// with the board, receiver, motors, and altitude hold all faked and the clock
// mocked so the whole flight runs in an instant.
package main

import (
	"context"
	"math"
	"time"

	clk "github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	fakealtitude "github.com/openrotor/flightcore/altitude/fake"
	"github.com/openrotor/flightcore/attitude"
	fakeboard "github.com/openrotor/flightcore/board/fake"
	"github.com/openrotor/flightcore/config"
	"github.com/openrotor/flightcore/flight"
	"github.com/openrotor/flightcore/imu"
	fakemixer "github.com/openrotor/flightcore/mixer/fake"
	fakereceiver "github.com/openrotor/flightcore/receiver/fake"
	"github.com/openrotor/flightcore/stabilize"
	"github.com/openrotor/flightcore/telemetry"
)

var logger = golog.NewDevelopmentLogger("hoversim")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Config  string `flag:"config,usage=flight config file"`
	Seconds int    `flag:"seconds,usage=simulated flight seconds"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Seconds == 0 {
		argsParsed.Seconds = 6
	}

	var cfg config.Config
	if argsParsed.Config != "" {
		read, err := config.Read(argsParsed.Config, logger)
		if err != nil {
			return err
		}
		cfg = *read
	}

	return runSim(ctx, cfg, argsParsed.Seconds, logger)
}

func runSim(ctx context.Context, cfg config.Config, seconds int, logger golog.Logger) (err error) {
	mock := clk.NewMock()
	brd := fakeboard.NewBoard("hoversim", mock)
	rx := fakereceiver.NewReceiver("hoversim")
	mix := fakemixer.NewMixer("hoversim")
	hold := fakealtitude.NewHold("hoversim")

	est, err := imu.NewEstimator(cfg.IMU, brd, logger)
	if err != nil {
		return err
	}
	stab, err := stabilize.NewCascade(cfg.Stabilize, logger)
	if err != nil {
		return err
	}
	reporter, err := telemetry.NewLogReporter(logger, 250*time.Millisecond, mock)
	if err != nil {
		return err
	}

	ctrl, err := flight.NewController(cfg.Loop.FlightConfig(), flight.Deps{
		Board:      brd,
		Receiver:   rx,
		Estimator:  est,
		Stabilizer: stab,
		Mixer:      mix,
		Altitude:   hold,
		Telemetry:  reporter,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, ctrl.Close(ctx))
	}()

	if err := ctrl.Init(ctx); err != nil {
		return err
	}
	start := mock.Now()

	// The flight script, relative to the end of startup.
	events := []struct {
		at time.Duration
		do func()
	}{
		{100 * time.Millisecond, func() {
			rx.Script(fakereceiver.Step{Changed: true, Arming: true}, fakereceiver.Step{})
		}},
		{500 * time.Millisecond, func() {
			rx.SetPulses([4]uint16{1600, 1500, 1500, 1500})
		}},
		{3 * time.Second, func() {
			rx.Script(fakereceiver.Step{Aux: 1})
			hold.SetThrottleOverride(0.58)
		}},
		{4500 * time.Millisecond, func() {
			rx.Script(fakereceiver.Step{Aux: 0})
			hold.ClearThrottleOverride()
		}},
		{5 * time.Second, func() {
			rx.SetLostSignal(true)
		}},
	}

	total := time.Duration(seconds) * time.Second
	next := 0
	for elapsed := time.Duration(0); elapsed < total; elapsed = mock.Now().Sub(start) {
		if err := ctx.Err(); err != nil {
			return err
		}
		for next < len(events) && elapsed >= events[next].at {
			events[next].do()
			next++
		}

		// A gentle wobble so the stabilizer has something to chase.
		phase := elapsed.Seconds() * 2 * math.Pi / 2
		brd.SetOrientation(attitude.EulerAngles{
			Roll:  0.04 * math.Sin(phase),
			Pitch: 0.03 * math.Cos(phase),
			Yaw:   0.1 * elapsed.Seconds() / float64(seconds),
		})

		if err := ctrl.Tick(ctx); err != nil {
			return err
		}
		mock.Add(time.Millisecond)
	}

	st := ctrl.State()
	att := est.Attitude()
	logger.Infow("simulation complete",
		"armed", st.Armed,
		"failsafe", st.Failsafe,
		"motor_commands", len(mix.Calls()),
		"last_throttle", mix.LastThrottle(),
		"altitude_fusions", hold.Fusions(),
		"roll_tenths", att.Roll,
		"pitch_tenths", att.Pitch,
		"heading_deg", att.Heading,
	)
	return nil
}
