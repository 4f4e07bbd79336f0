package flight

import (
	"time"

	"github.com/pkg/errors"

	"github.com/openrotor/flightcore/altitude"
	"github.com/openrotor/flightcore/board"
	"github.com/openrotor/flightcore/imu"
	"github.com/openrotor/flightcore/mixer"
	"github.com/openrotor/flightcore/receiver"
	"github.com/openrotor/flightcore/stabilize"
	"github.com/openrotor/flightcore/telemetry"
)

// Loop timing defaults. The inner interval paces stabilization, the outer
// interval paces receiver dispatch.
const (
	defaultInnerInterval      = 3500 * time.Microsecond
	defaultOuterInterval      = 10 * time.Millisecond
	defaultAltitudeInterval   = 25 * time.Millisecond
	defaultAngleCheckInterval = 500 * time.Millisecond
	defaultStartupSettle      = 100 * time.Millisecond
	defaultLEDFlashPeriod     = time.Second
	defaultLEDFlashCount      = 20
	defaultPollInterval       = time.Millisecond
)

// Config holds the loop's timing parameters. Zero fields take the defaults.
type Config struct {
	// InnerInterval paces the fast stabilize-and-mix loop.
	InnerInterval time.Duration
	// OuterInterval paces receiver dispatch.
	OuterInterval time.Duration
	// AltitudeInterval paces the altitude-hold control calculation.
	AltitudeInterval time.Duration
	// AngleCheckInterval paces the arming-readiness angle check.
	AngleCheckInterval time.Duration
	// StartupSettle is how long Init pauses after the visual startup
	// indication so the IMU can converge before the gates anchor.
	StartupSettle time.Duration
	// LEDFlashPeriod and LEDFlashCount shape the startup indication: the
	// status LED flashes LEDFlashCount times, each on and off phase lasting
	// LEDFlashPeriod/LEDFlashCount.
	LEDFlashPeriod time.Duration
	LEDFlashCount  int
	// PollInterval paces Run's polling of Tick.
	PollInterval time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.InnerInterval == 0 {
		cfg.InnerInterval = defaultInnerInterval
	}
	if cfg.OuterInterval == 0 {
		cfg.OuterInterval = defaultOuterInterval
	}
	if cfg.AltitudeInterval == 0 {
		cfg.AltitudeInterval = defaultAltitudeInterval
	}
	if cfg.AngleCheckInterval == 0 {
		cfg.AngleCheckInterval = defaultAngleCheckInterval
	}
	if cfg.StartupSettle == 0 {
		cfg.StartupSettle = defaultStartupSettle
	}
	if cfg.LEDFlashPeriod == 0 {
		cfg.LEDFlashPeriod = defaultLEDFlashPeriod
	}
	if cfg.LEDFlashCount == 0 {
		cfg.LEDFlashCount = defaultLEDFlashCount
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return cfg
}

// Validate checks the timing parameters after defaults are applied.
func (cfg Config) Validate() error {
	for _, iv := range []struct {
		name string
		d    time.Duration
	}{
		{"inner interval", cfg.InnerInterval},
		{"outer interval", cfg.OuterInterval},
		{"altitude interval", cfg.AltitudeInterval},
		{"angle check interval", cfg.AngleCheckInterval},
		{"startup settle", cfg.StartupSettle},
		{"led flash period", cfg.LEDFlashPeriod},
		{"poll interval", cfg.PollInterval},
	} {
		if iv.d <= 0 {
			return errors.Errorf("%s must be greater than zero; got %v", iv.name, iv.d)
		}
	}
	if cfg.LEDFlashCount <= 0 {
		return errors.Errorf("led flash count must be greater than zero; got %v", cfg.LEDFlashCount)
	}
	return nil
}

// Deps collects the collaborators the loop drives. All fields are required.
type Deps struct {
	Board      board.Board
	Receiver   receiver.Receiver
	Estimator  *imu.Estimator
	Stabilizer stabilize.Stabilizer
	Mixer      mixer.Mixer
	Altitude   altitude.Hold
	Telemetry  telemetry.Reporter
}

// Validate checks that every collaborator is present.
func (d Deps) Validate() error {
	switch {
	case d.Board == nil:
		return errors.New("board is required")
	case d.Receiver == nil:
		return errors.New("receiver is required")
	case d.Estimator == nil:
		return errors.New("estimator is required")
	case d.Stabilizer == nil:
		return errors.New("stabilizer is required")
	case d.Mixer == nil:
		return errors.New("mixer is required")
	case d.Altitude == nil:
		return errors.New("altitude hold is required")
	case d.Telemetry == nil:
		return errors.New("telemetry is required")
	}
	return nil
}
