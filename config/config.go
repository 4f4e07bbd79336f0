// Package config loads flight configuration from JSON files, substituting
// environment variables before decoding.
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/a8m/envsubst"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/openrotor/flightcore/flight"
	"github.com/openrotor/flightcore/imu"
	"github.com/openrotor/flightcore/stabilize"
)

// LoopConfig holds the loop timing in the primitive units flight configs have
// always used: microseconds for the fast loop, milliseconds elsewhere. Zero
// fields fall through to the loop's own defaults.
type LoopConfig struct {
	InnerUsec         int `json:"inner_usec"`
	OuterMsec         int `json:"outer_msec"`
	AltitudeMsec      int `json:"altitude_msec"`
	AngleCheckMsec    int `json:"angle_check_msec"`
	StartupSettleMsec int `json:"startup_settle_msec"`
	LEDFlashMsec      int `json:"led_flash_msec"`
	LEDFlashCount     int `json:"led_flash_count"`
}

// FlightConfig converts the primitive units into loop durations.
func (lc LoopConfig) FlightConfig() flight.Config {
	return flight.Config{
		InnerInterval:      time.Duration(lc.InnerUsec) * time.Microsecond,
		OuterInterval:      time.Duration(lc.OuterMsec) * time.Millisecond,
		AltitudeInterval:   time.Duration(lc.AltitudeMsec) * time.Millisecond,
		AngleCheckInterval: time.Duration(lc.AngleCheckMsec) * time.Millisecond,
		StartupSettle:      time.Duration(lc.StartupSettleMsec) * time.Millisecond,
		LEDFlashPeriod:     time.Duration(lc.LEDFlashMsec) * time.Millisecond,
		LEDFlashCount:      lc.LEDFlashCount,
	}
}

// Config is the on-disk flight configuration.
type Config struct {
	ConfigFilePath string `json:"-"`

	Loop      LoopConfig       `json:"loop"`
	Stabilize stabilize.Config `json:"stabilize"`
	IMU       imu.Config       `json:"imu"`
}

// Ensure checks the configuration for values the loop would reject.
func (c *Config) Ensure() error {
	for _, field := range []struct {
		name string
		val  int
	}{
		{"loop.inner_usec", c.Loop.InnerUsec},
		{"loop.outer_msec", c.Loop.OuterMsec},
		{"loop.altitude_msec", c.Loop.AltitudeMsec},
		{"loop.angle_check_msec", c.Loop.AngleCheckMsec},
		{"loop.startup_settle_msec", c.Loop.StartupSettleMsec},
		{"loop.led_flash_msec", c.Loop.LEDFlashMsec},
		{"loop.led_flash_count", c.Loop.LEDFlashCount},
	} {
		if field.val < 0 {
			return errors.Errorf("%s must not be negative; got %d", field.name, field.val)
		}
	}
	for _, field := range []struct {
		name string
		val  int32
	}{
		{"imu.accel_xy_deadband", c.IMU.AccelXYDeadband},
		{"imu.accel_z_deadband", c.IMU.AccelZDeadband},
		{"imu.counts_per_g", c.IMU.CountsPerG},
	} {
		if field.val < 0 {
			return errors.Errorf("%s must not be negative; got %d", field.name, field.val)
		}
	}
	return c.Stabilize.Validate()
}

// Read reads a config from the given file, substituting environment
// variables first.
func Read(filePath string, logger golog.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and records where, if
// applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger golog.Logger) (*Config, error) {
	cfg := Config{ConfigFilePath: originalPath}
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	if err := cfg.Ensure(); err != nil {
		return nil, errors.Wrapf(err, "failed to process Config")
	}
	logger.Debugw("config loaded", "path", originalPath)
	return &cfg, nil
}
