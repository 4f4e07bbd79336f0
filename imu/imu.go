// Package imu converts raw fused orientation samples into the working
// representation the flight loop shares, and owns the accelerometer
// integration accumulator behind the vertical-acceleration query.
package imu

import (
	"context"
	"math"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/openrotor/flightcore/board"
)

const gravityMS2 = 9.80665

// Attitude is the working orientation sample: roll and pitch in tenths of a
// degree, heading in whole degrees in [0,360).
type Attitude struct {
	Roll    int32
	Pitch   int32
	Heading int32
}

// Config holds the estimator's scaling constants. Zero fields take the
// defaults.
type Config struct {
	// AccelXYDeadband and AccelZDeadband are applied to raw acceleration
	// counts before integration.
	AccelXYDeadband int32 `json:"accel_xy_deadband"`
	AccelZDeadband  int32 `json:"accel_z_deadband"`
	// CountsPerG scales raw acceleration counts to standard gravity.
	CountsPerG int32 `json:"counts_per_g"`
}

const (
	defaultAccelXYDeadband = 40
	defaultAccelZDeadband  = 40
	defaultCountsPerG      = 4096
)

func (cfg Config) withDefaults() Config {
	if cfg.AccelXYDeadband == 0 {
		cfg.AccelXYDeadband = defaultAccelXYDeadband
	}
	if cfg.AccelZDeadband == 0 {
		cfg.AccelZDeadband = defaultAccelZDeadband
	}
	if cfg.CountsPerG == 0 {
		cfg.CountsPerG = defaultCountsPerG
	}
	return cfg
}

type accelAccumulator struct {
	sum     [3]int64
	count   int
	elapsed time.Duration
}

// Estimator converts each raw orientation sample into an Attitude and keeps
// the latest raw gyro counts alongside it. Single-writer; the flight loop is
// its only caller.
type Estimator struct {
	cfg    Config
	board  board.Board
	logger golog.Logger

	attitude Attitude
	gyro     [3]int32
	accum    accelAccumulator
}

// NewEstimator returns an estimator reading from the given board.
func NewEstimator(cfg Config, b board.Board, logger golog.Logger) (*Estimator, error) {
	if b == nil {
		return nil, errors.New("estimator requires a board")
	}
	return &Estimator{cfg: cfg.withDefaults(), board: b, logger: logger}, nil
}

// Init starts orientation sensing and zeroes the accumulator.
func (e *Estimator) Init(ctx context.Context) error {
	if err := e.board.InitIMU(ctx); err != nil {
		return err
	}
	e.accum = accelAccumulator{}
	e.logger.Debugw("imu ready", "counts_per_g", e.cfg.CountsPerG)
	return nil
}

// Update runs the board's low-rate refresh, reads the raw orientation and
// gyro samples, and converts them into the working representation.
func (e *Estimator) Update(ctx context.Context, now time.Time, armed bool) error {
	if err := e.board.RefreshIMU(ctx, now, armed); err != nil {
		return err
	}
	ea, err := e.board.Orientation(ctx)
	if err != nil {
		return err
	}
	gyro, err := e.board.GyroCounts(ctx)
	if err != nil {
		return err
	}

	e.gyro = gyro
	e.attitude = Attitude{
		Roll:    int32(math.Round(ea.Roll * (1800.0 / math.Pi))),
		Pitch:   int32(math.Round(ea.Pitch * (1800.0 / math.Pi))),
		Heading: headingDegrees(ea.Yaw),
	}

	// The deadband accumulation stays parked until a gravity-removed
	// acceleration source feeds it; AccelZ still resets the accumulator.

	return nil
}

// headingDegrees converts a yaw angle in radians to whole degrees in [0,360).
// Rounding happens in tenths and the truncating division matches the integer
// conversion the scaled representation has always used.
func headingDegrees(yaw float64) int32 {
	heading := int32(math.Round(yaw*(1800.0/math.Pi)) / 10)
	if heading < 0 {
		heading += 360
	}
	return heading
}

// Attitude returns the latest converted orientation sample.
func (e *Estimator) Attitude() Attitude {
	return e.attitude
}

// GyroCounts returns the latest raw angular-rate sample.
func (e *Estimator) GyroCounts() [3]int32 {
	return e.gyro
}

// accumulate folds one deadband-filtered acceleration sample (X, Y, Z
// counts) into the accumulator.
func (e *Estimator) accumulate(accel [3]int32, dt time.Duration) {
	e.accum.sum[0] += int64(Deadband(accel[0], e.cfg.AccelXYDeadband))
	e.accum.sum[1] += int64(Deadband(accel[1], e.cfg.AccelXYDeadband))
	e.accum.sum[2] += int64(Deadband(accel[2], e.cfg.AccelZDeadband))
	e.accum.count++
	e.accum.elapsed += dt
}

// AccelZ returns the vertical-acceleration estimate in m/s² accumulated since
// the previous call, then resets the accumulator. With no samples
// accumulated the result is zero; every read leaves the accumulator empty.
func (e *Estimator) AccelZ() float64 {
	var accelZ float64
	if e.accum.count > 0 {
		mean := float64(e.accum.sum[2]) / float64(e.accum.count)
		accelZ = mean * (gravityMS2 / 10000.0 / float64(e.cfg.CountsPerG))
	}
	e.accum = accelAccumulator{}
	return accelZ
}

// Deadband suppresses small-magnitude values and re-centers larger ones,
// cutting vibration and drift noise before integration.
func Deadband(value, band int32) int32 {
	switch {
	case value > -band && value < band:
		return 0
	case value > 0:
		return value - band
	default:
		return value + band
	}
}
