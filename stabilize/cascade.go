package stabilize

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/openrotor/flightcore/attitude"
	"github.com/openrotor/flightcore/receiver"
	"github.com/openrotor/flightcore/utils"
)

var _ Stabilizer = (*Cascade)(nil)

// Config holds cascade gains and limits. Zero fields take the defaults.
type Config struct {
	// MaxArmingAngleDeg is the lean angle beyond which arming is unsafe.
	MaxArmingAngleDeg float64 `json:"max_arming_angle_deg"`
	// MaxAngleDeg is the lean angle commanded by a full roll or pitch stick.
	MaxAngleDeg float64 `json:"max_angle_deg"`
	// MaxYawRate is the rotation rate in rad/s commanded by a full yaw stick.
	MaxYawRate float64 `json:"max_yaw_rate"`

	// AngleP converts angle error to a target rotation rate.
	AngleP float64 `json:"angle_p"`
	// RateP, RateI, and RateD drive the roll and pitch rate loops.
	RateP float64 `json:"rate_p"`
	RateI float64 `json:"rate_i"`
	RateD float64 `json:"rate_d"`
	// YawP and YawI drive the yaw rate loop.
	YawP float64 `json:"yaw_p"`
	YawI float64 `json:"yaw_i"`

	// WindupMax bounds each accumulated integral term.
	WindupMax float64 `json:"windup_max"`
}

// Cascade defaults, in the normalized per-tick units the gains use.
const (
	defaultMaxArmingAngleDeg = 25.0
	defaultMaxAngleDeg       = 30.0
	defaultMaxYawRate        = 3.0
	defaultAngleP            = 4.0
	defaultRateP             = 0.15
	defaultRateI             = 0.005
	defaultRateD             = 0.05
	defaultYawP              = 0.1
	defaultYawI              = 0.003
	defaultWindupMax         = 0.25
)

func (cfg Config) withDefaults() Config {
	if cfg.MaxArmingAngleDeg == 0 {
		cfg.MaxArmingAngleDeg = defaultMaxArmingAngleDeg
	}
	if cfg.MaxAngleDeg == 0 {
		cfg.MaxAngleDeg = defaultMaxAngleDeg
	}
	if cfg.MaxYawRate == 0 {
		cfg.MaxYawRate = defaultMaxYawRate
	}
	if cfg.AngleP == 0 {
		cfg.AngleP = defaultAngleP
	}
	if cfg.RateP == 0 {
		cfg.RateP = defaultRateP
	}
	if cfg.RateI == 0 {
		cfg.RateI = defaultRateI
	}
	if cfg.RateD == 0 {
		cfg.RateD = defaultRateD
	}
	if cfg.YawP == 0 {
		cfg.YawP = defaultYawP
	}
	if cfg.YawI == 0 {
		cfg.YawI = defaultYawI
	}
	if cfg.WindupMax == 0 {
		cfg.WindupMax = defaultWindupMax
	}
	return cfg
}

// Validate checks the config after defaults are applied.
func (cfg Config) Validate() error {
	if cfg.MaxArmingAngleDeg < 0 {
		return errors.New("max_arming_angle_deg must not be negative")
	}
	if cfg.MaxAngleDeg < 0 {
		return errors.New("max_angle_deg must not be negative")
	}
	if cfg.MaxYawRate < 0 {
		return errors.New("max_yaw_rate must not be negative")
	}
	if cfg.WindupMax < 0 {
		return errors.New("windup_max must not be negative")
	}
	return nil
}

// axisPID is one rate loop. Gains are per-tick; the loop rate is fixed so dt
// folds into the gains.
type axisPID struct {
	rateP     float64
	rateI     float64
	rateD     float64
	windupMax float64
	integral  float64
	prevError float64
}

func (p *axisPID) update(rateError float64) float64 {
	p.integral = utils.Constrain(p.integral+p.rateI*rateError, -p.windupMax, p.windupMax)
	deriv := rateError - p.prevError
	p.prevError = rateError
	return p.rateP*rateError + p.integral + p.rateD*deriv
}

func (p *axisPID) reset() {
	p.integral = 0
}

// Cascade stabilizes by running stick demands through an angle loop whose
// output feeds per-axis rate loops: full stick commands a target lean angle,
// angle error commands a target rotation rate, and the rate PIDs produce the
// corrections. Not safe for concurrent use; the flight loop is its only
// caller.
type Cascade struct {
	cfg    Config
	logger golog.Logger

	maxArmingAngle float64
	maxAngle       float64

	roll  axisPID
	pitch axisPID
	yaw   axisPID
}

// NewCascade returns a cascade stabilizer with the given gains.
func NewCascade(cfg Config, logger golog.Logger) (*Cascade, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rp := axisPID{rateP: cfg.RateP, rateI: cfg.RateI, rateD: cfg.RateD, windupMax: cfg.WindupMax}
	return &Cascade{
		cfg:            cfg,
		logger:         logger,
		maxArmingAngle: utils.DegToRad(cfg.MaxArmingAngleDeg),
		maxAngle:       utils.DegToRad(cfg.MaxAngleDeg),
		roll:           rp,
		pitch:          rp,
		yaw:            axisPID{rateP: cfg.YawP, rateI: cfg.YawI, windupMax: cfg.WindupMax},
	}, nil
}

// Init logs the active gains.
func (c *Cascade) Init(ctx context.Context) error {
	c.logger.Debugw("stabilizer ready",
		"angle_p", c.cfg.AngleP,
		"rate_p", c.cfg.RateP,
		"rate_i", c.cfg.RateI,
		"rate_d", c.cfg.RateD,
		"max_arming_angle_deg", c.cfg.MaxArmingAngleDeg,
	)
	return nil
}

// ResetIntegral zeroes the three accumulated integral terms.
func (c *Cascade) ResetIntegral() {
	c.roll.reset()
	c.pitch.reset()
	c.yaw.reset()
}

// Update runs the cascade for one tick.
func (c *Cascade) Update(
	ctx context.Context,
	demands receiver.Demands,
	orient attitude.EulerAngles,
	gyro attitude.AngularVelocity,
) (Corrections, error) {
	rollRate := c.cfg.AngleP * (demands[receiver.DemandRoll]*c.maxAngle - orient.Roll)
	pitchRate := c.cfg.AngleP * (demands[receiver.DemandPitch]*c.maxAngle - orient.Pitch)
	yawRate := demands[receiver.DemandYaw] * c.cfg.MaxYawRate

	return Corrections{
		Roll:  utils.Constrain(c.roll.update(rollRate-gyro.X), -1, 1),
		Pitch: utils.Constrain(c.pitch.update(pitchRate-gyro.Y), -1, 1),
		Yaw:   utils.Constrain(c.yaw.update(yawRate-gyro.Z), -1, 1),
	}, nil
}

// MaxArmingAngle returns the configured arming angle limit in radians.
func (c *Cascade) MaxArmingAngle() float64 {
	return c.maxArmingAngle
}
