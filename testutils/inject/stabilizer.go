package inject

import (
	"context"

	"go.viam.com/utils"

	"github.com/openrotor/flightcore/attitude"
	"github.com/openrotor/flightcore/receiver"
	"github.com/openrotor/flightcore/stabilize"
)

// Stabilizer is an injected stabilizer.
type Stabilizer struct {
	stabilize.Stabilizer
	InitFunc          func(ctx context.Context) error
	ResetIntegralFunc func()
	UpdateFunc        func(ctx context.Context, demands receiver.Demands, orient attitude.EulerAngles,
		gyro attitude.AngularVelocity) (stabilize.Corrections, error)
	MaxArmingAngleFunc func() float64
	CloseFunc          func(ctx context.Context) error
}

// Init calls the injected Init or the real version.
func (s *Stabilizer) Init(ctx context.Context) error {
	if s.InitFunc == nil {
		return s.Stabilizer.Init(ctx)
	}
	return s.InitFunc(ctx)
}

// ResetIntegral calls the injected ResetIntegral or the real version.
func (s *Stabilizer) ResetIntegral() {
	if s.ResetIntegralFunc == nil {
		s.Stabilizer.ResetIntegral()
		return
	}
	s.ResetIntegralFunc()
}

// Update calls the injected Update or the real version.
func (s *Stabilizer) Update(ctx context.Context, demands receiver.Demands, orient attitude.EulerAngles,
	gyro attitude.AngularVelocity,
) (stabilize.Corrections, error) {
	if s.UpdateFunc == nil {
		return s.Stabilizer.Update(ctx, demands, orient, gyro)
	}
	return s.UpdateFunc(ctx, demands, orient, gyro)
}

// MaxArmingAngle calls the injected MaxArmingAngle or the real version.
func (s *Stabilizer) MaxArmingAngle() float64 {
	if s.MaxArmingAngleFunc == nil {
		return s.Stabilizer.MaxArmingAngle()
	}
	return s.MaxArmingAngleFunc()
}

// Close calls the injected Close or the real version.
func (s *Stabilizer) Close(ctx context.Context) error {
	if s.CloseFunc == nil {
		return utils.TryClose(ctx, s.Stabilizer)
	}
	return s.CloseFunc(ctx)
}
