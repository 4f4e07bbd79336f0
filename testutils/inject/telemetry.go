package inject

import (
	"context"

	"go.viam.com/utils"

	"github.com/openrotor/flightcore/attitude"
	"github.com/openrotor/flightcore/telemetry"
)

// TelemetryReporter is an injected telemetry reporter.
type TelemetryReporter struct {
	telemetry.Reporter
	InitFunc   func(ctx context.Context) error
	UpdateFunc func(ctx context.Context, euler attitude.EulerAngles, armed bool) error
	CloseFunc  func(ctx context.Context) error
}

// Init calls the injected Init or the real version.
func (r *TelemetryReporter) Init(ctx context.Context) error {
	if r.InitFunc == nil {
		return r.Reporter.Init(ctx)
	}
	return r.InitFunc(ctx)
}

// Update calls the injected Update or the real version.
func (r *TelemetryReporter) Update(ctx context.Context, euler attitude.EulerAngles, armed bool) error {
	if r.UpdateFunc == nil {
		return r.Reporter.Update(ctx, euler, armed)
	}
	return r.UpdateFunc(ctx, euler, armed)
}

// Close calls the injected Close or the real version.
func (r *TelemetryReporter) Close(ctx context.Context) error {
	if r.CloseFunc == nil {
		return utils.TryClose(ctx, r.Reporter)
	}
	return r.CloseFunc(ctx)
}
