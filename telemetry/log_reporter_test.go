package telemetry

import (
	"context"
	"testing"
	"time"

	clk "github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/openrotor/flightcore/attitude"
)

func TestNewLogReporter(t *testing.T) {
	logger := golog.NewTestLogger(t)
	_, err := NewLogReporter(logger, 0, nil)
	test.That(t, err, test.ShouldNotBeNil)

	r, err := NewLogReporter(logger, time.Second, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Init(context.Background()), test.ShouldBeNil)
}

func TestUpdateRateLimit(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)
	mock := clk.NewMock()
	r, err := NewLogReporter(logger, time.Second, mock)
	test.That(t, err, test.ShouldBeNil)

	ctx := context.Background()
	ea := attitude.EulerAngles{Roll: 0.1}

	// Hundreds of updates inside one interval produce only the anchoring
	// first attitude line.
	for i := 0; i < 300; i++ {
		test.That(t, r.Update(ctx, ea, false), test.ShouldBeNil)
		mock.Add(3 * time.Millisecond)
	}
	attLines := len(logs.FilterMessageSnippet("attitude").All())
	test.That(t, attLines, test.ShouldEqual, 1)

	mock.Add(time.Second)
	test.That(t, r.Update(ctx, ea, false), test.ShouldBeNil)
	test.That(t, len(logs.FilterMessageSnippet("attitude").All()), test.ShouldEqual, attLines+1)
}

func TestUpdateArmTransitions(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)
	mock := clk.NewMock()
	r, err := NewLogReporter(logger, time.Hour, mock)
	test.That(t, err, test.ShouldBeNil)

	ctx := context.Background()
	ea := attitude.EulerAngles{}

	test.That(t, r.Update(ctx, ea, false), test.ShouldBeNil)
	test.That(t, r.Update(ctx, ea, false), test.ShouldBeNil)
	test.That(t, r.Update(ctx, ea, true), test.ShouldBeNil)
	test.That(t, r.Update(ctx, ea, true), test.ShouldBeNil)
	test.That(t, r.Update(ctx, ea, false), test.ShouldBeNil)

	test.That(t, len(logs.FilterMessageSnippet("arm state").All()), test.ShouldEqual, 3)
}
