// Package timing provides the due-time gates that pace fixed-interval
// activities inside the flight loop.
package timing

import (
	"time"

	"github.com/pkg/errors"
)

// Task tracks the next due time of one fixed-interval activity.
//
// The deadline advances by whole intervals from the previous deadline, not
// from the observed time, so a single overrun does not compress the next
// period. Consecutive overruns leave the deadline behind the clock and the
// task fires on every check until the loop recovers.
type Task struct {
	interval time.Duration
	due      time.Time
	started  bool
}

// NewTask returns a gate that fires at the given fixed interval. The first
// check always fires and anchors the deadline grid.
func NewTask(interval time.Duration) (*Task, error) {
	if interval <= 0 {
		return nil, errors.Errorf("interval must be greater than zero; got %v", interval)
	}
	return &Task{interval: interval}, nil
}

// CheckAndUpdate reports whether the task is due at the given time and, when
// due, advances the deadline one interval past the previous one.
func (t *Task) CheckAndUpdate(now time.Time) bool {
	if !t.started {
		t.started = true
		t.due = now.Add(t.interval)
		return true
	}
	if now.Before(t.due) {
		return false
	}
	t.due = t.due.Add(t.interval)
	return true
}

// Ready has the same fire-and-advance behavior as CheckAndUpdate under a name
// that marks the call site as a lower-priority check. Advancing on fire keeps
// a peeked task at its configured cadence instead of firing every tick.
func (t *Task) Ready(now time.Time) bool {
	return t.CheckAndUpdate(now)
}

// Due reports whether the task would fire at the given time, without
// advancing the deadline.
func (t *Task) Due(now time.Time) bool {
	return !t.started || !now.Before(t.due)
}

// Reset forgets the deadline grid; the next check fires and anchors a new one.
func (t *Task) Reset() {
	t.started = false
	t.due = time.Time{}
}
