// Package schedule provides a cancel-and-reschedule task used to coalesce
// bursts of work into one execution with the latest state.
package schedule

import (
	"sync"
	"time"
)

// Task arms a deferred function call. Re-arming before the delay elapses
// replaces the pending call, so only the last scheduled function runs.
type Task interface {
	Schedule(delay time.Duration, fn func())
	Stop()
	// Flush runs the pending call immediately, if any.
	Flush()
}

// Debouncer is the timer-backed Task implementation.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	fn    func()
}

// NewDebouncer returns an unarmed debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{}
}

// Schedule arms fn to run after delay, replacing any pending call.
func (d *Debouncer) Schedule(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.fn = fn
	d.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		run := d.fn
		d.fn = nil
		d.timer = nil
		d.mu.Unlock()
		if run != nil {
			run()
		}
	})
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.fn = nil
}

// Flush runs the pending call immediately, if any. Shutdown paths use it so a
// scheduled write is not lost when the owning store is closed.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	run := d.fn
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.fn = nil
	d.mu.Unlock()
	if run != nil {
		run()
	}
}

// Manual is a Task for tests: nothing runs until Fire is called, so the
// "last write wins within the window" behavior is observable without timers.
type Manual struct {
	mu      sync.Mutex
	pending func()
	armed   int
}

// NewManual returns a test task.
func NewManual() *Manual {
	return &Manual{}
}

// Schedule records fn as the pending call.
func (m *Manual) Schedule(delay time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = fn
	m.armed++
}

// Stop clears the pending call.
func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
}

// Fire runs the pending call, simulating the delay elapsing.
func (m *Manual) Fire() {
	m.mu.Lock()
	run := m.pending
	m.pending = nil
	m.mu.Unlock()
	if run != nil {
		run()
	}
}

// Flush is Fire under the Task interface.
func (m *Manual) Flush() {
	m.Fire()
}

// Armed reports how many times Schedule was called.
func (m *Manual) Armed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}
