package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single run of the scheduled
// function after a quiet period. At most one run is pending at any time: a
// new trigger always cancels the previously scheduled one.
type Debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	pending *time.Timer
}

// New creates a Debouncer with the given quiet period
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run after the quiet period, discarding any
// previously pending run
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = time.AfterFunc(d.delay, fn)
}

// Stop cancels the pending run, if any
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
