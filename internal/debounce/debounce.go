// Package debounce turns rapidly changing inputs into settled values.
package debounce

import (
	"sync"
	"time"
)

// afterFunc is swapped in tests.
var afterFunc = func(d time.Duration, f func()) stopper { return time.AfterFunc(d, f) }

type stopper interface {
	Stop() bool
}

// Debouncer holds the last value that stayed unchanged for a full delay
// window. Every Push cancels the pending timer and starts a new one, so only
// the newest timer can ever publish.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	value   T
	pending T
	waiting bool
	gen     uint64
	timer   stopper
	emit    func(T)
}

// New creates a Debouncer whose settled value starts at initial. emit, if not
// nil, is called with each settled value. It runs on the timer goroutine, or
// on the caller of Flush.
func New[T any](delay time.Duration, initial T, emit func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, value: initial, emit: emit}
}

// Push records v as the latest input and restarts the window.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = v
	d.waiting = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = afterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.waiting {
		d.mu.Unlock()
		return
	}
	v := d.settle()
	d.mu.Unlock()
	if d.emit != nil {
		d.emit(v)
	}
}

// settle must be called with mu held.
func (d *Debouncer[T]) settle() T {
	d.value = d.pending
	d.waiting = false
	d.timer = nil
	return d.value
}

// Value returns the settled value.
func (d *Debouncer[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Pending reports whether an input is waiting for its window to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waiting
}

// Flush settles a pending input immediately. It reports whether anything was
// pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.waiting {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	v := d.settle()
	d.mu.Unlock()
	if d.emit != nil {
		d.emit(v)
	}
	return true
}

// Stop discards any pending input without publishing it.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.waiting = false
}
