package utils

import (
	"sync"
	"time"
)

// Debouncer calls fn once, delay after the last Trigger, with the value of
// that last Trigger. Each Trigger cancels and reschedules the pending call.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	timer   *time.Timer
	gen     uint64
	pending bool
	latest  T
	stopped bool
}

func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.latest = v
	d.pending = true
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire runs fn unless a later Trigger superseded generation gen.
func (d *Debouncer[T]) fire(gen uint64) {
	v, ok := d.take(func() bool { return gen == d.gen })
	if ok {
		d.fn(v)
	}
}

// Flush runs a pending call now, on the caller's goroutine.
func (d *Debouncer[T]) Flush() {
	v, ok := d.take(func() bool { return true })
	if ok {
		d.fn(v)
	}
}

// Stop drops any pending call and ignores later triggers.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer[T]) take(current func() bool) (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	if !d.pending || d.stopped || !current() {
		return zero, false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	v := d.latest
	d.latest = zero
	d.pending = false
	return v, true
}
