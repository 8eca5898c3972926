// Package loop runs handlers one at a time on a single goroutine.
//
// Everything that touches history or window state is posted here: hotkey
// presses, window events from the renderer, and control requests. A handler
// runs to completion before the next one starts, so handlers never observe a
// half-applied mutation.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// ErrStopped is returned when work is submitted to a loop that has stopped.
var ErrStopped = errors.New("event loop stopped")

// Loop is a single-goroutine run queue.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// New returns a Loop with room for size pending handlers.
func New(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Post enqueues fn. It blocks while the queue is full and returns false if the
// loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for its result. If ctx ends first, Do
// returns ctx.Err(); fn may still run later.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	ok := l.Post(func() { result <- fn() })
	if !ok {
		return ErrStopped
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// AfterFunc posts fn to the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}

// Stop ends Run after the current handler. Pending handlers are dropped.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Run executes handlers until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
