// Package shortcut keeps track of which global hotkeys are bound.
//
// Registry is the reference point for every bind and unbind in the process:
// a registered id is bound in the OS hotkey layer, and an id is only recorded
// once the layer has accepted it. Window focus changes bind and unbind the same
// accelerators repeatedly, so both directions are idempotent.
package shortcut

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Handler runs when a bound hotkey fires.
type Handler func()

// Binder is the OS-level hotkey layer.
type Binder interface {
	// Bind starts delivering presses of accel to h.
	Bind(accel string, h Handler) error
	// Unbind stops delivering presses of accel.
	Unbind(accel string) error
}

// Registry records bound accelerators on top of a Binder. It is not safe for
// concurrent use; callers use it from the event loop.
type Registry struct {
	binder Binder
	bound  map[string]struct{}
}

// NewRegistry returns an empty Registry over b.
func NewRegistry(b Binder) *Registry {
	return &Registry{
		binder: b,
		bound:  make(map[string]struct{}),
	}
}

// Register binds accel to h. It is a no-op if accel is already bound.
func (r *Registry) Register(accel string, h Handler) error {
	if _, ok := r.bound[accel]; ok {
		return nil
	}
	if err := r.binder.Bind(accel, h); err != nil {
		return fmt.Errorf("bind %s: %w", accel, err)
	}
	r.bound[accel] = struct{}{}
	slog.Debug("hotkey registered", "accel", accel)
	return nil
}

// Unregister unbinds accel. It is a no-op if accel is not bound. If the
// binder refuses, accel stays recorded as bound.
func (r *Registry) Unregister(accel string) error {
	if _, ok := r.bound[accel]; !ok {
		return nil
	}
	if err := r.binder.Unbind(accel); err != nil {
		return fmt.Errorf("unbind %s: %w", accel, err)
	}
	delete(r.bound, accel)
	slog.Debug("hotkey unregistered", "accel", accel)
	return nil
}

// UnregisterAll unbinds everything. Called once at shutdown. Accelerators the
// binder refuses to release stay recorded as registered.
func (r *Registry) UnregisterAll() error {
	var errs []error
	for _, accel := range r.Bound() {
		if err := r.binder.Unbind(accel); err != nil {
			errs = append(errs, fmt.Errorf("unbind %s: %w", accel, err))
			continue
		}
		delete(r.bound, accel)
	}
	slog.Debug("all hotkeys unregistered", "remaining", len(r.bound))
	return errors.Join(errs...)
}

// IsRegistered reports whether accel is bound.
func (r *Registry) IsRegistered(accel string) bool {
	_, ok := r.bound[accel]
	return ok
}

// Bound returns the bound accelerators in sorted order.
func (r *Registry) Bound() []string {
	out := make([]string, 0, len(r.bound))
	for a := range r.bound {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}
