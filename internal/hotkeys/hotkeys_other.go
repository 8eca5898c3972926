//go:build !windows && !((darwin || linux) && cgo)

package hotkeys

import (
	"errors"

	"go.klb.dev/pinpaste/internal/shortcut"
)

// ErrUnsupported is returned by Bind on platforms without global hotkeys.
var ErrUnsupported = errors.New("global hotkeys unsupported on this platform")

// PostFunc schedules fn on the caller's event loop.
type PostFunc func(fn func()) bool

// Binder refuses every binding on this platform.
type Binder struct{}

var _ shortcut.Binder = (*Binder)(nil)

func New(PostFunc) *Binder { return &Binder{} }

func (*Binder) Bind(string, shortcut.Handler) error { return ErrUnsupported }
func (*Binder) Unbind(string) error                  { return ErrUnsupported }
