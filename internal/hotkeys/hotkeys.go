//go:build windows || ((darwin || linux) && cgo)

// Package hotkeys binds accelerators in the OS global hotkey layer through
// golang.design/x/hotkey. It implements shortcut.Binder.
//
// On macOS hotkeys only work once the process runs mainthread.Init.
package hotkeys

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.design/x/hotkey"

	"go.klb.dev/pinpaste/internal/shortcut"
)

// PostFunc schedules fn on the caller's event loop and reports whether it
// was accepted.
type PostFunc func(fn func()) bool

type binding struct {
	hk   *hotkey.Hotkey
	stop chan struct{}
	done chan struct{}
}

// Binder is a shortcut.Binder backed by OS global hotkeys. Key presses are
// delivered to handlers through post, never on the listener goroutine.
type Binder struct {
	post PostFunc

	mu       sync.Mutex
	bindings map[string]*binding
}

var _ shortcut.Binder = (*Binder)(nil)

// New returns a Binder that runs handlers via post.
func New(post PostFunc) *Binder {
	return &Binder{
		post:     post,
		bindings: make(map[string]*binding),
	}
}

// Bind implements shortcut.Binder.
func (b *Binder) Bind(accel string, h shortcut.Handler) error {
	a, err := shortcut.ParseAccelerator(accel)
	if err != nil {
		return err
	}
	mods, key, err := convert(a)
	if err != nil {
		return fmt.Errorf("accelerator %q: %w", accel, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.bindings[accel]; ok {
		return fmt.Errorf("%s already bound", accel)
	}
	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register %s: %w", accel, err)
	}
	bd := &binding{hk: hk, stop: make(chan struct{}), done: make(chan struct{})}
	b.bindings[accel] = bd
	go b.listen(accel, bd, h)
	return nil
}

func (b *Binder) listen(accel string, bd *binding, h shortcut.Handler) {
	defer close(bd.done)
	for {
		select {
		case <-bd.stop:
			return
		case _, ok := <-bd.hk.Keydown():
			if !ok {
				return
			}
			slog.Debug("hotkey pressed", "accel", accel)
			if !b.post(h) {
				return
			}
		}
	}
}

// Unbind implements shortcut.Binder.
func (b *Binder) Unbind(accel string) error {
	b.mu.Lock()
	bd, ok := b.bindings[accel]
	if ok {
		delete(b.bindings, accel)
	}
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s not bound", accel)
	}

	close(bd.stop)
	<-bd.done
	if err := bd.hk.Unregister(); err != nil {
		return fmt.Errorf("unregister %s: %w", accel, err)
	}
	return nil
}

// convert maps a parsed accelerator to hotkey modifiers and key code.
func convert(a shortcut.Accelerator) ([]hotkey.Modifier, hotkey.Key, error) {
	key, ok := keys[a.Key]
	if !ok {
		return nil, 0, fmt.Errorf("key %q has no global hotkey code", a.Key)
	}
	mods := make([]hotkey.Modifier, 0, len(a.Modifiers))
	for _, m := range a.Modifiers {
		mod, ok := modifier(m)
		if !ok {
			return nil, 0, fmt.Errorf("modifier %q unsupported on this platform", m)
		}
		mods = append(mods, mod)
	}
	return mods, key, nil
}

var keys = map[string]hotkey.Key{
	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD,
	"E": hotkey.KeyE, "F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH,
	"I": hotkey.KeyI, "J": hotkey.KeyJ, "K": hotkey.KeyK, "L": hotkey.KeyL,
	"M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO, "P": hotkey.KeyP,
	"Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX,
	"Y": hotkey.KeyY, "Z": hotkey.KeyZ,

	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,

	"F1": hotkey.KeyF1, "F2": hotkey.KeyF2, "F3": hotkey.KeyF3, "F4": hotkey.KeyF4,
	"F5": hotkey.KeyF5, "F6": hotkey.KeyF6, "F7": hotkey.KeyF7, "F8": hotkey.KeyF8,
	"F9": hotkey.KeyF9, "F10": hotkey.KeyF10, "F11": hotkey.KeyF11, "F12": hotkey.KeyF12,

	"Escape": hotkey.KeyEscape,
	"Return": hotkey.KeyReturn,
	"Space":  hotkey.KeySpace,
	"Tab":    hotkey.KeyTab,
	"Delete": hotkey.KeyDelete,
	"Left":   hotkey.KeyLeft,
	"Right":  hotkey.KeyRight,
	"Up":     hotkey.KeyUp,
	"Down":   hotkey.KeyDown,
}
