package shortcut

import (
	"fmt"
	"sync"
)

// MemoryBinder is an in-process Binder. Bindings never fire from the OS; Fire
// invokes them directly. It backs --no-hotkeys mode and tests.
type MemoryBinder struct {
	mu       sync.Mutex
	handlers map[string]Handler
	binds    int
	unbinds  int
}

// NewMemoryBinder returns an empty MemoryBinder.
func NewMemoryBinder() *MemoryBinder {
	return &MemoryBinder{handlers: make(map[string]Handler)}
}

// Bind implements Binder. Binding an accelerator twice is an error, matching
// OS hotkey layers that refuse duplicate grabs.
func (b *MemoryBinder) Bind(accel string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[accel]; ok {
		return fmt.Errorf("%s already bound", accel)
	}
	b.handlers[accel] = h
	b.binds++
	return nil
}

// Unbind implements Binder.
func (b *MemoryBinder) Unbind(accel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[accel]; !ok {
		return fmt.Errorf("%s not bound", accel)
	}
	delete(b.handlers, accel)
	b.unbinds++
	return nil
}

// Fire invokes the handler bound to accel and reports whether one was bound.
func (b *MemoryBinder) Fire(accel string) bool {
	b.mu.Lock()
	h, ok := b.handlers[accel]
	b.mu.Unlock()
	if ok {
		h()
	}
	return ok
}

// IsBound reports whether accel is bound.
func (b *MemoryBinder) IsBound(accel string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.handlers[accel]
	return ok
}

// Counts returns the total number of successful binds and unbinds.
func (b *MemoryBinder) Counts() (binds, unbinds int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.binds, b.unbinds
}
