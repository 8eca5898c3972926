// Package surface implements session.Host on top of an external renderer.
//
// Every window operation becomes a message.WindowCommand published on the
// notify hub as a "window" event; the renderer applies it and reports what it
// observes back through Observe. The host keeps its own view of each window so
// that the session controller can query visibility without a round trip.
package surface

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"go.klb.dev/pinpaste/internal/imagedata"
	"go.klb.dev/pinpaste/internal/message"
	"go.klb.dev/pinpaste/internal/notify"
	"go.klb.dev/pinpaste/internal/session"
)

// DefaultWorkArea is assumed until the renderer reports a display.
var DefaultWorkArea = imagedata.Size{Width: 1920, Height: 1080}

// Publisher is the subset of notify.Hub the host needs.
type Publisher interface {
	Publish(typ message.EventType, payload any)
}

var _ Publisher = (*notify.Hub)(nil)

// Host is a session.Host whose windows live in the renderer.
type Host struct {
	pub Publisher

	mu       sync.Mutex
	seq      int
	windows  map[string]*Window
	area     imagedata.Size
	reported bool
}

var _ session.Host = (*Host)(nil)

// New returns a Host with no windows and the default work area.
func New(pub Publisher) *Host {
	return &Host{
		pub:     pub,
		windows: make(map[string]*Window),
		area:    DefaultWorkArea,
	}
}

// CreateWindow implements session.Host.
func (h *Host) CreateWindow(opts session.Options) (session.Window, error) {
	if opts.Kind == "" {
		return nil, fmt.Errorf("create window: missing kind")
	}

	h.mu.Lock()
	h.seq++
	w := &Window{
		host:    h,
		id:      fmt.Sprintf("%s-%d", opts.Kind, h.seq),
		opts:    opts,
		visible: opts.Show,
	}
	h.windows[w.id] = w
	h.mu.Unlock()

	h.publish(message.WindowCommand{Window: w.id, Op: message.OpCreate, Options: wireOptions(opts)})
	slog.Debug("window created", "window", w.id, "width", opts.Width, "height", opts.Height)
	return w, nil
}

// WorkArea implements session.Host.
func (h *Host) WorkArea() imagedata.Size {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.area
}

// SetWorkArea records the primary display size reported by the renderer.
// Non-positive sizes are ignored.
func (h *Host) SetWorkArea(size imagedata.Size) bool {
	if size.Width <= 0 || size.Height <= 0 {
		return false
	}
	h.mu.Lock()
	h.area = size
	h.reported = true
	h.mu.Unlock()
	slog.Info("display reported", "width", size.Width, "height", size.Height)
	return true
}

// Reported returns the renderer-reported work area, if any.
func (h *Host) Reported() (imagedata.Size, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.area, h.reported
}

// WindowCount implements session.Host.
func (h *Host) WindowCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.windows)
}

// Windows returns the ids of open windows, sorted.
func (h *Host) Windows() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.windows))
	for id := range h.windows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Observe folds a renderer-reported event into the host's view of window id.
// It reports whether the window is known.
func (h *Host) Observe(id string, kind message.WindowEventKind) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return false
	}
	switch kind {
	case message.WindowClosed:
		w.destroyed = true
		w.visible = false
		delete(h.windows, id)
	case message.WindowMinimized:
		w.minimized = true
	case message.WindowRestored:
		w.minimized = false
		w.visible = true
	case message.WindowShown:
		w.visible = true
	case message.WindowHidden:
		w.visible = false
	}
	return true
}

// Snapshot returns create commands that rebuild every open window in its
// current visibility, for a renderer that connects after windows exist.
func (h *Host) Snapshot() []message.WindowCommand {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.windows))
	for id := range h.windows {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]message.WindowCommand, 0, len(ids))
	for _, id := range ids {
		w := h.windows[id]
		opts := w.opts
		opts.Show = w.visible
		out = append(out, message.WindowCommand{Window: id, Op: message.OpCreate, Options: wireOptions(opts)})
	}
	return out
}

func (h *Host) publish(cmd message.WindowCommand) {
	h.pub.Publish(message.EventWindow, cmd)
}

func wireOptions(opts session.Options) *message.WindowOptions {
	wo := &message.WindowOptions{
		Kind:        string(opts.Kind),
		Title:       opts.Title,
		Page:        opts.Page,
		Icon:        opts.Icon,
		Width:       opts.Width,
		Height:      opts.Height,
		Frameless:   opts.Frameless,
		Transparent: opts.Transparent,
		AlwaysOnTop: opts.AlwaysOnTop,
		SkipTaskbar: opts.SkipTaskbar,
		Show:        opts.Show,
	}
	if opts.Positioned {
		x, y := opts.X, opts.Y
		wo.X, wo.Y = &x, &y
	}
	return wo
}
