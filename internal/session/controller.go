package session

import (
	"fmt"
	"log/slog"
	"slices"

	"go.klb.dev/pinpaste/internal/fingerprint"
	"go.klb.dev/pinpaste/internal/shortcut"
)

// tracked is a window the controller created and has not yet seen close.
type tracked struct {
	win  Window
	kind Kind
	// fp keys floating windows.
	fp fingerprint.Digest
	// payload is delivered on EventLoaded.
	payload string
}

// Controller owns the main window state machine and the floating window
// registry.
type Controller struct {
	host  Host
	keys  *shortcut.Registry
	after AfterFunc
	cfg   Config
	hooks Hooks

	main     Window
	state    State
	quitting bool

	windows  map[string]*tracked            // window id → window
	floating map[fingerprint.Digest]*tracked // one per distinct image
	focused  string                          // id of the window holding input focus
}

// New returns a Controller. No window exists until CreateMain.
func New(host Host, keys *shortcut.Registry, after AfterFunc, cfg Config, hooks Hooks) *Controller {
	cfg.applyDefaults()
	return &Controller{
		host:     host,
		keys:     keys,
		after:    after,
		cfg:      cfg,
		hooks:    hooks,
		state:    Hidden,
		windows:  make(map[string]*tracked),
		floating: make(map[fingerprint.Digest]*tracked),
	}
}

// State returns the main window state.
func (c *Controller) State() State { return c.state }

// Main returns the main window, or nil if there is none.
func (c *Controller) Main() Window {
	if c.main == nil || c.main.IsDestroyed() {
		return nil
	}
	return c.main
}

// Quitting reports whether the process is exiting.
func (c *Controller) Quitting() bool { return c.quitting }

// SetQuitting marks the process as exiting; closing the main window then
// destroys it instead of hiding it.
func (c *Controller) SetQuitting(q bool) { c.quitting = q }

// CreateMain creates the main window, initially hidden.
func (c *Controller) CreateMain() (Window, error) {
	win, err := c.host.CreateWindow(Options{
		Kind:   KindMain,
		Title:  "pinpaste",
		Page:   "index.html",
		Icon:   c.cfg.Icon,
		Width:  c.cfg.MainWidth,
		Height: c.cfg.MainHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("create main window: %w", err)
	}
	c.main = win
	c.state = Hidden
	c.windows[win.ID()] = &tracked{win: win, kind: KindMain}
	slog.Info("main window created", "window", win.ID())
	if c.hooks.MainCreated != nil {
		c.hooks.MainCreated()
	}
	return win, nil
}

// Toggle shows the main window if it is hidden, minimized or not visible,
// and hides it otherwise. A missing main window is recreated and shown.
func (c *Controller) Toggle() {
	main := c.Main()
	if main == nil {
		slog.Info("main window missing, recreating")
		if _, err := c.CreateMain(); err != nil {
			slog.Error("recreate main window failed", "err", err)
			return
		}
		c.ShowMain()
		return
	}

	visible, minimized := main.IsVisible(), main.IsMinimized()
	slog.Debug("toggle main window",
		"state", c.state,
		"visible", visible,
		"minimized", minimized,
	)
	if c.state != Visible || !visible || minimized {
		c.ShowMain()
		return
	}
	c.HideMain()
}

// ShowMain restores, shows and focuses the main window, then briefly keeps
// it above other windows so platforms that block focus stealing still raise
// it.
func (c *Controller) ShowMain() {
	main := c.Main()
	if main == nil {
		slog.Warn("main window missing, cannot show")
		return
	}
	if main.IsMinimized() {
		main.Restore()
	}
	main.Show()
	main.Focus()
	c.state = Visible

	main.SetAlwaysOnTop(true)
	c.after(c.cfg.TopmostPulse, func() {
		if c.main == main && !main.IsDestroyed() {
			main.SetAlwaysOnTop(false)
		}
	})
}

// HideMain hides the main window without destroying it.
func (c *Controller) HideMain() {
	main := c.Main()
	if main == nil {
		return
	}
	main.Hide()
	c.state = Hidden
}

// Activate handles dock or taskbar reactivation. With no windows open the
// main window is recreated and shown. It reports whether a window was created.
func (c *Controller) Activate() bool {
	if c.host.WindowCount() > 0 {
		return false
	}
	if _, err := c.CreateMain(); err != nil {
		slog.Error("recreate main window failed", "err", err)
		return false
	}
	c.ShowMain()
	return true
}

// RequestClose decides whether a window may close. The main window is hidden
// instead unless the process is quitting.
func (c *Controller) RequestClose(id string) bool {
	t, ok := c.windows[id]
	if !ok || t.kind != KindMain {
		return true
	}
	if c.quitting {
		slog.Info("quitting, main window closing", "window", id)
		return true
	}
	slog.Debug("main window close intercepted, hiding", "window", id)
	c.HideMain()
	return false
}

// HandleEvent applies a host-observed window event. The result only matters
// for EventCloseRequested, where it tells the host whether to close.
func (c *Controller) HandleEvent(id string, kind EventKind) bool {
	t, ok := c.windows[id]
	if !ok {
		// Late events for windows already forgotten, e.g. a load finishing
		// after the window closed.
		slog.Debug("event for unknown window ignored", "window", id, "event", kind)
		return true
	}

	switch kind {
	case EventFocus:
		c.onFocus(t)
	case EventBlur:
		c.onBlur(t)
	case EventCloseRequested:
		return c.RequestClose(id)
	case EventClosed:
		c.forget(t)
	case EventLoaded:
		c.onLoaded(t)
	case EventMinimized:
		if t.kind == KindMain {
			c.state = Minimized
		}
	case EventRestored, EventShown:
		if t.kind == KindMain {
			c.state = Visible
		}
	case EventHidden:
		if t.kind == KindMain {
			c.state = Hidden
		}
	default:
		slog.Warn("unknown window event", "window", id, "event", kind)
	}
	return true
}

func (c *Controller) onFocus(t *tracked) {
	c.focused = t.win.ID()
	c.bindFor(t.kind)
	if t.kind == KindMain {
		c.state = Visible
		if c.hooks.MainFocused != nil {
			c.hooks.MainFocused()
		}
	}
}

func (c *Controller) onBlur(t *tracked) {
	// Focus may already have moved to another window, which now owns the
	// scoped bindings.
	if c.focused != t.win.ID() {
		return
	}
	c.focused = ""
	c.unbindScoped()
}

func (c *Controller) onLoaded(t *tracked) {
	switch t.kind {
	case KindMain:
		if c.hooks.MainLoaded != nil {
			c.hooks.MainLoaded()
		}
	case KindFloating:
		t.win.Send(ChannelSetImage, t.payload)
	case KindEdit:
		t.win.Send(ChannelSetImage, t.payload)
		t.win.Show()
	}
}

// bindFor makes the scoped bindings match what a focused window of kind
// needs: every window gets dev tools; floating windows also get close.
func (c *Controller) bindFor(kind Kind) {
	if err := c.keys.Register(c.cfg.DevToolsKey, c.openDevTools); err != nil {
		slog.Warn("dev tools hotkey unavailable", "err", err)
	}
	if kind == KindFloating {
		if err := c.keys.Register(c.cfg.CloseKey, c.closeFocusedFloating); err != nil {
			slog.Warn("close hotkey unavailable", "err", err)
		}
		return
	}
	if err := c.keys.Unregister(c.cfg.CloseKey); err != nil {
		slog.Warn("close hotkey release failed", "err", err)
	}
}

func (c *Controller) unbindScoped() {
	if err := c.keys.Unregister(c.cfg.CloseKey); err != nil {
		slog.Warn("close hotkey release failed", "err", err)
	}
	if err := c.keys.Unregister(c.cfg.DevToolsKey); err != nil {
		slog.Warn("dev tools hotkey release failed", "err", err)
	}
}

func (c *Controller) openDevTools() {
	if t, ok := c.windows[c.focused]; ok {
		t.win.OpenDevTools()
		return
	}
	if main := c.Main(); main != nil {
		main.OpenDevTools()
	}
}

// forget drops every reference to a closed window.
func (c *Controller) forget(t *tracked) {
	id := t.win.ID()
	delete(c.windows, id)
	if t.kind == KindFloating {
		if cur, ok := c.floating[t.fp]; ok && cur == t {
			delete(c.floating, t.fp)
		}
	}
	if c.focused == id {
		c.focused = ""
		c.unbindScoped()
	}
	if t.kind == KindMain && c.main == t.win {
		c.main = nil
		c.state = Hidden
	}
	slog.Debug("window forgotten", "window", id, "kind", t.kind)
}

// Shutdown marks the process as quitting, releases every hotkey and closes
// all windows.
func (c *Controller) Shutdown() error {
	c.quitting = true
	err := c.keys.UnregisterAll()

	ids := make([]string, 0, len(c.windows))
	for id := range c.windows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		t := c.windows[id]
		t.win.Close()
		c.forget(t)
	}
	if err != nil {
		return fmt.Errorf("release hotkeys: %w", err)
	}
	return nil
}

// Focused returns the id of the window holding focus, or "".
func (c *Controller) Focused() string { return c.focused }
