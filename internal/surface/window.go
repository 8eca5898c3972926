package surface

import (
	"encoding/json"
	"log/slog"

	"go.klb.dev/pinpaste/internal/message"
	"go.klb.dev/pinpaste/internal/session"
)

// Window is a renderer window as seen by the daemon.
type Window struct {
	host *Host
	id   string
	opts session.Options

	// Guarded by host.mu.
	visible   bool
	minimized bool
	destroyed bool
}

var _ session.Window = (*Window)(nil)

func (w *Window) ID() string { return w.id }

func (w *Window) Show() {
	if w.set(func() { w.visible = true }) {
		w.command(message.OpShow)
	}
}

func (w *Window) Hide() {
	if w.set(func() { w.visible = false }) {
		w.command(message.OpHide)
	}
}

func (w *Window) Focus() {
	if w.set(nil) {
		w.command(message.OpFocus)
	}
}

func (w *Window) Restore() {
	if w.set(func() { w.minimized = false }) {
		w.command(message.OpRestore)
	}
}

// Close tells the renderer to close the window without asking again. The
// window counts as destroyed from here on.
func (w *Window) Close() {
	h := w.host
	h.mu.Lock()
	if w.destroyed {
		h.mu.Unlock()
		return
	}
	w.destroyed = true
	w.visible = false
	delete(h.windows, w.id)
	h.mu.Unlock()
	w.command(message.OpClose)
}

func (w *Window) SetAlwaysOnTop(on bool) {
	if w.set(nil) {
		w.host.publish(message.WindowCommand{Window: w.id, Op: message.OpAlwaysOnTop, Flag: on})
	}
}

// Send delivers payload to the window content on channel. Payloads that
// cannot be encoded are logged and dropped.
func (w *Window) Send(channel string, payload any) {
	if !w.set(nil) {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("window send: encode payload", "window", w.id, "channel", channel, "err", err)
		return
	}
	w.host.publish(message.WindowCommand{Window: w.id, Op: message.OpSend, Channel: channel, Data: data})
}

func (w *Window) OpenDevTools() {
	if w.set(nil) {
		w.command(message.OpDevTools)
	}
}

func (w *Window) IsVisible() bool {
	w.host.mu.Lock()
	defer w.host.mu.Unlock()
	return w.visible && !w.destroyed
}

func (w *Window) IsMinimized() bool {
	w.host.mu.Lock()
	defer w.host.mu.Unlock()
	return w.minimized
}

func (w *Window) IsDestroyed() bool {
	w.host.mu.Lock()
	defer w.host.mu.Unlock()
	return w.destroyed
}

// set applies fn under the host lock and reports whether the window is
// still live. Commands to destroyed windows are dropped.
func (w *Window) set(fn func()) bool {
	w.host.mu.Lock()
	defer w.host.mu.Unlock()
	if w.destroyed {
		slog.Debug("command for destroyed window dropped", "window", w.id)
		return false
	}
	if fn != nil {
		fn()
	}
	return true
}

func (w *Window) command(op message.WindowOp) {
	w.host.publish(message.WindowCommand{Window: w.id, Op: op})
}
