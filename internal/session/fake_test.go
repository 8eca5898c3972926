package session

import (
	"fmt"
	"time"

	"go.klb.dev/pinpaste/internal/imagedata"
)

type sent struct {
	channel string
	payload any
}

type fakeWindow struct {
	id        string
	opts      Options
	visible   bool
	minimized bool
	destroyed bool
	onTop     bool
	focusN    int
	devtools  int
	sent      []sent
}

func (w *fakeWindow) ID() string { return w.id }
func (w *fakeWindow) Show()      { w.visible = true }
func (w *fakeWindow) Hide()      { w.visible = false }
func (w *fakeWindow) Focus()     { w.focusN++ }
func (w *fakeWindow) Restore()   { w.minimized = false }

func (w *fakeWindow) Close() {
	w.destroyed = true
	w.visible = false
}

func (w *fakeWindow) SetAlwaysOnTop(b bool) { w.onTop = b }
func (w *fakeWindow) Send(ch string, p any) { w.sent = append(w.sent, sent{ch, p}) }
func (w *fakeWindow) OpenDevTools()         { w.devtools++ }
func (w *fakeWindow) IsVisible() bool       { return w.visible }
func (w *fakeWindow) IsMinimized() bool     { return w.minimized }
func (w *fakeWindow) IsDestroyed() bool     { return w.destroyed }

type fakeHost struct {
	area    imagedata.Size
	seq     int
	windows []*fakeWindow
	fail    error
}

func (h *fakeHost) CreateWindow(opts Options) (Window, error) {
	if h.fail != nil {
		return nil, h.fail
	}
	h.seq++
	w := &fakeWindow{id: fmt.Sprintf("%s-%d", opts.Kind, h.seq), opts: opts, visible: opts.Show}
	h.windows = append(h.windows, w)
	return w, nil
}

func (h *fakeHost) WorkArea() imagedata.Size { return h.area }

func (h *fakeHost) WindowCount() int {
	n := 0
	for _, w := range h.windows {
		if !w.destroyed {
			n++
		}
	}
	return n
}

func (h *fakeHost) created(kind Kind) []*fakeWindow {
	var out []*fakeWindow
	for _, w := range h.windows {
		if w.opts.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

// fakeTimers queues AfterFunc callbacks until fire is called.
type fakeTimers struct {
	pending []func()
	delays  []time.Duration
}

func (f *fakeTimers) after(d time.Duration, fn func()) {
	f.delays = append(f.delays, d)
	f.pending = append(f.pending, fn)
}

func (f *fakeTimers) fire() {
	p := f.pending
	f.pending = nil
	for _, fn := range p {
		fn()
	}
}
