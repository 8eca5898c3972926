package session

import (
	"fmt"
	"log/slog"
	"slices"

	"go.klb.dev/pinpaste/internal/fingerprint"
	"go.klb.dev/pinpaste/internal/imagedata"
)

// OpenOrFocus shows the image in its floating window. If a live window is
// already keyed by fp it is focused and created is false. Otherwise a
// frameless, transparent, always-on-top window sized to the image (capped to
// a fraction of the work area) is created in the centre of the display.
//
// Images that fail to decode create nothing and return an error wrapping
// *imagedata.DecodeError.
func (c *Controller) OpenOrFocus(fp fingerprint.Digest, imageData string) (win Window, created bool, err error) {
	if t, ok := c.floating[fp]; ok {
		if !t.win.IsDestroyed() {
			slog.Debug("floating window exists, focusing", "fingerprint", fp.Short(), "window", t.win.ID())
			t.win.Focus()
			return t.win, false, nil
		}
		c.forget(t)
	}

	natural, err := imagedata.Dimensions(imageData)
	if err != nil {
		slog.Warn("cannot open floating window", "fingerprint", fp.Short(), "err", err)
		return nil, false, fmt.Errorf("open floating window: %w", err)
	}

	area := c.host.WorkArea()
	size := Fit(natural, area, c.cfg.MaxScreenFraction)
	x, y := Center(size, area)

	win, err = c.host.CreateWindow(Options{
		Kind:        KindFloating,
		Page:        "floating.html",
		Width:       size.Width,
		Height:      size.Height,
		X:           x,
		Y:           y,
		Positioned:  true,
		Frameless:   true,
		Transparent: true,
		AlwaysOnTop: true,
		SkipTaskbar: true,
		Show:        true,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create floating window: %w", err)
	}

	t := &tracked{win: win, kind: KindFloating, fp: fp, payload: imageData}
	c.windows[win.ID()] = t
	c.floating[fp] = t
	slog.Info("floating window created",
		"window", win.ID(),
		"fingerprint", fp.Short(),
		"natural", fmt.Sprintf("%dx%d", natural.Width, natural.Height),
		"size", fmt.Sprintf("%dx%d", size.Width, size.Height),
	)
	return win, true, nil
}

// Floating returns the live floating window for fp.
func (c *Controller) Floating(fp fingerprint.Digest) (Window, bool) {
	t, ok := c.floating[fp]
	if !ok || t.win.IsDestroyed() {
		return nil, false
	}
	return t.win, true
}

// FloatingKeys returns the fingerprints with a floating window, sorted.
func (c *Controller) FloatingKeys() []fingerprint.Digest {
	out := make([]fingerprint.Digest, 0, len(c.floating))
	for fp := range c.floating {
		out = append(out, fp)
	}
	slices.SortFunc(out, func(a, b fingerprint.Digest) int {
		return slices.Compare(a[:], b[:])
	})
	return out
}

// CloseFloating closes the floating window for fp and reports whether there
// was one.
func (c *Controller) CloseFloating(fp fingerprint.Digest) bool {
	t, ok := c.floating[fp]
	if !ok {
		return false
	}
	t.win.Close()
	c.forget(t)
	slog.Info("floating window closed", "window", t.win.ID(), "fingerprint", fp.Short())
	return true
}

// closeFocusedFloating is the close hotkey handler. It resolves the target
// when the key fires, so the binding can outlive a focus change.
func (c *Controller) closeFocusedFloating() {
	t, ok := c.windows[c.focused]
	if !ok || t.kind != KindFloating {
		return
	}
	c.CloseFloating(t.fp)
}

// OpenEditor opens the edit window for imageData. The window stays hidden
// until its content has loaded and received the image.
func (c *Controller) OpenEditor(imageData string) (Window, error) {
	if _, err := imagedata.Dimensions(imageData); err != nil {
		slog.Warn("cannot open edit window", "err", err)
		return nil, fmt.Errorf("open edit window: %w", err)
	}
	win, err := c.host.CreateWindow(Options{
		Kind:   KindEdit,
		Title:  "Edit image",
		Page:   "edit.html",
		Icon:   c.cfg.Icon,
		Width:  c.cfg.EditWidth,
		Height: c.cfg.EditHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("create edit window: %w", err)
	}
	c.windows[win.ID()] = &tracked{win: win, kind: KindEdit, payload: imageData}
	slog.Info("edit window created", "window", win.ID())
	return win, nil
}
