// Package app wires the history store, the window session controller and
// the platform collaborators into the operations pinpaste exposes.
//
// Unless noted otherwise App methods must run on the event loop. The methods
// that only touch platform services (EnableAutoLaunch, AutoLaunchStatus,
// OpenStorageFolder) may be called from any goroutine.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/pinpaste/internal/clip"
	"go.klb.dev/pinpaste/internal/fingerprint"
	"go.klb.dev/pinpaste/internal/history"
	"go.klb.dev/pinpaste/internal/imagedata"
	"go.klb.dev/pinpaste/internal/message"
	"go.klb.dev/pinpaste/internal/notify"
	"go.klb.dev/pinpaste/internal/platform"
	"go.klb.dev/pinpaste/internal/session"
	"go.klb.dev/pinpaste/internal/shortcut"
	"go.klb.dev/pinpaste/internal/surface"
)

// Warning texts sent with storage-warning.
const (
	WarnDuplicate    = "image already exists"
	WarnInsufficient = "not enough free disk space to save the image"
	WarnPersist      = "could not save history"
)

var (
	// ErrNoImage is returned when the clipboard holds no image.
	ErrNoImage = errors.New("clipboard holds no image")
	// ErrBadRequest wraps caller mistakes such as an unknown window event.
	ErrBadRequest = errors.New("bad request")
)

// Opener opens a directory in the file manager.
type Opener interface {
	OpenPath(ctx context.Context, dir string) error
}

// Config holds the daemon's tunables.
type Config struct {
	Version  string
	PasteKey string
	Session  session.Config
}

// Deps are the collaborators App composes. Every field is required.
type Deps struct {
	Store      *history.Store
	Host       *surface.Host
	Keys       *shortcut.Registry
	Hub        *notify.Hub
	Clipboard  clip.Provider
	Dialog     platform.SaveDialog
	AutoLaunch platform.AutoLauncher
	Opener     Opener
	// After schedules a callback back onto the event loop.
	After session.AfterFunc
	// Quit is called once after Quit has shut the windows down.
	Quit func()
}

// App is the running pinpaste core.
type App struct {
	cfg        Config
	store      *history.Store
	host       *surface.Host
	keys       *shortcut.Registry
	hub        *notify.Hub
	ctrl       *session.Controller
	clipboard  clip.Provider
	dialog     platform.SaveDialog
	autoLaunch platform.AutoLauncher
	opener     Opener
	quit       func()

	started  time.Time
	quitOnce sync.Once
	saves    sync.WaitGroup
}

// New returns an App. Call Start on the event loop before anything else.
func New(cfg Config, d Deps) *App {
	if cfg.PasteKey == "" {
		cfg.PasteKey = "Shift+V"
	}
	a := &App{
		cfg:        cfg,
		store:      d.Store,
		host:       d.Host,
		keys:       d.Keys,
		hub:        d.Hub,
		clipboard:  d.Clipboard,
		dialog:     d.Dialog,
		autoLaunch: d.AutoLaunch,
		opener:     d.Opener,
		quit:       d.Quit,
	}
	if a.quit == nil {
		a.quit = func() {}
	}
	a.ctrl = session.New(d.Host, d.Keys, d.After, cfg.Session, session.Hooks{
		MainLoaded:  a.sendHistory,
		MainFocused: a.publishStorage,
	})
	return a
}

// Controller returns the window session controller.
func (a *App) Controller() *session.Controller { return a.ctrl }

// Start loads history, creates the hidden main window and binds the paste
// hotkey. A corrupt history file is logged and replaced by an empty list.
func (a *App) Start() error {
	a.started = time.Now()

	if _, err := a.store.Load(); err != nil {
		var cerr *history.CorruptHistoryError
		if !errors.As(err, &cerr) {
			return fmt.Errorf("load history: %w", err)
		}
		slog.Warn("history unreadable, starting empty", "err", err)
	}

	if _, err := a.ctrl.CreateMain(); err != nil {
		return err
	}

	if err := a.keys.Register(a.cfg.PasteKey, a.pasteHotkey); err != nil {
		slog.Warn("paste hotkey unavailable", "accel", a.cfg.PasteKey, "err", err)
	} else {
		slog.Info("paste hotkey bound", "accel", a.cfg.PasteKey)
	}

	a.sendHistory()
	return nil
}

func (a *App) pasteHotkey() {
	if _, err := a.Paste(); err != nil && !errors.Is(err, ErrNoImage) {
		slog.Debug("paste rejected", "err", err)
	}
}

// Paste records the clipboard image and shows it in a floating window.
//
// A duplicate image emits a storage-warning and focuses the image's floating
// window if one is open. A full disk emits a different storage-warning. In
// both cases history is unchanged and no window is created.
func (a *App) Paste() (message.Record, error) {
	data, err := a.clipboard.ReadImage()
	if err != nil {
		slog.Warn("clipboard read failed", "err", err)
		return message.Record{}, fmt.Errorf("read clipboard: %w", err)
	}
	if len(data) == 0 {
		slog.Debug("paste ignored, clipboard holds no image")
		return message.Record{}, ErrNoImage
	}
	uri := imagedata.EncodePNG(data)

	list, rec, err := a.store.Add(uri)
	switch {
	case errors.Is(err, history.ErrDuplicateImage):
		fp := fingerprint.OfString(uri)
		slog.Info("paste rejected, duplicate image", "fingerprint", fp.Short())
		a.hub.Publish(message.EventStorageWarning, WarnDuplicate)
		if win, ok := a.ctrl.Floating(fp); ok {
			win.Focus()
		}
		return message.Record{}, err
	case errors.Is(err, history.ErrInsufficientStorage):
		slog.Warn("paste rejected, low disk space", "available_gib", a.store.AvailableSpace())
		a.hub.Publish(message.EventStorageWarning, WarnInsufficient)
		return message.Record{}, err
	case err != nil:
		slog.Error("paste failed", "err", err)
		a.hub.Publish(message.EventStorageWarning, fmt.Sprintf("%s: %v", WarnPersist, err))
		return message.Record{}, err
	}

	slog.Info("image pasted", "id", rec.ID, "fingerprint", rec.Fingerprint().Short(), "count", len(list))
	a.publishHistory(list)
	if _, _, err := a.ctrl.OpenOrFocus(rec.Fingerprint(), rec.ImageData); err != nil {
		slog.Warn("pasted image not shown", "id", rec.ID, "err", err)
	}
	return toMessage(rec, false), nil
}

// ShowImage opens or focuses the floating window for imageData.
func (a *App) ShowImage(imageData string) (message.ShowResponse, error) {
	if imageData == "" {
		return message.ShowResponse{}, fmt.Errorf("%w: no image data", ErrBadRequest)
	}
	win, created, err := a.ctrl.OpenOrFocus(fingerprint.OfString(imageData), imageData)
	if err != nil {
		return message.ShowResponse{}, err
	}
	return message.ShowResponse{Window: win.ID(), Created: created}, nil
}

// ShowRecord opens or focuses the floating window for the record id.
func (a *App) ShowRecord(id string) (message.ShowResponse, error) {
	rec, ok := a.store.Get(id)
	if !ok {
		return message.ShowResponse{}, fmt.Errorf("show %s: %w", id, history.ErrNotFound)
	}
	return a.ShowImage(rec.ImageData)
}

// Edit opens the edit window for imageData.
func (a *App) Edit(imageData string) (string, error) {
	win, err := a.ctrl.OpenEditor(imageData)
	if err != nil {
		return "", err
	}
	return win.ID(), nil
}

// EditRecord opens the edit window for the record id.
func (a *App) EditRecord(id string) (string, error) {
	rec, ok := a.store.Get(id)
	if !ok {
		return "", fmt.Errorf("edit %s: %w", id, history.ErrNotFound)
	}
	return a.Edit(rec.ImageData)
}

// Delete removes a record. An unknown id changes nothing, emits nothing and
// returns history.ErrNotFound.
func (a *App) Delete(id string) error {
	list, err := a.store.Delete(id)
	if errors.Is(err, history.ErrNotFound) {
		slog.Debug("delete ignored, no such record", "id", id)
		return err
	}
	if err != nil {
		slog.Error("delete failed", "id", id, "err", err)
		return err
	}
	slog.Info("record deleted", "id", id, "count", len(list))
	a.publishHistory(list)
	return nil
}

// Clear empties the history.
func (a *App) Clear() error {
	list, err := a.store.Clear()
	if err != nil {
		slog.Error("clear failed", "err", err)
		return err
	}
	slog.Info("history cleared")
	a.publishHistory(list)
	return nil
}

// History returns the current list, newest first.
func (a *App) History(withImages bool) message.HistoryResponse {
	info := a.storageInfo()
	return message.HistoryResponse{
		Records: toMessages(a.store.Records(), withImages),
		Storage: &info,
	}
}

// Record returns one record with its image.
func (a *App) Record(id string) (message.Record, error) {
	rec, ok := a.store.Get(id)
	if !ok {
		return message.Record{}, fmt.Errorf("record %s: %w", id, history.ErrNotFound)
	}
	return toMessage(rec, true), nil
}

// StorageInfo returns the storage summary and publishes it.
func (a *App) StorageInfo() message.StorageInfo {
	info := a.storageInfo()
	a.hub.Publish(message.EventStorageInfo, info)
	return info
}

func (a *App) storageInfo() message.StorageInfo {
	si := a.store.Info()
	return message.StorageInfo{
		AvailableGiB: si.AvailableGiB,
		UsedMiB:      si.UsedMiB,
		UsedBytes:    si.UsedBytes,
		TotalCount:   si.TotalCount,
		Path:         a.store.Path(),
	}
}

// Toggle flips the main window between shown and hidden.
func (a *App) Toggle() string {
	a.ctrl.Toggle()
	return a.ctrl.State().String()
}

// Activate handles reactivation from the dock or taskbar.
func (a *App) Activate() bool { return a.ctrl.Activate() }

// Quit releases every hotkey, closes all windows and signals the daemon to
// exit. Later calls do nothing.
func (a *App) Quit() {
	a.quitOnce.Do(func() {
		slog.Info("quitting")
		if err := a.ctrl.Shutdown(); err != nil {
			slog.Warn("shutdown", "err", err)
		}
		a.quit()
	})
}

// HandleWindowEvent applies a renderer-observed window event. For
// close-requested the result tells the renderer whether to close.
func (a *App) HandleWindowEvent(id string, kind message.WindowEventKind) (bool, error) {
	switch kind {
	case message.WindowFocus, message.WindowBlur, message.WindowCloseRequested,
		message.WindowClosed, message.WindowLoaded, message.WindowMinimized,
		message.WindowRestored, message.WindowShown, message.WindowHidden:
	default:
		return false, fmt.Errorf("%w: unknown window event %q", ErrBadRequest, kind)
	}
	a.host.Observe(id, kind)
	return a.ctrl.HandleEvent(id, session.EventKind(kind)), nil
}

// ReportDisplay records the primary display work area.
func (a *App) ReportDisplay(width, height int) error {
	if !a.host.SetWorkArea(imagedata.Size{Width: width, Height: height}) {
		return fmt.Errorf("%w: display %dx%d", ErrBadRequest, width, height)
	}
	return nil
}

// Status describes the running daemon.
func (a *App) Status() message.StatusResponse {
	st := message.StatusResponse{
		Version:     a.cfg.Version,
		StartedAt:   a.started,
		HistoryFile: a.store.Path(),
		Storage:     a.storageInfo(),
		MainWindow:  a.ctrl.State().String(),
		Hotkeys:     a.keys.Bound(),
		Clipboard:   a.clipboard.Name(),
		Subscribers: a.hub.Subscribers(),
	}
	if a.ctrl.Main() == nil {
		st.MainWindow = "closed"
	}
	for _, fp := range a.ctrl.FloatingKeys() {
		st.Floating = append(st.Floating, fp.Short())
	}
	if area, ok := a.host.Reported(); ok {
		st.Display = &message.DisplayRequest{Width: area.Width, Height: area.Height}
	}
	return st
}

// Wait blocks until in-flight saves finish.
func (a *App) Wait() { a.saves.Wait() }

// sendHistory publishes the full list for a freshly loaded renderer.
func (a *App) sendHistory() {
	a.hub.Publish(message.EventHistoryLoaded, toMessages(a.store.Records(), true))
	a.publishStorage()
}

func (a *App) publishHistory(list []history.Record) {
	a.hub.Publish(message.EventHistoryUpdated, toMessages(list, true))
	a.publishStorage()
}

func (a *App) publishStorage() {
	info := a.storageInfo()
	slog.Debug("storage info",
		"available_gib", info.AvailableGiB,
		"used_mib", info.UsedMiB,
		"count", info.TotalCount,
	)
	a.hub.Publish(message.EventStorageInfo, info)
}

func toMessage(r history.Record, withImage bool) message.Record {
	m := message.Record{
		ID:          r.ID,
		Timestamp:   r.Timestamp,
		Fingerprint: r.Fingerprint().String(),
	}
	if withImage {
		m.ImageData = r.ImageData
	}
	return m
}

func toMessages(list []history.Record, withImages bool) []message.Record {
	out := make([]message.Record, 0, len(list))
	for _, r := range list {
		out = append(out, toMessage(r, withImages))
	}
	return out
}
