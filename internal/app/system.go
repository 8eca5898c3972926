package app

import (
	"context"
	"errors"
	"log/slog"

	"go.klb.dev/pinpaste/internal/message"
	"go.klb.dev/pinpaste/internal/platform"
)

// Hints sent with auto-launch-error.
const (
	HintManualLoginItem = "add pinpaste to your login items manually in the system settings"
	HintUnsupported     = "start at login is not supported on this platform"
)

// AutoLaunchStatus reports whether pinpaste starts at login and publishes
// auto-launch-status. Lookup failures read as disabled.
func (a *App) AutoLaunchStatus(ctx context.Context) message.AutoLaunchResponse {
	enabled, err := a.autoLaunch.Enabled(ctx)
	res := message.AutoLaunchResponse{Enabled: enabled && err == nil}
	if err != nil {
		slog.Warn("auto-launch status unavailable", "err", err)
		res.Error = err.Error()
	}
	a.hub.Publish(message.EventAutoLaunchStatus, res.Enabled)
	return res
}

// EnableAutoLaunch registers pinpaste to start at login and verifies the
// result. Failure is not fatal: it publishes auto-launch-enabled false and an
// auto-launch-error carrying a hint.
func (a *App) EnableAutoLaunch(ctx context.Context) message.AutoLaunchResponse {
	err := a.autoLaunch.Enable(ctx)
	enabled := false
	if err == nil {
		enabled, err = a.autoLaunch.Enabled(ctx)
	}
	if err == nil && enabled {
		slog.Info("auto-launch enabled")
		a.hub.Publish(message.EventAutoLaunchEnabled, true)
		return message.AutoLaunchResponse{Enabled: true}
	}

	hint := HintManualLoginItem
	if errors.Is(err, platform.ErrUnsupported) {
		hint = HintUnsupported
	}
	slog.Warn("auto-launch not enabled", "err", err)
	a.hub.Publish(message.EventAutoLaunchEnabled, false)
	a.hub.Publish(message.EventAutoLaunchError, hint)
	return message.AutoLaunchResponse{Enabled: false, Error: hint}
}

// OpenStorageFolder opens the directory holding the history file. Failures
// publish folder-open-error.
func (a *App) OpenStorageFolder(ctx context.Context) error {
	dir := a.store.Dir()
	if err := a.opener.OpenPath(ctx, dir); err != nil {
		slog.Warn("open storage folder failed", "path", dir, "err", err)
		a.hub.Publish(message.EventFolderOpenError, "could not open the storage folder")
		return err
	}
	slog.Info("storage folder opened", "path", dir)
	return nil
}
