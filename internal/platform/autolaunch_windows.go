package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const runKey = `Software\Microsoft\Windows\CurrentVersion\Run`

// runValue registers the daemon under the per-user Run key.
type runValue struct {
	exe string
}

// NewAutoLauncher returns the login-item manager for this platform. exe is
// the binary to launch.
func NewAutoLauncher(exe string, _ Runner) AutoLauncher {
	return &runValue{exe: exe}
}

func (a *runValue) command() string {
	args := LaunchCommand(a.exe)
	args[0] = `"` + args[0] + `"`
	return strings.Join(args, " ")
}

func (a *runValue) Enabled(context.Context) (bool, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKey, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open run key: %w", err)
	}
	defer k.Close()
	v, _, err := k.GetStringValue(AppName)
	if errors.Is(err, registry.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read run value: %w", err)
	}
	return v != "", nil
}

func (a *runValue) Enable(ctx context.Context) error {
	if a.exe == "" {
		return fmt.Errorf("enable login item: executable path unknown")
	}
	k, _, err := registry.CreateKey(registry.CURRENT_USER, runKey, registry.SET_VALUE|registry.QUERY_VALUE)
	if err != nil {
		return fmt.Errorf("enable login item: %w", err)
	}
	defer k.Close()
	if err := k.SetStringValue(AppName, a.command()); err != nil {
		return fmt.Errorf("enable login item: %w", err)
	}
	slog.Info("run key written", "key", runKey, "value", AppName)
	return nil
}
