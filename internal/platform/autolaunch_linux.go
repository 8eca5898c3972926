package platform

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// xdgAutostart writes a freedesktop autostart entry.
type xdgAutostart struct {
	path string
	exe  string
}

// NewAutoLauncher returns the login-item manager for this platform. exe is
// the binary to launch; run executes helper commands where the platform
// needs them.
func NewAutoLauncher(exe string, _ Runner) AutoLauncher {
	return &xdgAutostart{
		path: filepath.Join(configHome(), "autostart", AppName+".desktop"),
		exe:  exe,
	}
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config")
	}
	return ".config"
}

func (a *xdgAutostart) Enabled(context.Context) (bool, error) {
	data, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read autostart entry: %w", err)
	}
	hasExec := false
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		k, v, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch k {
		case "Exec":
			hasExec = strings.TrimSpace(v) != ""
		case "Hidden", "X-GNOME-Autostart-enabled":
			b, _ := strconv.ParseBool(strings.TrimSpace(v))
			if (k == "Hidden") == b {
				return false, nil
			}
		}
	}
	return hasExec, nil
}

func (a *xdgAutostart) Enable(ctx context.Context) error {
	if a.exe == "" {
		return fmt.Errorf("enable login item: executable path unknown")
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("enable login item: %w", err)
	}
	if err := os.WriteFile(a.path, []byte(desktopEntry(a.exe)), 0o644); err != nil {
		return fmt.Errorf("enable login item: %w", err)
	}
	ok, err := a.Enabled(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("enable login item: %s not recognised after write", a.path)
	}
	slog.Info("autostart entry written", "path", a.path)
	return nil
}

func desktopEntry(exe string) string {
	args := LaunchCommand(exe)
	for i, s := range args {
		if strings.ContainsAny(s, " \t\"'\\") {
			args[i] = strconv.Quote(s)
		}
	}
	return strings.Join([]string{
		"[Desktop Entry]",
		"Type=Application",
		"Name=" + AppName,
		"Comment=Clipboard image history",
		"Exec=" + strings.Join(args, " "),
		"Terminal=false",
		"NoDisplay=true",
		"Hidden=false",
		"X-GNOME-Autostart-enabled=true",
		"",
	}, "\n")
}
