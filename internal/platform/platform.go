// Package platform wraps the operating system services pinpaste depends on
// outside the window layer: path probing, the save destination, login-item
// registration and opening folders in the file manager.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnsupported is returned for operations this platform cannot perform.
var ErrUnsupported = errors.New("unsupported on " + goos)

const goos = runtime.GOOS

// FirstValid returns the first non-empty candidate accepted by valid.
func FirstValid(candidates []string, valid func(string) bool) (string, bool) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if valid(c) {
			return c, true
		}
	}
	return "", false
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// DirExists reports whether path names an existing directory.
func DirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// Executable returns the path of the running binary, trying os.Executable
// and then argv[0].
func Executable() (string, bool) {
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, exe)
	}
	if len(os.Args) > 0 {
		candidates = append(candidates, os.Args[0])
	}
	return FirstValid(candidates, FileExists)
}

// Runner runs an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Opener opens paths in the platform file manager.
type Opener struct {
	Run Runner
}

// OpenPath opens dir in the file manager.
func (o Opener) OpenPath(ctx context.Context, dir string) error {
	if !DirExists(dir) {
		return fmt.Errorf("open %s: not a directory", dir)
	}
	name, args := openCommand(goos, dir)
	if name == "" {
		return fmt.Errorf("open %s: %w", dir, ErrUnsupported)
	}
	run := o.Run
	if run == nil {
		run = ExecRunner
	}
	slog.Debug("opening folder", "path", dir, "cmd", name)
	if _, err := run(ctx, name, args...); err != nil {
		// explorer.exe exits 1 even when it opened the folder.
		if goos == "windows" {
			var ee *exec.ExitError
			if errors.As(err, &ee) && ee.ExitCode() == 1 {
				return nil
			}
		}
		return fmt.Errorf("open %s: %w", dir, err)
	}
	return nil
}

func openCommand(goos, dir string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{dir}
	case "windows":
		return "explorer", []string{dir}
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		return "xdg-open", []string{dir}
	default:
		return "", nil
	}
}
