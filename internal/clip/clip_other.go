//go:build !darwin && !windows && !linux

package clip

import "log/slog"

// New returns Headless; this platform has no supported clipboard.
func New() Provider {
	slog.Warn("clipboard unsupported on this platform, running headless")
	return Headless{}
}
