//go:build darwin || windows || linux

package clip

import (
	"log/slog"

	"golang.design/x/clipboard"
)

type desktop struct{}

// New returns the system clipboard, or Headless if the display environment
// is unavailable. clipboard.Init is called here rather than in init() so that
// CLI sub-commands that never read the clipboard don't log spurious warnings.
func New() Provider {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return Headless{}
	}
	return desktop{}
}

func (desktop) Name() string { return "system clipboard" }

func (desktop) ReadImage() ([]byte, error) {
	img := clipboard.Read(clipboard.FmtImage)
	if len(img) == 0 {
		return nil, nil
	}
	return img, nil
}
