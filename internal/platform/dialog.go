package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SaveDialog picks where an image is written. ok is false when the user
// cancelled.
type SaveDialog interface {
	SavePath(ctx context.Context) (path string, ok bool, err error)
}

// DefaultDialog proposes screenshot-<unix-ms>.png in Dir without asking.
type DefaultDialog struct {
	Dir string
	Now func() time.Time
}

var _ SaveDialog = DefaultDialog{}

// SavePath implements SaveDialog. Dir is created if missing.
func (d DefaultDialog) SavePath(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	dir := d.Dir
	if dir == "" {
		dir = PicturesDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("save dir: %w", err)
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return filepath.Join(dir, fmt.Sprintf("screenshot-%d.png", now().UnixMilli())), true, nil
}

// PicturesDir returns the user's pictures directory: $XDG_PICTURES_DIR if
// set, else ~/Pictures, else the working directory.
func PicturesDir() string {
	if dir := os.Getenv("XDG_PICTURES_DIR"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Pictures")
	}
	return "."
}
