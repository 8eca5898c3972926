// Package clip reads images from the system clipboard. Build constraints
// select the implementation:
//
//	clip_desktop.go  macOS, Windows and Linux via golang.design/x/clipboard
//	clip_other.go    headless stub elsewhere
package clip

// Provider is the system clipboard as pinpaste uses it.
type Provider interface {
	// Name returns a human-readable name for the provider.
	Name() string

	// ReadImage returns the clipboard image as PNG bytes. It returns nil, nil
	// if the clipboard holds no image.
	ReadImage() ([]byte, error)
}

// Headless is a Provider for environments without a display server. The
// clipboard always reads as empty.
type Headless struct{}

func (Headless) Name() string               { return "headless (no-op)" }
func (Headless) ReadImage() ([]byte, error) { return nil, nil }
