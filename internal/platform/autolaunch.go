package platform

import "context"

// AppName is the login-item name.
const AppName = "pinpaste"

// AutoLauncher registers the daemon to start at login.
type AutoLauncher interface {
	// Enabled reports whether the login item is registered.
	Enabled(ctx context.Context) (bool, error)
	// Enable registers the login item. Registration is one-way; removing it
	// is left to the OS settings.
	Enable(ctx context.Context) error
}

// LaunchCommand is the command line a login item runs.
func LaunchCommand(exe string) []string {
	return []string{exe, "daemon"}
}
