// Package ipc owns the local socket the pinpaste daemon listens on.
//
// The daemon serves gRPC (and a small HTTP API) on it; CLI sub-commands and
// the renderer dial it. On Unix it is a domain socket restricted to the
// owner, on Windows a named pipe.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// ErrAlreadyRunning is returned by Listen when another daemon answers on
// the socket.
var ErrAlreadyRunning = errors.New("pinpaste daemon already running")

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux:   $XDG_RUNTIME_DIR/pinpaste.sock, else $TMPDIR/pinpaste.sock
//   - macOS:   $TMPDIR/pinpaste.sock
//   - Windows: \\.\pipe\pinpaste
//
// $PINPASTE_SOCKET overrides all of these.
func SocketPath() string {
	if s := os.Getenv("PINPASTE_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a daemon appears to be listening on path. It
// does a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c, err := dialIPC(ctx, path)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on path. A stale socket left by a crashed run is
// replaced; a live one yields ErrAlreadyRunning.
func Listen(path string) (net.Listener, error) {
	if IsRunning(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrAlreadyRunning)
	}
	ln, err := listenIPC(path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	return ln, nil
}

// Dial connects to the daemon on path.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	c, err := dialIPC(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	return c, nil
}
