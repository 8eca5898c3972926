//go:build windows

package ipc

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
)

const pipeName = `\\.\pipe\pinpaste`

func socketPath() string { return pipeName }

// The pipe only admits the creating user.
const ownerOnly = "D:P(A;;GA;;;OW)"

func listenIPC(path string) (net.Listener, error) {
	return winio.ListenPipe(path, &winio.PipeConfig{SecurityDescriptor: ownerOnly})
}

func dialIPC(ctx context.Context, path string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, path)
}
