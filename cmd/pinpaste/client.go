package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/pinpaste/internal/control"
	"go.klb.dev/pinpaste/internal/imagedata"
	"go.klb.dev/pinpaste/internal/ipc"
)

// rpcTimeout bounds every unary CLI call.
const rpcTimeout = 10 * time.Second

func socketPath(v *viper.Viper) string {
	if s := v.GetString("socket"); s != "" {
		return s
	}
	return ipc.SocketPath()
}

// dialDaemon connects to the running daemon. No auth is needed; the socket is
// local and owner-restricted by the OS.
func dialDaemon(v *viper.Viper) (*control.Client, error) {
	path := socketPath(v)
	if !ipc.IsRunning(path) {
		return nil, fmt.Errorf("no pinpaste daemon on %s (start one with \"pinpaste daemon\")", path)
	}
	return control.Dial(path)
}

// clientCmd builds a subcommand that runs fn against the daemon.
func clientCmd(cmd *cobra.Command, fn func(ctx context.Context, cmd *cobra.Command, c *control.Client, args []string) error) *cobra.Command {
	v := viper.New()
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) }
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		c, err := dialDaemon(v)
		if err != nil {
			return err
		}
		defer c.Close()
		ctx, cancel := context.WithTimeout(cmd.Context(), rpcTimeout)
		defer cancel()
		return fn(ctx, cmd, c, args)
	}
	addSocketFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readImageFile returns the image at path as a data URI.
func readImageFile(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%s: empty file", path)
	}
	return imagedata.Encode(http.DetectContentType(data), data), nil
}
