package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/pinpaste/internal/message"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch [type]...",
		Short: "Print daemon events as JSON lines",
		Long: `Streams events from the daemon, one JSON object per line, until
interrupted. With no arguments every event is printed; otherwise only the
named types, e.g.

  pinpaste watch history-updated storage-warning

Window commands (type "window") are what a renderer consumes.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dialDaemon(v)
			if err != nil {
				return err
			}
			defer c.Close()

			types := make([]message.EventType, len(args))
			for i, a := range args {
				types[i] = message.EventType(a)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			stream, err := c.Watch(ctx, types...)
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			for {
				ev, err := stream.Recv()
				if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
					return nil
				}
				if err != nil {
					return fmt.Errorf("watch: %w", err)
				}
				if err := writeEvent(cmd.OutOrStdout(), ev); err != nil {
					return err
				}
			}
		},
	}
	addSocketFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func writeEvent(w io.Writer, ev *message.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
