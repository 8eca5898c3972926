package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"go.klb.dev/pinpaste/internal/control"
)

func newToggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Show or hide the main window (the tray click)",
		Args:  cobra.NoArgs,
	}
	return clientCmd(cmd, func(ctx context.Context, cmd *cobra.Command, c *control.Client, _ []string) error {
		res, err := c.Toggle(ctx)
		if err != nil {
			return fmt.Errorf("toggle: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "main window %s\n", res.State)
		return nil
	})
}

func newActivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Reactivate the app (the dock or taskbar click)",
		Args:  cobra.NoArgs,
	}
	return clientCmd(cmd, func(ctx context.Context, cmd *cobra.Command, c *control.Client, _ []string) error {
		res, err := c.Activate(ctx)
		if err != nil {
			return fmt.Errorf("activate: %w", err)
		}
		if res.Created {
			fmt.Fprintln(cmd.OutOrStdout(), "main window recreated")
		}
		return nil
	})
}

func newQuitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quit",
		Short: "Close every window and stop the daemon",
		Args:  cobra.NoArgs,
	}
	return clientCmd(cmd, func(ctx context.Context, _ *cobra.Command, c *control.Client, _ []string) error {
		return c.Quit(ctx)
	})
}

func newDisplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "display <width> <height>",
		Short: "Report the primary display work area used to size image windows",
		Args:  cobra.ExactArgs(2),
	}
	return clientCmd(cmd, func(ctx context.Context, _ *cobra.Command, c *control.Client, args []string) error {
		w, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("width: %w", err)
		}
		h, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("height: %w", err)
		}
		return c.ReportDisplay(ctx, w, h)
	})
}
