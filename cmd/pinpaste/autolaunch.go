package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"go.klb.dev/pinpaste/internal/control"
	"go.klb.dev/pinpaste/internal/message"
)

func newAutoLaunchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autolaunch",
		Short: "Show whether the daemon starts at login",
		Args:  cobra.NoArgs,
	}
	clientCmd(cmd, func(ctx context.Context, cmd *cobra.Command, c *control.Client, _ []string) error {
		res, err := c.AutoLaunchStatus(ctx)
		if err != nil {
			return fmt.Errorf("autolaunch: %w", err)
		}
		return reportAutoLaunch(cmd, res)
	})

	enable := &cobra.Command{
		Use:   "enable",
		Short: "Start the daemon at login",
		Args:  cobra.NoArgs,
	}
	clientCmd(enable, func(ctx context.Context, cmd *cobra.Command, c *control.Client, _ []string) error {
		res, err := c.EnableAutoLaunch(ctx)
		if err != nil {
			return fmt.Errorf("autolaunch enable: %w", err)
		}
		return reportAutoLaunch(cmd, res)
	})
	cmd.AddCommand(enable)
	return cmd
}

func reportAutoLaunch(cmd *cobra.Command, res *message.AutoLaunchResponse) error {
	state := "disabled"
	if res.Enabled {
		state = "enabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "start at login: %s\n", state)
	if res.Error != "" {
		return errors.New(res.Error)
	}
	return nil
}

func newOpenFolderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open-folder",
		Short: "Open the history folder in the file manager",
		Args:  cobra.NoArgs,
	}
	return clientCmd(cmd, func(ctx context.Context, _ *cobra.Command, c *control.Client, _ []string) error {
		return c.OpenStorageFolder(ctx)
	})
}
