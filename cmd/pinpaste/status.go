package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"go.klb.dev/pinpaste/internal/control"
	"go.klb.dev/pinpaste/internal/message"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running daemon's state",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Bool("json", false, "output raw JSON")

	return clientCmd(cmd, func(ctx context.Context, cmd *cobra.Command, c *control.Client, _ []string) error {
		resp, err := c.Status(ctx)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		printStatus(cmd.OutOrStdout(), resp)
		return nil
	})
}

func printStatus(w io.Writer, resp *message.StatusResponse) {
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Version:\t%s\n", resp.Version)
	if !resp.StartedAt.IsZero() {
		_, _ = fmt.Fprintf(tw, "Started:\t%s\n", humanize.Time(resp.StartedAt))
	}
	_, _ = fmt.Fprintf(tw, "History:\t%s\n", resp.HistoryFile)
	_, _ = fmt.Fprintf(tw, "Images:\t%s (%s)\n",
		humanize.Comma(int64(resp.Storage.TotalCount)), humanize.IBytes(uint64(resp.Storage.UsedBytes)))
	_, _ = fmt.Fprintf(tw, "Free space:\t%.2f GiB\n", resp.Storage.AvailableGiB)
	_, _ = fmt.Fprintf(tw, "Main window:\t%s\n", resp.MainWindow)
	_, _ = fmt.Fprintf(tw, "Floating:\t%s\n", listOrDash(resp.Floating))
	_, _ = fmt.Fprintf(tw, "Hotkeys:\t%s\n", listOrDash(resp.Hotkeys))
	_, _ = fmt.Fprintf(tw, "Clipboard:\t%s\n", resp.Clipboard)
	if d := resp.Display; d != nil {
		_, _ = fmt.Fprintf(tw, "Display:\t%dx%d\n", d.Width, d.Height)
	} else {
		_, _ = fmt.Fprintf(tw, "Display:\tnot reported\n")
	}
	_, _ = fmt.Fprintf(tw, "Watchers:\t%d\n", resp.Subscribers)
	_ = tw.Flush()
}

func listOrDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}
