package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"go.klb.dev/pinpaste/internal/control"
	"go.klb.dev/pinpaste/internal/imagedata"
	"go.klb.dev/pinpaste/internal/message"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "history"},
		Short:   "List the image history, newest first",
		Args:    cobra.NoArgs,
	}
	cmd.Flags().Bool("json", false, "output raw JSON")
	cmd.Flags().Bool("images", false, "include image data (with --json)")

	return clientCmd(cmd, func(ctx context.Context, cmd *cobra.Command, c *control.Client, _ []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		withImages, _ := cmd.Flags().GetBool("images")
		res, err := c.History(ctx, jsonOut && withImages)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printHistory(cmd.OutOrStdout(), res)
		return nil
	})
}

func printHistory(w io.Writer, res *message.HistoryResponse) {
	if len(res.Records) == 0 {
		fmt.Fprintln(w, "History is empty.")
	} else {
		tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(tw, "ID\tFINGERPRINT\tPASTED\n")
		_, _ = fmt.Fprintf(tw, "--\t-----------\t------\n")
		for _, r := range res.Records {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, shortFingerprint(r.Fingerprint), humanize.Time(r.Timestamp))
		}
		_ = tw.Flush()
	}
	if s := res.Storage; s != nil {
		fmt.Fprintf(w, "\n%s in %s, %.2f GiB free\n",
			humanize.IBytes(uint64(s.UsedBytes)), plural(s.TotalCount, "image"), s.AvailableGiB)
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	if fp == "" {
		return "-"
	}
	return fp
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Write a history image to stdout or a file",
		Long: `Writes the raw bytes of a history image.

  pinpaste get 0192f0c1-… -o shot.png`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringP("output", "o", "-", "destination file (- for stdout)")

	return clientCmd(cmd, func(ctx context.Context, cmd *cobra.Command, c *control.Client, args []string) error {
		rec, err := c.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		_, data, err := imagedata.Decode(rec.ImageData)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		if out == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		return os.WriteFile(out, data, 0o644)
	})
}

func newPasteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Capture the clipboard image, as if the paste shortcut was pressed",
		Args:  cobra.NoArgs,
	}
	return clientCmd(cmd, func(ctx context.Context, cmd *cobra.Command, c *control.Client, _ []string) error {
		rec, err := c.Paste(ctx)
		if err != nil {
			return fmt.Errorf("paste: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
		return nil
	})
}

// imageRequest builds a request from either an id argument or --file.
func imageRequest(cmd *cobra.Command, args []string) (*message.ImageRequest, error) {
	file, _ := cmd.Flags().GetString("file")
	switch {
	case file != "" && len(args) > 0:
		return nil, errors.New("pass either an id or --file, not both")
	case file != "":
		uri, err := readImageFile(file)
		if err != nil {
			return nil, err
		}
		return &message.ImageRequest{ImageData: uri}, nil
	case len(args) == 1:
		return &message.ImageRequest{ID: args[0]}, nil
	}
	return nil, errors.New("an id or --file is required")
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Open (or focus) the floating window for an image",
		Args:  cobra.MaximumNArgs(1),
	}
	cmd.Flags().String("file", "", "show an image file instead of a history record (- for stdin)")

	return clientCmd(cmd, func(ctx context.Context, cmd *cobra.Command, c *control.Client, args []string) error {
		req, err := imageRequest(cmd, args)
		if err != nil {
			return err
		}
		res, err := c.ShowImage(ctx, req)
		if err != nil {
			return fmt.Errorf("show: %w", err)
		}
		verb := "focused"
		if res.Created {
			verb = "opened"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, res.Window)
		return nil
	})
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Open an image in the edit window",
		Args:  cobra.MaximumNArgs(1),
	}
	cmd.Flags().String("file", "", "edit an image file instead of a history record (- for stdin)")

	return clientCmd(cmd, func(ctx context.Context, cmd *cobra.Command, c *control.Client, args []string) error {
		req, err := imageRequest(cmd, args)
		if err != nil {
			return err
		}
		res, err := c.Edit(ctx, req)
		if err != nil {
			return fmt.Errorf("edit: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "opened %s\n", res.Window)
		return nil
	})
}

func newSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save [id]",
		Short: "Save a history image (or the clipboard image) to disk",
		Long: `Asks the daemon to save an image. Without --to the daemon picks a
screenshot-<time>.png name in its save directory. The write happens in the
background; use "pinpaste watch save-success save-error" to follow it.`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().Bool("clipboard", false, "save the current clipboard image")
	cmd.Flags().String("to", "", "destination path")

	return clientCmd(cmd, func(ctx context.Context, cmd *cobra.Command, c *control.Client, args []string) error {
		fromClipboard, _ := cmd.Flags().GetBool("clipboard")
		to, _ := cmd.Flags().GetString("to")
		req := &message.SaveRequest{Source: message.SourceHistory, Path: to}
		switch {
		case fromClipboard && len(args) > 0:
			return errors.New("pass either an id or --clipboard, not both")
		case fromClipboard:
			req.Source = message.SourceClipboard
		case len(args) == 1:
			req.ID = args[0]
		default:
			return errors.New("an id or --clipboard is required")
		}
		res, err := c.Save(ctx, req)
		if err != nil {
			return fmt.Errorf("save: %w", err)
		}
		if res.Accepted {
			fmt.Fprintln(cmd.OutOrStdout(), "save started")
		}
		return nil
	})
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Remove images from the history",
		Args:    cobra.MinimumNArgs(1),
	}
	return clientCmd(cmd, func(ctx context.Context, _ *cobra.Command, c *control.Client, args []string) error {
		for _, id := range args {
			if err := c.Delete(ctx, id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
		}
		return nil
	})
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every image from the history",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	return clientCmd(cmd, func(ctx context.Context, cmd *cobra.Command, c *control.Client, _ []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to clear the history without --yes")
		}
		if err := c.Clear(ctx); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		return nil
	})
}
