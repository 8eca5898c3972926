package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"go.klb.dev/pinpaste/internal/app"
	"go.klb.dev/pinpaste/internal/clip"
	"go.klb.dev/pinpaste/internal/control"
	"go.klb.dev/pinpaste/internal/history"
	"go.klb.dev/pinpaste/internal/hotkeys"
	"go.klb.dev/pinpaste/internal/imagedata"
	"go.klb.dev/pinpaste/internal/ipc"
	"go.klb.dev/pinpaste/internal/loop"
	"go.klb.dev/pinpaste/internal/notify"
	"go.klb.dev/pinpaste/internal/platform"
	"go.klb.dev/pinpaste/internal/session"
	"go.klb.dev/pinpaste/internal/shortcut"
	"go.klb.dev/pinpaste/internal/surface"
)

func newDaemonCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the pinpaste core (history, windows, hotkeys)",
		Long: `Starts the pinpaste daemon. It owns the image history and the window
session, binds the global paste shortcut, and serves the renderer and the CLI
over the local IPC socket (gRPC and HTTP on one socket).

Only one daemon runs per user; a second one exits with an error.

Config file search order:
  /etc/pinpaste/pinpaste.toml
  $HOME/.config/pinpaste/pinpaste.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → PINPASTE_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runDaemon(v) },
	}

	d := session.DefaultConfig()
	f := cmd.Flags()
	f.String("history-file", defaultHistoryFile(), "history JSON file")
	f.Float64("min-free-gib", history.DefaultMinFreeGiB, "refuse new images below this much free disk space (GiB)")
	f.String("paste-key", "Shift+V", "global shortcut that captures the clipboard image")
	f.String("close-key", d.CloseKey, "shortcut that closes the focused image window")
	f.String("devtools-key", d.DevToolsKey, "shortcut that toggles dev tools in the main window")
	f.Int("display-width", 0, "primary display work area width until the renderer reports one")
	f.Int("display-height", 0, "primary display work area height until the renderer reports one")
	f.String("save-dir", platform.PicturesDir(), "directory for saved images")
	f.StringSlice("icon", defaultIcons(), "window icon candidates, first existing file wins")
	f.Bool("no-hotkeys", false, "do not bind OS-level hotkeys")
	addSocketFlag(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func defaultHistoryFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "pinpaste", "history.json")
}

func defaultIcons() []string {
	var out []string
	if exe, ok := platform.Executable(); ok {
		dir := filepath.Dir(exe)
		out = append(out,
			filepath.Join(dir, "icon.png"),
			filepath.Join(dir, "..", "share", "pinpaste", "icon.png"),
			filepath.Join(dir, "..", "Resources", "icon.png"),
		)
	}
	return append(out, "/usr/share/icons/hicolor/256x256/apps/pinpaste.png")
}

func runDaemon(v *viper.Viper) error {
	closeLog, err := setupLogging(v)
	if err != nil {
		return err
	}
	defer closeLog()

	socket := socketPath(v)
	ln, err := ipc.Listen(socket)
	if err != nil {
		return err
	}

	l := loop.New(256)
	hub := notify.New()
	host := surface.New(hub)
	if w, h := v.GetInt("display-width"), v.GetInt("display-height"); w > 0 && h > 0 {
		host.SetWorkArea(imagedata.Size{Width: w, Height: h})
	}

	var binder shortcut.Binder = hotkeys.New(l.Post)
	if v.GetBool("no-hotkeys") {
		binder = shortcut.NewMemoryBinder()
	}

	sess := session.DefaultConfig()
	sess.CloseKey = v.GetString("close-key")
	sess.DevToolsKey = v.GetString("devtools-key")
	if icon, ok := platform.FirstValid(v.GetStringSlice("icon"), platform.FileExists); ok {
		sess.Icon = icon
	} else {
		slog.Debug("no window icon found")
	}

	exe, ok := platform.Executable()
	if !ok {
		slog.Warn("executable path unknown, login item will use argv[0]")
		exe = os.Args[0]
	}

	store := history.New(history.Options{
		Path:       v.GetString("history-file"),
		MinFreeGiB: v.GetFloat64("min-free-gib"),
	})
	clipboard := clip.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a := app.New(app.Config{
		Version:  Version,
		PasteKey: v.GetString("paste-key"),
		Session:  sess,
	}, app.Deps{
		Store:      store,
		Host:       host,
		Keys:       shortcut.NewRegistry(binder),
		Hub:        hub,
		Clipboard:  clipboard,
		Dialog:     platform.DefaultDialog{Dir: v.GetString("save-dir")},
		AutoLaunch: platform.NewAutoLauncher(exe, platform.ExecRunner),
		Opener:     platform.Opener{},
		After:      func(d time.Duration, fn func()) { l.AfterFunc(d, fn) },
		Quit:       cancel,
	})

	slog.Info("pinpaste daemon starting",
		"version", Version,
		"socket", socket,
		"history", store.Path(),
		"clipboard", clipboard.Name(),
		"hotkeys", !v.GetBool("no-hotkeys"),
	)

	loopDone := make(chan error, 1)
	go func() { loopDone <- l.Run(context.Background()) }()
	defer func() {
		l.Stop()
		<-loopDone
	}()

	if err := l.Do(ctx, a.Start); err != nil {
		_ = ln.Close()
		return fmt.Errorf("start: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return control.Serve(gctx, ln, control.New(a, l, hub, host))
	})
	g.Go(func() error {
		<-gctx.Done()
		// Signals bypass the Quit RPC; release hotkeys and windows here too.
		qctx, qcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer qcancel()
		if err := l.Do(qctx, func() error { a.Quit(); return nil }); err != nil && !errors.Is(err, loop.ErrStopped) {
			slog.Warn("shutdown", "err", err)
		}
		return nil
	})

	err = g.Wait()
	a.Wait()
	slog.Info("pinpaste daemon stopped")
	return err
}
