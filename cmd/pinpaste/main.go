// pinpaste: clipboard image history with floating image windows.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.design/x/hotkey/mainthread"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	code := 0
	// Global hotkeys on macOS must be registered from the main thread.
	mainthread.Init(func() { code = run(os.Args[1:]) })
	os.Exit(code)
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pinpaste",
		Short: "Clipboard image history with floating image windows",
		Long: `pinpaste keeps a history of images pasted from the system clipboard and
shows each one in its own always-available floating window.

Run "pinpaste daemon" once per login session (or enable it as a login item
with "pinpaste autolaunch enable"). Pressing the paste shortcut (Shift+V by
default) captures the clipboard image. The other subcommands talk to the
running daemon over its local IPC socket.

Config file search order (first found wins):
  /etc/pinpaste/pinpaste.toml
  $HOME/.config/pinpaste/pinpaste.toml
  path supplied via --config

All flags can be set via PINPASTE_<FLAG> env vars or config-file keys.
See "pinpaste daemon --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDaemonCmd(),
		newListCmd(),
		newGetCmd(),
		newPasteCmd(),
		newShowCmd(),
		newEditCmd(),
		newSaveCmd(),
		newDeleteCmd(),
		newClearCmd(),
		newStatusCmd(),
		newToggleCmd(),
		newActivateCmd(),
		newQuitCmd(),
		newDisplayCmd(),
		newWatchCmd(),
		newAutoLaunchCmd(),
		newOpenFolderCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pinpaste %s\n", Version)
		},
	}
}
