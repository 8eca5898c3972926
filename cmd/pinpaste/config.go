package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/pinpaste/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and PINPASTE_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → PINPASTE_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("pinpaste")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/pinpaste/")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "pinpaste"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pinpaste"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("PINPASTE")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
	cmd.Flags().String("log-file", "", "append logs to this file instead of stderr")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addSocketFlag adds the --socket flag to a command.
func addSocketFlag(cmd *cobra.Command) {
	cmd.Flags().String("socket", "", "IPC socket path (default: per-user platform socket)")
}

// setupLogging reads the logging flags from v and configures slog. The
// returned func closes the log file, if any.
func setupLogging(v *viper.Viper) (func(), error) {
	format, err := logging.ParseFormat(v.GetString("log-format"))
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stderr
	closer := func() {}
	if path := v.GetString("log-file"); path != "" {
		f, err := logging.OpenFile(path)
		if err != nil {
			return nil, err
		}
		out = f
		closer = func() { _ = f.Close() }
	}

	interactive := v.GetBool("no-background") || logging.IsTTY(out)
	def := slog.LevelInfo
	if interactive {
		def = slog.LevelDebug
	}
	logging.Setup(logging.Options{
		Format: format,
		Level:  logging.ParseLevel(v.GetString("log-level"), def),
		Output: out,
	})
	return closer, nil
}
