package platform

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const launchAgentLabel = "dev.klb.pinpaste"

// launchAgent registers a per-user LaunchAgent and falls back to a System
// Events login item when the agent cannot be written or verified.
type launchAgent struct {
	plist string
	exe   string
	run   Runner
}

// NewAutoLauncher returns the login-item manager for this platform. exe is
// the binary to launch; run executes osascript.
func NewAutoLauncher(exe string, run Runner) AutoLauncher {
	if run == nil {
		run = ExecRunner
	}
	home, _ := os.UserHomeDir()
	return &launchAgent{
		plist: filepath.Join(home, "Library", "LaunchAgents", launchAgentLabel+".plist"),
		exe:   exe,
		run:   run,
	}
}

func (a *launchAgent) Enabled(ctx context.Context) (bool, error) {
	if ok, _ := a.agentValid(); ok {
		return true, nil
	}
	return a.loginItemExists(ctx)
}

func (a *launchAgent) Enable(ctx context.Context) error {
	if a.exe == "" {
		return fmt.Errorf("enable login item: executable path unknown")
	}
	err := a.writeAgent()
	if err == nil {
		if ok, verr := a.agentValid(); ok {
			slog.Info("launch agent written", "path", a.plist)
			return nil
		} else if verr != nil {
			err = verr
		} else {
			err = fmt.Errorf("%s not recognised after write", a.plist)
		}
	}
	slog.Warn("launch agent failed, trying login item", "err", err)
	if lerr := a.addLoginItem(ctx); lerr != nil {
		return fmt.Errorf("enable login item: %w", lerr)
	}
	return nil
}

func (a *launchAgent) writeAgent() error {
	var args strings.Builder
	for _, s := range LaunchCommand(a.exe) {
		args.WriteString("\t\t<string>")
		if err := xml.EscapeText(&args, []byte(s)); err != nil {
			return err
		}
		args.WriteString("</string>\n")
	}
	plist := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>` + launchAgentLabel + `</string>
	<key>ProgramArguments</key>
	<array>
` + args.String() + `	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>ProcessType</key>
	<string>Interactive</string>
</dict>
</plist>
`
	if err := os.MkdirAll(filepath.Dir(a.plist), 0o755); err != nil {
		return err
	}
	return os.WriteFile(a.plist, []byte(plist), 0o644)
}

// agentValid checks that the plist exists and names the current binary.
func (a *launchAgent) agentValid() (bool, error) {
	data, err := os.ReadFile(a.plist)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s := string(data)
	return strings.Contains(s, "<key>RunAtLoad</key>") && strings.Contains(s, launchAgentLabel), nil
}

func (a *launchAgent) loginItemExists(ctx context.Context) (bool, error) {
	out, err := a.run(ctx, "osascript", "-e",
		`tell application "System Events" to get the name of every login item`)
	if err != nil {
		return false, fmt.Errorf("query login items: %w", err)
	}
	for _, name := range strings.Split(strings.TrimSpace(string(out)), ",") {
		if strings.TrimSpace(name) == filepath.Base(a.exe) {
			return true, nil
		}
	}
	return false, nil
}

func (a *launchAgent) addLoginItem(ctx context.Context) error {
	if ok, err := a.loginItemExists(ctx); err == nil && ok {
		return nil
	}
	script := fmt.Sprintf(
		`tell application "System Events" to make login item at end with properties {path:%q, hidden:true}`,
		a.exe)
	if _, err := a.run(ctx, "osascript", "-e", script); err != nil {
		return fmt.Errorf("add login item: %w", err)
	}
	ok, err := a.loginItemExists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("add login item: not listed after creation")
	}
	return nil
}
