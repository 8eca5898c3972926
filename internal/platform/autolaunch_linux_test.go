package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXDGAutostart(t *testing.T) {
	cfg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfg)
	ctx := context.Background()

	a := NewAutoLauncher("/opt/pin paste/pinpaste", nil)
	ok, err := a.Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Enable(ctx))
	ok, err = a.Enabled(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(cfg, "autostart", "pinpaste.desktop"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `Exec="/opt/pin paste/pinpaste" daemon`)
	assert.Contains(t, string(data), "[Desktop Entry]")
}

func TestXDGAutostartDisabledEntries(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  bool
	}{
		{"hidden", "[Desktop Entry]\nExec=pinpaste daemon\nHidden=true\n", false},
		{"gnome disabled", "[Desktop Entry]\nExec=pinpaste daemon\nX-GNOME-Autostart-enabled=false\n", false},
		{"no exec", "[Desktop Entry]\nName=pinpaste\n", false},
		{"plain", "[Desktop Entry]\nExec=pinpaste daemon\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := t.TempDir()
			t.Setenv("XDG_CONFIG_HOME", cfg)
			dir := filepath.Join(cfg, "autostart")
			require.NoError(t, os.MkdirAll(dir, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "pinpaste.desktop"), []byte(tt.entry), 0o644))

			ok, err := NewAutoLauncher("/usr/bin/pinpaste", nil).Enabled(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestXDGAutostartNeedsExecutable(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.Error(t, NewAutoLauncher("", nil).Enable(context.Background()))
}
