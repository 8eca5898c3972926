package platform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstValid(t *testing.T) {
	dir := t.TempDir()
	icon := filepath.Join(dir, "icon.png")
	require.NoError(t, os.WriteFile(icon, []byte("x"), 0o644))

	tests := []struct {
		name       string
		candidates []string
		want       string
		wantOK     bool
	}{
		{"first existing wins", []string{filepath.Join(dir, "missing.png"), "", icon}, icon, true},
		{"none exist", []string{filepath.Join(dir, "a"), filepath.Join(dir, "b")}, "", false},
		{"directory is not a file", []string{dir}, "", false},
		{"empty list", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstValid(tt.candidates, FileExists)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstValidSkipsEmptyCandidates(t *testing.T) {
	var seen []string
	_, ok := FirstValid([]string{"", "a", "b"}, func(s string) bool {
		seen = append(seen, s)
		return s == "b"
	})
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestDefaultDialog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Pictures")
	d := DefaultDialog{Dir: dir, Now: func() time.Time { return time.UnixMilli(1700000000123) }}

	path, ok, err := d.SavePath(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "screenshot-1700000000123.png"), path)
	assert.True(t, DirExists(dir))
}

func TestDefaultDialogCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := DefaultDialog{Dir: t.TempDir()}.SavePath(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestOpenPath(t *testing.T) {
	dir := t.TempDir()
	var gotArgs []string
	o := Opener{Run: func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return nil, nil
	}}

	err := o.OpenPath(context.Background(), dir)
	name, _ := openCommand(goos, dir)
	if name == "" {
		assert.ErrorIs(t, err, ErrUnsupported)
		return
	}
	require.NoError(t, err)
	assert.Equal(t, []string{name, dir}, gotArgs)
}

func TestOpenPathFailures(t *testing.T) {
	o := Opener{Run: func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("no file manager")
	}}
	assert.Error(t, o.OpenPath(context.Background(), filepath.Join(t.TempDir(), "missing")))
	if name, _ := openCommand(goos, "."); name != "" && goos != "windows" {
		assert.Error(t, o.OpenPath(context.Background(), t.TempDir()))
	}
}

func TestOpenCommand(t *testing.T) {
	name, args := openCommand("linux", "/tmp/x")
	assert.Equal(t, "xdg-open", name)
	assert.Equal(t, []string{"/tmp/x"}, args)
	name, _ = openCommand("darwin", "/tmp/x")
	assert.Equal(t, "open", name)
	name, _ = openCommand("windows", `C:\x`)
	assert.Equal(t, "explorer", name)
	name, _ = openCommand("plan9", "/tmp/x")
	assert.Empty(t, name)
}
