package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatAuto},
		{"auto", FormatAuto},
		{"TEXT", FormatText},
		{"tint", FormatText},
		{"human", FormatText},
		{"json", FormatJSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug", slog.LevelInfo))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN", slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo, ParseLevel("", slog.LevelInfo))
	assert.Equal(t, slog.LevelDebug, ParseLevel("", slog.LevelDebug))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud", slog.LevelInfo))
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTTY(f))
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(Options{Format: FormatAuto, Level: slog.LevelInfo, Output: &buf}))

	l.Debug("hidden")
	l.Info("image pasted", "id", "abc", "count", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "image pasted", rec["msg"])
	assert.Equal(t, "abc", rec["id"])
	assert.InDelta(t, 2, rec["count"], 0)
}

func TestNewHandlerText(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(Options{Format: FormatText, Level: slog.LevelDebug, Output: &buf}))
	l.Debug("window shown", "window", "main-1")

	assert.Contains(t, buf.String(), "window shown")
	assert.Contains(t, buf.String(), "main-1")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pinpaste.log")

	f, err := OpenFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("one\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = OpenFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("two\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}
