package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/pinpaste/internal/message"
)

func TestVersion(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "pinpaste dev\n", out.String())
}

func TestSubcommandsHaveSocketFlag(t *testing.T) {
	for _, c := range newRootCmd().Commands() {
		switch c.Name() {
		case "version", "help", "completion":
			continue
		}
		assert.NotNil(t, c.Flags().Lookup("socket"), c.Name())
		assert.NotNil(t, c.Flags().Lookup("config"), c.Name())
	}
}

func TestPrintHistory(t *testing.T) {
	var out bytes.Buffer
	printHistory(&out, &message.HistoryResponse{
		Records: []message.Record{
			{ID: "a", Fingerprint: "0123456789abcdef", Timestamp: time.Now().Add(-time.Hour)},
			{ID: "b", Timestamp: time.Now()},
		},
		Storage: &message.StorageInfo{UsedBytes: 2048, TotalCount: 2, AvailableGiB: 12.5},
	})

	s := out.String()
	assert.Contains(t, s, "0123456789ab ")
	assert.Contains(t, s, "1 hour ago")
	assert.Contains(t, s, "2.0 KiB in 2 images, 12.50 GiB free")

	out.Reset()
	printHistory(&out, &message.HistoryResponse{})
	assert.Equal(t, "History is empty.\n", out.String())
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 image", plural(1, "image"))
	assert.Equal(t, "0 images", plural(0, "image"))
	assert.Equal(t, "1,200 images", plural(1200, "image"))
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	printStatus(&out, &message.StatusResponse{
		Version:    "1.2.3",
		MainWindow: "hidden",
		Hotkeys:    []string{"Shift+V"},
		Clipboard:  "headless (no-op)",
		Storage:    message.StorageInfo{TotalCount: 3, UsedBytes: 1 << 20},
		Display:    &message.DisplayRequest{Width: 1920, Height: 1080},
	})
	s := out.String()
	assert.Contains(t, s, "1.2.3")
	assert.Contains(t, s, "3 (1.0 MiB)")
	assert.Contains(t, s, "Shift+V")
	assert.Contains(t, s, "1920x1080")
	assert.Regexp(t, `Floating:\s+-`, s)
}

func TestImageRequest(t *testing.T) {
	png := filepath.Join(t.TempDir(), "x.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\nrest"), 0o644))

	newCmd := func() *cobra.Command {
		c := &cobra.Command{}
		c.Flags().String("file", "", "")
		return c
	}

	req, err := imageRequest(newCmd(), []string{"id-1"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", req.ID)

	c := newCmd()
	require.NoError(t, c.Flags().Set("file", png))
	req, err = imageRequest(c, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(req.ImageData, "data:image/png;base64,"))

	_, err = imageRequest(c, []string{"id-1"})
	assert.Error(t, err)

	_, err = imageRequest(newCmd(), nil)
	assert.Error(t, err)
}

func TestDefaultHistoryFile(t *testing.T) {
	assert.Equal(t, filepath.Join("pinpaste", "history.json"),
		filepath.Join(filepath.Base(filepath.Dir(defaultHistoryFile())), filepath.Base(defaultHistoryFile())))
}
