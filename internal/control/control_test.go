package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"go.klb.dev/pinpaste/internal/app"
	"go.klb.dev/pinpaste/internal/history"
	"go.klb.dev/pinpaste/internal/imagedata"
	"go.klb.dev/pinpaste/internal/loop"
	"go.klb.dev/pinpaste/internal/message"
	"go.klb.dev/pinpaste/internal/notify"
	"go.klb.dev/pinpaste/internal/platform"
	"go.klb.dev/pinpaste/internal/shortcut"
	"go.klb.dev/pinpaste/internal/surface"
)

type fakeClipboard struct{ img []byte }

func (c *fakeClipboard) Name() string               { return "fake" }
func (c *fakeClipboard) ReadImage() ([]byte, error) { return c.img, nil }

type fakeDialog struct{}

func (fakeDialog) SavePath(context.Context) (string, bool, error) { return "", false, nil }

type fakeAutoLaunch struct{ enabled bool }

func (f *fakeAutoLaunch) Enabled(context.Context) (bool, error) { return f.enabled, nil }

func (f *fakeAutoLaunch) Enable(context.Context) error {
	f.enabled = true
	return nil
}

type fakeOpener struct{ err error }

func (o fakeOpener) OpenPath(context.Context, string) error { return o.err }

type testServer struct {
	clipboard *fakeClipboard
	hub       *notify.Hub
	client    *Client
	http      *http.Client
	quits     chan struct{}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	ts := &testServer{
		clipboard: &fakeClipboard{},
		hub:       notify.New(),
		quits:     make(chan struct{}, 1),
	}
	l := loop.New(0)
	store := history.New(history.Options{
		Path:  filepath.Join(t.TempDir(), "history.json"),
		Space: func(string) (uint64, error) { return 50 << 30, nil },
	})
	host := surface.New(ts.hub)
	a := app.New(app.Config{Version: "test"}, app.Deps{
		Store:      store,
		Host:       host,
		Keys:       shortcut.NewRegistry(shortcut.NewMemoryBinder()),
		Hub:        ts.hub,
		Clipboard:  ts.clipboard,
		Dialog:     fakeDialog{},
		AutoLaunch: &fakeAutoLaunch{},
		Opener:     fakeOpener{err: platform.ErrUnsupported},
		After:      func(d time.Duration, fn func()) { l.AfterFunc(d, fn) },
		Quit:       func() { ts.quits <- struct{}{} },
	})

	lis := bufconn.Listen(1 << 20)
	loopDone := make(chan error, 1)
	go func() { loopDone <- l.Run(ctx) }()
	serveDone := make(chan error, 1)
	go func() { serveDone <- Serve(ctx, lis, New(a, l, ts.hub, host)) }()

	require.NoError(t, l.Do(ctx, a.Start))

	dial := func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }
	conn, err := grpc.NewClient("passthrough:///bufnet", append(DialOptions(), grpc.WithContextDialer(dial))...)
	require.NoError(t, err)
	ts.client = NewClient(conn)
	ts.http = &http.Client{Transport: &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) { return dial(ctx, addr) },
	}}

	t.Cleanup(func() {
		_ = ts.client.Close()
		cancel()
		assert.NoError(t, <-serveDone)
		<-loopDone
	})
	return ts
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func requireCode(t *testing.T, want codes.Code, err error) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, want, st.Code(), st.Message())
}

func TestPasteAndHistory(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)
	ts.clipboard.img = pngBytes(t, 8, 4, color.White)

	rec, err := ts.client.Paste(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	assert.Empty(t, rec.ImageData)

	hist, err := ts.client.History(ctx, false)
	require.NoError(t, err)
	require.Len(t, hist.Records, 1)
	assert.Equal(t, rec.ID, hist.Records[0].ID)
	assert.Empty(t, hist.Records[0].ImageData)

	full, err := ts.client.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, imagedata.EncodePNG(ts.clipboard.img), full.ImageData)

	_, err = ts.client.Paste(ctx)
	requireCode(t, codes.AlreadyExists, err)
}

func TestPasteWithoutImage(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.client.Paste(testContext(t))
	requireCode(t, codes.FailedPrecondition, err)
}

func TestUnknownRecord(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	_, err := ts.client.Get(ctx, "missing")
	requireCode(t, codes.NotFound, err)
	requireCode(t, codes.NotFound, ts.client.Delete(ctx, "missing"))
}

func TestDeleteAndClear(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	ts.clipboard.img = pngBytes(t, 2, 2, color.White)
	first, err := ts.client.Paste(ctx)
	require.NoError(t, err)
	ts.clipboard.img = pngBytes(t, 2, 2, color.Black)
	_, err = ts.client.Paste(ctx)
	require.NoError(t, err)

	require.NoError(t, ts.client.Delete(ctx, first.ID))
	hist, err := ts.client.History(ctx, false)
	require.NoError(t, err)
	require.Len(t, hist.Records, 1)
	assert.NotEqual(t, first.ID, hist.Records[0].ID)

	require.NoError(t, ts.client.Clear(ctx))
	hist, err = ts.client.History(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, hist.Records)
}

func TestShowImageRejectsGarbage(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.client.ShowImage(testContext(t), &message.ImageRequest{})
	requireCode(t, codes.InvalidArgument, err)
}

func TestToggleAndWindowEvents(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	st, err := ts.client.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "visible", st.State)

	allow, err := ts.client.WindowEvent(ctx, "main-1", message.WindowCloseRequested)
	require.NoError(t, err)
	assert.False(t, allow, "closing main hides it instead")

	_, err = ts.client.WindowEvent(ctx, "main-1", "exploded")
	requireCode(t, codes.InvalidArgument, err)

	requireCode(t, codes.InvalidArgument, ts.client.ReportDisplay(ctx, 0, 0))
	require.NoError(t, ts.client.ReportDisplay(ctx, 2560, 1440))

	daemon, err := ts.client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", daemon.Version)
	assert.Equal(t, "hidden", daemon.MainWindow)
	require.NotNil(t, daemon.Display)
	assert.Equal(t, 2560, daemon.Display.Width)
	assert.Equal(t, "fake", daemon.Clipboard)
}

func TestQuit(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.client.Quit(testContext(t)))
	select {
	case <-ts.quits:
	case <-time.After(time.Second):
		t.Fatal("quit not signalled")
	}
}

func TestSystemRPCs(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	res, err := ts.client.AutoLaunchStatus(ctx)
	require.NoError(t, err)
	assert.False(t, res.Enabled)

	res, err = ts.client.EnableAutoLaunch(ctx)
	require.NoError(t, err)
	assert.True(t, res.Enabled)

	requireCode(t, codes.Unavailable, ts.client.OpenStorageFolder(ctx))
}

func TestWatchReplaysWindows(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	stream, err := ts.client.Watch(ctx, message.EventWindow)
	require.NoError(t, err)

	ev, err := stream.Recv()
	require.NoError(t, err)
	var cmd message.WindowCommand
	require.NoError(t, ev.Decode(&cmd))
	assert.Equal(t, message.OpCreate, cmd.Op)
	assert.Equal(t, "main", cmd.Options.Kind)
}

func TestWatchStreamsEvents(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	before := ts.hub.Subscribers()
	stream, err := ts.client.Watch(ctx, message.EventHistoryUpdated)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return ts.hub.Subscribers() > before }, 2*time.Second, 10*time.Millisecond)

	ts.clipboard.img = pngBytes(t, 3, 3, color.White)
	rec, err := ts.client.Paste(ctx)
	require.NoError(t, err)

	ev, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, message.EventHistoryUpdated, ev.Type)
	var list []message.Record
	require.NoError(t, ev.Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)
}

func (ts *testServer) get(t *testing.T, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(testContext(t), http.MethodGet, "http://pinpaste"+path, nil)
	require.NoError(t, err)
	res, err := ts.http.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func TestHTTP(t *testing.T) {
	ts := newTestServer(t)
	img := pngBytes(t, 4, 4, color.White)
	ts.clipboard.img = img
	rec, err := ts.client.Paste(testContext(t))
	require.NoError(t, err)

	t.Run("healthz", func(t *testing.T) {
		res := ts.get(t, "/healthz")
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("history", func(t *testing.T) {
		res := ts.get(t, "/history")
		require.Equal(t, http.StatusOK, res.StatusCode)
		var out message.HistoryResponse
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		require.Len(t, out.Records, 1)
		assert.Empty(t, out.Records[0].ImageData)

		res = ts.get(t, "/history?images=1")
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		require.Len(t, out.Records, 1)
		assert.NotEmpty(t, out.Records[0].ImageData)
	})

	t.Run("image", func(t *testing.T) {
		res := ts.get(t, "/history/"+rec.ID+"/image")
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "image/png", res.Header.Get("Content-Type"))
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Equal(t, img, body)
	})

	t.Run("missing image", func(t *testing.T) {
		res := ts.get(t, "/history/nope/image")
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("storage", func(t *testing.T) {
		res := ts.get(t, "/storage")
		require.Equal(t, http.StatusOK, res.StatusCode)
		var info message.StorageInfo
		require.NoError(t, json.NewDecoder(res.Body).Decode(&info))
	})

	t.Run("status", func(t *testing.T) {
		res := ts.get(t, "/status")
		require.Equal(t, http.StatusOK, res.StatusCode)
		var st message.StatusResponse
		require.NoError(t, json.NewDecoder(res.Body).Decode(&st))
		assert.Equal(t, "test", st.Version)
	})
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{history.ErrNotFound, codes.NotFound},
		{history.ErrDuplicateImage, codes.AlreadyExists},
		{history.ErrInsufficientStorage, codes.ResourceExhausted},
		{app.ErrNoImage, codes.FailedPrecondition},
		{fmt.Errorf("%w: empty", app.ErrBadRequest), codes.InvalidArgument},
		{loop.ErrStopped, codes.Unavailable},
		{context.Canceled, codes.Canceled},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("boom"), codes.Internal},
		{status.Error(codes.Aborted, "x"), codes.Aborted},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(toStatus(tt.err)))
		})
	}
	assert.NoError(t, toStatus(nil))
}
