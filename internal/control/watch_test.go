package control

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"

	"go.klb.dev/pinpaste/internal/loop"
	"go.klb.dev/pinpaste/internal/message"
	"go.klb.dev/pinpaste/internal/notify"
	"go.klb.dev/pinpaste/internal/session"
	"go.klb.dev/pinpaste/internal/surface"
)

// recordingStream is a server-side Watch stream that keeps what it is sent.
type recordingStream struct {
	ctx context.Context

	mu   sync.Mutex
	sent []message.Event
}

func (s *recordingStream) SetHeader(metadata.MD) error  { return nil }
func (s *recordingStream) SendHeader(metadata.MD) error { return nil }
func (s *recordingStream) SetTrailer(metadata.MD)       {}
func (s *recordingStream) Context() context.Context     { return s.ctx }
func (s *recordingStream) RecvMsg(any) error            { return nil }

func (s *recordingStream) SendMsg(m any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, *m.(*message.Event))
	return nil
}

// creates counts window create commands per window id.
func (s *recordingStream) creates() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int)
	for _, ev := range s.sent {
		if ev.Type != message.EventWindow {
			continue
		}
		var cmd message.WindowCommand
		if err := ev.Decode(&cmd); err == nil && cmd.Op == message.OpCreate {
			out[cmd.Window]++
		}
	}
	return out
}

var _ grpc.ServerStream = (*recordingStream)(nil)

func newWatchService(t *testing.T) (*Service, *loop.Loop, *notify.Hub, *surface.Host) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	l := loop.New(0)
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	hub := notify.New()
	host := surface.New(hub)
	return New(nil, l, hub, host), l, hub, host
}

func createWindow(t *testing.T, l *loop.Loop, host *surface.Host, kind session.Kind) string {
	t.Helper()
	var id string
	require.NoError(t, l.Do(testContext(t), func() error {
		w, err := host.CreateWindow(session.Options{Kind: kind, Width: 100, Height: 100})
		if err != nil {
			return err
		}
		id = w.ID()
		return nil
	}))
	return id
}

func TestWatchSendsEachWindowOnce(t *testing.T) {
	s, l, _, host := newWatchService(t)

	for i := 0; i < 30; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		stream := &recordingStream{ctx: ctx}
		watchDone := make(chan error, 1)
		go func() { watchDone <- s.Watch(&message.WatchRequest{Types: []message.EventType{message.EventWindow}}, stream) }()

		win := createWindow(t, l, host, session.KindFloating)
		marker := createWindow(t, l, host, session.KindEdit)
		require.Eventually(t, func() bool { return stream.creates()[marker] > 0 }, 2*time.Second, time.Millisecond)

		assert.Equal(t, 1, stream.creates()[win], "round %d window %s", i, win)
		cancel()
		require.NoError(t, <-watchDone)
	}
}

func TestWatchEndsOnShutdown(t *testing.T) {
	s, _, hub, _ := newWatchService(t)
	stream := &recordingStream{ctx: context.Background()}
	watchDone := make(chan error, 1)
	go func() { watchDone <- s.Watch(&message.WatchRequest{}, stream) }()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.shutdown()
	s.shutdown()
	select {
	case err := <-watchDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch still running after shutdown")
	}
	assert.Equal(t, 0, hub.Subscribers())
}

func TestServeStopsPromptlyWithOpenWatch(t *testing.T) {
	s, _, hub, _ := newWatchService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lis := bufconn.Listen(1 << 20)
	serveDone := make(chan error, 1)
	go func() { serveDone <- Serve(ctx, lis, s) }()

	dial := func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }
	conn, err := grpc.NewClient("passthrough:///bufnet", append(DialOptions(), grpc.WithContextDialer(dial))...)
	require.NoError(t, err)
	client := NewClient(conn)
	defer client.Close()

	stream, err := client.Watch(testContext(t), message.EventHistoryUpdated)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	start := time.Now()
	cancel()
	select {
	case err := <-serveDone:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return")
	}
	assert.Less(t, time.Since(start), time.Second, "graceful stop waited on the watch stream")

	_, err = stream.Recv()
	assert.Error(t, err)
}
