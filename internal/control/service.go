// Package control exposes the pinpaste core over gRPC and HTTP on the local
// IPC socket.
//
// The gRPC service is described by hand and carried with the JSON codec from
// package message, so neither side needs generated code. Every handler that
// touches core state runs on the event loop.
package control

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/pinpaste/internal/app"
	"go.klb.dev/pinpaste/internal/history"
	"go.klb.dev/pinpaste/internal/imagedata"
	"go.klb.dev/pinpaste/internal/loop"
	"go.klb.dev/pinpaste/internal/message"
	"go.klb.dev/pinpaste/internal/notify"
	"go.klb.dev/pinpaste/internal/surface"
)

// Service implements the Control RPCs.
type Service struct {
	app  *app.App
	loop *loop.Loop
	hub  *notify.Hub
	host *surface.Host

	stop     chan struct{}
	stopOnce sync.Once
}

// New returns a Service. a must only be used from l.
func New(a *app.App, l *loop.Loop, hub *notify.Hub, host *surface.Host) *Service {
	return &Service{app: a, loop: l, hub: hub, host: host, stop: make(chan struct{})}
}

// shutdown ends every open Watch stream.
func (s *Service) shutdown() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Register adds the Control service to gs.
func Register(gs *grpc.Server, s *Service) {
	gs.RegisterService(&ServiceDesc, s)
}

// do runs fn on the event loop and converts its error to a gRPC status.
func (s *Service) do(ctx context.Context, fn func() error) error {
	return toStatus(s.loop.Do(ctx, fn))
}

func (s *Service) History(ctx context.Context, in *message.HistoryRequest) (*message.HistoryResponse, error) {
	var out message.HistoryResponse
	err := s.do(ctx, func() error {
		out = s.app.History(in.WithImages)
		return nil
	})
	return &out, err
}

func (s *Service) Get(ctx context.Context, in *message.IDRequest) (*message.Record, error) {
	var out message.Record
	err := s.do(ctx, func() (err error) {
		out, err = s.app.Record(in.ID)
		return err
	})
	return &out, err
}

func (s *Service) Paste(ctx context.Context, _ *message.Empty) (*message.Record, error) {
	var out message.Record
	err := s.do(ctx, func() (err error) {
		out, err = s.app.Paste()
		return err
	})
	return &out, err
}

func (s *Service) Delete(ctx context.Context, in *message.IDRequest) (*message.Empty, error) {
	return &message.Empty{}, s.do(ctx, func() error { return s.app.Delete(in.ID) })
}

func (s *Service) Clear(ctx context.Context, _ *message.Empty) (*message.Empty, error) {
	return &message.Empty{}, s.do(ctx, s.app.Clear)
}

func (s *Service) ShowImage(ctx context.Context, in *message.ImageRequest) (*message.ShowResponse, error) {
	var out message.ShowResponse
	err := s.do(ctx, func() (err error) {
		if in.ID != "" {
			out, err = s.app.ShowRecord(in.ID)
		} else {
			out, err = s.app.ShowImage(in.ImageData)
		}
		return err
	})
	return &out, err
}

func (s *Service) Edit(ctx context.Context, in *message.ImageRequest) (*message.ShowResponse, error) {
	var out message.ShowResponse
	err := s.do(ctx, func() (err error) {
		if in.ID != "" {
			out.Window, err = s.app.EditRecord(in.ID)
		} else {
			out.Window, err = s.app.Edit(in.ImageData)
		}
		out.Created = err == nil
		return err
	})
	return &out, err
}

func (s *Service) Save(ctx context.Context, in *message.SaveRequest) (*message.SaveResponse, error) {
	err := s.do(ctx, func() error { return s.app.Save(*in) })
	return &message.SaveResponse{Accepted: err == nil}, err
}

func (s *Service) Toggle(ctx context.Context, _ *message.Empty) (*message.WindowStateResponse, error) {
	var out message.WindowStateResponse
	err := s.do(ctx, func() error {
		out.State = s.app.Toggle()
		return nil
	})
	return &out, err
}

func (s *Service) Activate(ctx context.Context, _ *message.Empty) (*message.WindowStateResponse, error) {
	var out message.WindowStateResponse
	err := s.do(ctx, func() error {
		out.Created = s.app.Activate()
		out.State = s.app.Controller().State().String()
		return nil
	})
	return &out, err
}

func (s *Service) Quit(ctx context.Context, _ *message.Empty) (*message.Empty, error) {
	return &message.Empty{}, s.do(ctx, func() error {
		s.app.Quit()
		return nil
	})
}

func (s *Service) WindowEvent(ctx context.Context, in *message.WindowEventRequest) (*message.WindowEventResponse, error) {
	var out message.WindowEventResponse
	err := s.do(ctx, func() (err error) {
		out.Allow, err = s.app.HandleWindowEvent(in.Window, in.Kind)
		return err
	})
	return &out, err
}

func (s *Service) ReportDisplay(ctx context.Context, in *message.DisplayRequest) (*message.Empty, error) {
	return &message.Empty{}, s.do(ctx, func() error { return s.app.ReportDisplay(in.Width, in.Height) })
}

func (s *Service) Status(ctx context.Context, _ *message.Empty) (*message.StatusResponse, error) {
	var out message.StatusResponse
	err := s.do(ctx, func() error {
		out = s.app.Status()
		return nil
	})
	return &out, err
}

func (s *Service) StorageInfo(ctx context.Context, _ *message.Empty) (*message.StorageInfo, error) {
	var out message.StorageInfo
	err := s.do(ctx, func() error {
		out = s.app.StorageInfo()
		return nil
	})
	return &out, err
}

// The login-item and file-manager RPCs call out to the OS and stay off the
// loop.

func (s *Service) AutoLaunchStatus(ctx context.Context, _ *message.Empty) (*message.AutoLaunchResponse, error) {
	out := s.app.AutoLaunchStatus(ctx)
	return &out, nil
}

func (s *Service) EnableAutoLaunch(ctx context.Context, _ *message.Empty) (*message.AutoLaunchResponse, error) {
	out := s.app.EnableAutoLaunch(ctx)
	return &out, nil
}

func (s *Service) OpenStorageFolder(ctx context.Context, _ *message.Empty) (*message.Empty, error) {
	if err := s.app.OpenStorageFolder(ctx); err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return &message.Empty{}, nil
}

// Watch streams events matching in.Types until the client goes away, the
// server shuts down or the loop stops. A subscriber that wants window events
// first receives a create command for every open window.
func (s *Service) Watch(in *message.WatchRequest, stream grpc.ServerStream) error {
	ctx := stream.Context()

	// Window commands are published from the loop, so subscribing and
	// snapshotting there leaves no gap and no overlap between the two.
	var (
		sub  *notify.Subscription
		snap []message.WindowCommand
	)
	err := s.loop.Do(ctx, func() error {
		sub = s.hub.Subscribe(64, in.Wants)
		if in.Wants(message.EventWindow) {
			snap = s.host.Snapshot()
		}
		return nil
	})
	if err != nil {
		// The subscribe may still run after Do gave up; close what it registered.
		s.loop.Post(func() {
			if sub != nil {
				sub.Close()
			}
		})
		return toStatus(err)
	}
	defer sub.Close()
	slog.Info("watch started", "types", in.Types)
	defer slog.Info("watch ended", "types", in.Types)

	for _, cmd := range snap {
		ev, err := message.NewEvent(message.EventWindow, cmd)
		if err != nil {
			return toStatus(err)
		}
		if err := stream.SendMsg(&ev); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.loop.Done():
			return nil
		case <-s.stop:
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := stream.SendMsg(&ev); err != nil {
				return err
			}
		}
	}
}

// toStatus maps core errors onto gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); ok {
		return st.Err()
	}
	var decodeErr *imagedata.DecodeError
	code := codes.Internal
	switch {
	case errors.Is(err, history.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, history.ErrDuplicateImage):
		code = codes.AlreadyExists
	case errors.Is(err, history.ErrInsufficientStorage):
		code = codes.ResourceExhausted
	case errors.Is(err, app.ErrNoImage):
		code = codes.FailedPrecondition
	case errors.Is(err, app.ErrBadRequest), errors.As(err, &decodeErr):
		code = codes.InvalidArgument
	case errors.Is(err, loop.ErrStopped):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}
	return status.Error(code, err.Error())
}
