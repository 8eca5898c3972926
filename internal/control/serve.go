package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/soheilhy/cmux"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// Serve runs gRPC and HTTP on ln until ctx ends. Connections are split by
// cmux: HTTP/2 requests with a gRPC content type go to the gRPC server,
// everything else to the HTTP router.
func Serve(ctx context.Context, ln net.Listener, s *Service) error {
	m := cmux.New(ln)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldPrefixSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	gs := grpc.NewServer()
	Register(gs, s)
	hs := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	// Errors after ctx ends come from the shutdown below.
	stopping := func(err error) bool { return err == nil || ctx.Err() != nil || closed(err) }
	g.Go(func() error {
		if err := gs.Serve(grpcL); !stopping(err) && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := hs.Serve(httpL); !stopping(err) && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := m.Serve(); !stopping(err) {
			return fmt.Errorf("mux: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.shutdown()
		slog.Debug("control server stopping")
		stopped := make(chan struct{})
		go func() {
			gs.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			gs.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
		_ = ln.Close()
		return nil
	})
	return g.Wait()
}

func closed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, cmux.ErrListenerClosed)
}
