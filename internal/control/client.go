package control

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.klb.dev/pinpaste/internal/ipc"
	"go.klb.dev/pinpaste/internal/message"
)

// Client calls the Control service.
type Client struct {
	conn *grpc.ClientConn
}

// DialOptions returns the options every Control connection needs: plaintext
// (the socket is owner-restricted) and the JSON codec.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(message.CodecName)),
	}
}

// Dial returns a Client for the daemon listening on the IPC socket at path.
// The connection is established lazily by the first call.
func Dial(path string) (*Client, error) {
	opts := append(DialOptions(), grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return ipc.Dial(ctx, path)
	}))
	conn, err := grpc.NewClient("passthrough:///pinpaste", opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	return &Client{conn: conn}, nil
}

// NewClient wraps an existing connection. It must carry DialOptions.
func NewClient(conn *grpc.ClientConn) *Client { return &Client{conn: conn} }

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, fullMethod(method), in, out)
}

func (c *Client) History(ctx context.Context, withImages bool) (*message.HistoryResponse, error) {
	out := new(message.HistoryResponse)
	return out, c.invoke(ctx, "History", &message.HistoryRequest{WithImages: withImages}, out)
}

func (c *Client) Get(ctx context.Context, id string) (*message.Record, error) {
	out := new(message.Record)
	return out, c.invoke(ctx, "Get", &message.IDRequest{ID: id}, out)
}

func (c *Client) Paste(ctx context.Context) (*message.Record, error) {
	out := new(message.Record)
	return out, c.invoke(ctx, "Paste", &message.Empty{}, out)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.invoke(ctx, "Delete", &message.IDRequest{ID: id}, &message.Empty{})
}

func (c *Client) Clear(ctx context.Context) error {
	return c.invoke(ctx, "Clear", &message.Empty{}, &message.Empty{})
}

func (c *Client) ShowImage(ctx context.Context, req *message.ImageRequest) (*message.ShowResponse, error) {
	out := new(message.ShowResponse)
	return out, c.invoke(ctx, "ShowImage", req, out)
}

func (c *Client) Edit(ctx context.Context, req *message.ImageRequest) (*message.ShowResponse, error) {
	out := new(message.ShowResponse)
	return out, c.invoke(ctx, "Edit", req, out)
}

func (c *Client) Save(ctx context.Context, req *message.SaveRequest) (*message.SaveResponse, error) {
	out := new(message.SaveResponse)
	return out, c.invoke(ctx, "Save", req, out)
}

func (c *Client) Toggle(ctx context.Context) (*message.WindowStateResponse, error) {
	out := new(message.WindowStateResponse)
	return out, c.invoke(ctx, "Toggle", &message.Empty{}, out)
}

func (c *Client) Activate(ctx context.Context) (*message.WindowStateResponse, error) {
	out := new(message.WindowStateResponse)
	return out, c.invoke(ctx, "Activate", &message.Empty{}, out)
}

func (c *Client) Quit(ctx context.Context) error {
	return c.invoke(ctx, "Quit", &message.Empty{}, &message.Empty{})
}

func (c *Client) WindowEvent(ctx context.Context, window string, kind message.WindowEventKind) (bool, error) {
	out := new(message.WindowEventResponse)
	err := c.invoke(ctx, "WindowEvent", &message.WindowEventRequest{Window: window, Kind: kind}, out)
	return out.Allow, err
}

func (c *Client) ReportDisplay(ctx context.Context, width, height int) error {
	return c.invoke(ctx, "ReportDisplay", &message.DisplayRequest{Width: width, Height: height}, &message.Empty{})
}

func (c *Client) Status(ctx context.Context) (*message.StatusResponse, error) {
	out := new(message.StatusResponse)
	return out, c.invoke(ctx, "Status", &message.Empty{}, out)
}

func (c *Client) StorageInfo(ctx context.Context) (*message.StorageInfo, error) {
	out := new(message.StorageInfo)
	return out, c.invoke(ctx, "StorageInfo", &message.Empty{}, out)
}

func (c *Client) AutoLaunchStatus(ctx context.Context) (*message.AutoLaunchResponse, error) {
	out := new(message.AutoLaunchResponse)
	return out, c.invoke(ctx, "AutoLaunchStatus", &message.Empty{}, out)
}

func (c *Client) EnableAutoLaunch(ctx context.Context) (*message.AutoLaunchResponse, error) {
	out := new(message.AutoLaunchResponse)
	return out, c.invoke(ctx, "EnableAutoLaunch", &message.Empty{}, out)
}

func (c *Client) OpenStorageFolder(ctx context.Context) error {
	return c.invoke(ctx, "OpenStorageFolder", &message.Empty{}, &message.Empty{})
}

// EventStream receives events from Watch.
type EventStream struct {
	stream grpc.ClientStream
}

// Recv blocks for the next event. It returns io.EOF when the daemon ends the
// stream.
func (s *EventStream) Recv() (*message.Event, error) {
	ev := new(message.Event)
	if err := s.stream.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Watch subscribes to events of the given types, or all events if none are
// given. Cancel ctx to end the stream.
func (c *Client) Watch(ctx context.Context, types ...message.EventType) (*EventStream, error) {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod("Watch"))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&message.WatchRequest{Types: types}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventStream{stream: stream}, nil
}
