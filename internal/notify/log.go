package notify

import (
	"context"
	"log/slog"

	"go.klb.dev/pinpaste/internal/message"
)

const maxLoggedPayload = 512

// LogEvent logs an event at DEBUG. Large payloads carry whole images and are
// logged by size only.
func LogEvent(ev message.Event) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if len(ev.Payload) <= maxLoggedPayload {
		slog.Debug("event", "seq", ev.Seq, "type", ev.Type, "payload", string(ev.Payload))
		return
	}
	slog.Debug("event", "seq", ev.Seq, "type", ev.Type, "size_bytes", len(ev.Payload))
}
