// Package message defines the pinpaste control protocol.
//
// The daemon and its clients exchange these types over gRPC on the local IPC
// socket. They are encoded as JSON by Codec, so no generated code is needed;
// the field names double as the renderer-facing event schema.
package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType identifies a notification sent to the presentation layer.
type EventType string

const (
	EventHistoryLoaded     EventType = "history-loaded"
	EventHistoryUpdated    EventType = "history-updated"
	EventStorageInfo       EventType = "storage-info"
	EventStorageWarning    EventType = "storage-warning"
	EventWindow            EventType = "window"
	EventSaveSuccess       EventType = "save-success"
	EventSaveError         EventType = "save-error"
	EventSaveImageResult   EventType = "save-image-result"
	EventAutoLaunchStatus  EventType = "auto-launch-status"
	EventAutoLaunchEnabled EventType = "auto-launch-enabled"
	EventAutoLaunchError   EventType = "auto-launch-error"
	EventFolderOpenError   EventType = "folder-open-error"
)

// Event is one notification. Payload is the JSON form of the type-specific
// body (a record list, StorageInfo, WindowCommand, or a string).
type Event struct {
	Seq     uint64          `json:"seq"`
	Type    EventType       `json:"type"`
	Time    time.Time       `json:"time"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent marshals payload into an Event.
func NewEvent(typ EventType, payload any) (Event, error) {
	ev := Event{Type: typ, Time: time.Now().UTC()}
	if payload == nil {
		return ev, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("event %s: %w", typ, err)
	}
	ev.Payload = b
	return ev, nil
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("event %s: %w", e.Type, err)
	}
	return nil
}

// Record is a history entry as seen by clients.
type Record struct {
	ID          string    `json:"id"`
	ImageData   string    `json:"imageData,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Fingerprint string    `json:"fingerprint,omitempty"`
}

// StorageInfo summarises history storage.
type StorageInfo struct {
	AvailableGiB float64 `json:"availableSpaceGiB"`
	UsedMiB      float64 `json:"usedSpaceMiB"`
	UsedBytes    int64   `json:"usedBytes"`
	TotalCount   int     `json:"totalCount"`
	Path         string  `json:"path,omitempty"`
}

// SaveResult is the payload of save-image-result.
type SaveResult struct {
	OK      bool   `json:"ok"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message,omitempty"`
}

// WindowOp is a command for the renderer.
type WindowOp string

const (
	OpCreate      WindowOp = "create"
	OpShow        WindowOp = "show"
	OpHide        WindowOp = "hide"
	OpFocus       WindowOp = "focus"
	OpRestore     WindowOp = "restore"
	OpClose       WindowOp = "close"
	OpAlwaysOnTop WindowOp = "always-on-top"
	OpSend        WindowOp = "send"
	OpDevTools    WindowOp = "devtools"
)

// WindowOptions describes a window to create.
type WindowOptions struct {
	Kind        string `json:"kind"`
	Title       string `json:"title,omitempty"`
	Page        string `json:"page,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	X           *int   `json:"x,omitempty"`
	Y           *int   `json:"y,omitempty"`
	Frameless   bool   `json:"frameless,omitempty"`
	Transparent bool   `json:"transparent,omitempty"`
	AlwaysOnTop bool   `json:"alwaysOnTop,omitempty"`
	SkipTaskbar bool   `json:"skipTaskbar,omitempty"`
	Show        bool   `json:"show"`
}

// WindowCommand is the payload of a window event.
type WindowCommand struct {
	Window  string          `json:"window"`
	Op      WindowOp        `json:"op"`
	Options *WindowOptions  `json:"options,omitempty"`
	Flag    bool            `json:"flag,omitempty"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// WindowEventKind is something the renderer observed on a window.
type WindowEventKind string

const (
	WindowFocus          WindowEventKind = "focus"
	WindowBlur           WindowEventKind = "blur"
	WindowCloseRequested WindowEventKind = "close-requested"
	WindowClosed         WindowEventKind = "closed"
	WindowLoaded         WindowEventKind = "loaded"
	WindowMinimized      WindowEventKind = "minimized"
	WindowRestored       WindowEventKind = "restored"
	WindowShown          WindowEventKind = "shown"
	WindowHidden         WindowEventKind = "hidden"
)

// Empty is the request or response of RPCs without arguments.
type Empty struct{}

// HistoryRequest asks for the history list.
type HistoryRequest struct {
	// WithImages includes imageData in each record.
	WithImages bool `json:"withImages,omitempty"`
}

// HistoryResponse is the history list, newest first.
type HistoryResponse struct {
	Records []Record     `json:"records"`
	Storage *StorageInfo `json:"storage,omitempty"`
}

// IDRequest names a history record.
type IDRequest struct {
	ID string `json:"id"`
}

// ImageRequest carries an image either inline or by record id.
type ImageRequest struct {
	ID        string `json:"id,omitempty"`
	ImageData string `json:"imageData,omitempty"`
}

// ShowResponse reports what ShowImage did.
type ShowResponse struct {
	Window  string `json:"window"`
	Created bool   `json:"created"`
}

// WindowStateResponse reports the main window after Toggle or Activate.
type WindowStateResponse struct {
	State   string `json:"state"`
	Created bool   `json:"created,omitempty"`
}

// SaveRequest saves an image. Source selects the image: "clipboard",
// "history" (ID or ImageData), or "edited" (ImageData). An empty Path lets the
// daemon's save dialog choose; Cancelled reports that the client's own dialog
// was dismissed.
type SaveRequest struct {
	Source    string `json:"source"`
	ID        string `json:"id,omitempty"`
	ImageData string `json:"imageData,omitempty"`
	Path      string `json:"path,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// Save sources.
const (
	SourceClipboard = "clipboard"
	SourceHistory   = "history"
	SourceEdited    = "edited"
)

// SaveResponse acknowledges a save request. The write itself completes
// asynchronously and is reported by a save event.
type SaveResponse struct {
	Accepted bool `json:"accepted"`
}

// WindowEventRequest reports a renderer-observed window event.
type WindowEventRequest struct {
	Window string          `json:"window"`
	Kind   WindowEventKind `json:"kind"`
}

// WindowEventResponse answers a window event. For close-requested, Allow
// tells the renderer whether to proceed with the close.
type WindowEventResponse struct {
	Allow bool `json:"allow"`
}

// DisplayRequest reports the primary display work area.
type DisplayRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// StatusResponse describes the running daemon.
type StatusResponse struct {
	Version     string          `json:"version"`
	StartedAt   time.Time       `json:"startedAt"`
	HistoryFile string          `json:"historyFile"`
	Storage     StorageInfo     `json:"storage"`
	MainWindow  string          `json:"mainWindow"`
	Floating    []string        `json:"floating,omitempty"`
	Hotkeys     []string        `json:"hotkeys,omitempty"`
	Clipboard   string          `json:"clipboard"`
	Subscribers int             `json:"subscribers"`
	Display     *DisplayRequest `json:"display,omitempty"`
}

// AutoLaunchResponse reports the login-item state.
type AutoLaunchResponse struct {
	Enabled bool   `json:"enabled"`
	Error   string `json:"error,omitempty"`
}

// WatchRequest subscribes to events. An empty Types receives everything.
type WatchRequest struct {
	Types []EventType `json:"types,omitempty"`
}

// Wants reports whether the subscription includes typ.
func (r *WatchRequest) Wants(typ EventType) bool {
	if len(r.Types) == 0 {
		return true
	}
	for _, t := range r.Types {
		if t == typ {
			return true
		}
	}
	return false
}
