// Package session drives window lifecycle: the main window's
// Hidden/Visible/Minimized state machine, one floating window per distinct
// image, the edit window, and hotkeys that are bound only while a given window
// holds input focus.
//
// The package never draws anything. It talks to a Host that owns real
// windows and receives the events the host observes through HandleEvent.
// A Controller is not safe for concurrent use; run it on the event loop.
package session

import (
	"time"

	"go.klb.dev/pinpaste/internal/imagedata"
)

// State is the main window state.
type State int

const (
	Hidden State = iota
	Visible
	Minimized
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Visible:
		return "visible"
	case Minimized:
		return "minimized"
	default:
		return "unknown"
	}
}

// Kind is the role of a window.
type Kind string

const (
	KindMain     Kind = "main"
	KindFloating Kind = "floating"
	KindEdit     Kind = "edit"
)

// EventKind is a window event observed by the host.
type EventKind string

const (
	EventFocus          EventKind = "focus"
	EventBlur           EventKind = "blur"
	EventCloseRequested EventKind = "close-requested"
	EventClosed         EventKind = "closed"
	EventLoaded         EventKind = "loaded"
	EventMinimized      EventKind = "minimized"
	EventRestored       EventKind = "restored"
	EventShown          EventKind = "shown"
	EventHidden         EventKind = "hidden"
)

// ChannelSetImage carries an image payload to a window's content layer.
const ChannelSetImage = "set-image"

// Options describes a window to create.
type Options struct {
	Kind        Kind
	Title       string
	Page        string
	Icon        string
	Width       int
	Height      int
	X, Y        int
	Positioned  bool
	Frameless   bool
	Transparent bool
	AlwaysOnTop bool
	SkipTaskbar bool
	Show        bool
}

// Window is a host window handle.
type Window interface {
	ID() string
	Show()
	Hide()
	Focus()
	Restore()
	// Close asks the window to close; the host reports EventClosed once it has.
	Close()
	SetAlwaysOnTop(on bool)
	// Send delivers payload to the window's content layer on channel.
	Send(channel string, payload any)
	OpenDevTools()
	IsVisible() bool
	IsMinimized() bool
	IsDestroyed() bool
}

// Host creates windows and reports the primary display.
type Host interface {
	CreateWindow(opts Options) (Window, error)
	// WorkArea is the usable size of the primary display.
	WorkArea() imagedata.Size
	// WindowCount is the number of open windows.
	WindowCount() int
}

// AfterFunc runs fn on the event loop once d has elapsed.
type AfterFunc func(d time.Duration, fn func())

// Config holds window geometry and the focus-scoped accelerators.
type Config struct {
	CloseKey    string
	DevToolsKey string
	Icon        string

	MainWidth, MainHeight int
	EditWidth, EditHeight int
	// MaxScreenFraction caps floating windows relative to the work area.
	MaxScreenFraction float64
	// TopmostPulse is how long the main window stays always-on-top after it
	// is shown.
	TopmostPulse time.Duration
}

// DefaultConfig returns the stock geometry and accelerators.
func DefaultConfig() Config {
	return Config{
		CloseKey:          "Escape",
		DevToolsKey:       "F12",
		MainWidth:         1024,
		MainHeight:        600,
		EditWidth:         1000,
		EditHeight:        800,
		MaxScreenFraction: 0.8,
		TopmostPulse:      100 * time.Millisecond,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.CloseKey == "" {
		c.CloseKey = d.CloseKey
	}
	if c.DevToolsKey == "" {
		c.DevToolsKey = d.DevToolsKey
	}
	if c.MainWidth <= 0 || c.MainHeight <= 0 {
		c.MainWidth, c.MainHeight = d.MainWidth, d.MainHeight
	}
	if c.EditWidth <= 0 || c.EditHeight <= 0 {
		c.EditWidth, c.EditHeight = d.EditWidth, d.EditHeight
	}
	if c.MaxScreenFraction <= 0 || c.MaxScreenFraction > 1 {
		c.MaxScreenFraction = d.MaxScreenFraction
	}
	if c.TopmostPulse <= 0 {
		c.TopmostPulse = d.TopmostPulse
	}
}

// Hooks let the application react to main window milestones.
type Hooks struct {
	// MainCreated runs after a main window is created, including recreation
	// on Activate.
	MainCreated func()
	// MainLoaded runs once the main window's content has loaded.
	MainLoaded func()
	// MainFocused runs whenever the main window gains focus.
	MainFocused func()
}
