//go:build cgo

package hotkeys

import (
	"golang.design/x/hotkey"

	"go.klb.dev/pinpaste/internal/shortcut"
)

// X11 maps Alt to Mod1 and Super to Mod4 on common keyboard layouts.
func modifier(name string) (hotkey.Modifier, bool) {
	switch name {
	case shortcut.ModCtrl, shortcut.ModCmdOrCtrl:
		return hotkey.ModCtrl, true
	case shortcut.ModShift:
		return hotkey.ModShift, true
	case shortcut.ModAlt:
		return hotkey.Mod1, true
	case shortcut.ModSuper:
		return hotkey.Mod4, true
	}
	return 0, false
}
