//go:build cgo

package hotkeys

import (
	"golang.design/x/hotkey"

	"go.klb.dev/pinpaste/internal/shortcut"
)

func modifier(name string) (hotkey.Modifier, bool) {
	switch name {
	case shortcut.ModCtrl:
		return hotkey.ModCtrl, true
	case shortcut.ModShift:
		return hotkey.ModShift, true
	case shortcut.ModAlt:
		return hotkey.ModOption, true
	case shortcut.ModSuper, shortcut.ModCmdOrCtrl:
		return hotkey.ModCmd, true
	}
	return 0, false
}
