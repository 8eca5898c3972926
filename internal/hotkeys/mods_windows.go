package hotkeys

import (
	"golang.design/x/hotkey"

	"go.klb.dev/pinpaste/internal/shortcut"
)

func modifier(name string) (hotkey.Modifier, bool) {
	switch name {
	case shortcut.ModCtrl, shortcut.ModCmdOrCtrl:
		return hotkey.ModCtrl, true
	case shortcut.ModShift:
		return hotkey.ModShift, true
	case shortcut.ModAlt:
		return hotkey.ModAlt, true
	case shortcut.ModSuper:
		return hotkey.ModWin, true
	}
	return 0, false
}
