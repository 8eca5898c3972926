package shortcut

import (
	"fmt"
	"strings"
)

// Modifier names used in a parsed Accelerator.
const (
	ModCtrl  = "ctrl"
	ModShift = "shift"
	ModAlt   = "alt"
	ModSuper = "super"
	// ModCmdOrCtrl resolves to Cmd on macOS and Ctrl elsewhere.
	ModCmdOrCtrl = "cmdorctrl"
)

var modifierAliases = map[string]string{
	"ctrl":             ModCtrl,
	"control":          ModCtrl,
	"shift":            ModShift,
	"alt":              ModAlt,
	"option":           ModAlt,
	"super":            ModSuper,
	"cmd":              ModSuper,
	"command":          ModSuper,
	"meta":             ModSuper,
	"win":              ModSuper,
	"cmdorctrl":        ModCmdOrCtrl,
	"commandorcontrol": ModCmdOrCtrl,
}

var keyAliases = map[string]string{
	"esc":       "Escape",
	"escape":    "Escape",
	"enter":     "Return",
	"return":    "Return",
	"space":     "Space",
	"tab":       "Tab",
	"delete":    "Delete",
	"del":       "Delete",
	"left":      "Left",
	"right":     "Right",
	"up":        "Up",
	"down":      "Down",
	"backspace": "Delete",
}

// Accelerator is a parsed hotkey description such as "Shift+V".
type Accelerator struct {
	Modifiers []string
	// Key is "A"-"Z", "0"-"9", "F1"-"F12", or a named key like "Escape".
	Key string
}

func (a Accelerator) String() string {
	parts := make([]string, 0, len(a.Modifiers)+1)
	for _, m := range a.Modifiers {
		parts = append(parts, strings.ToUpper(m[:1])+m[1:])
	}
	return strings.Join(append(parts, a.Key), "+")
}

// ParseAccelerator parses an accelerator such as "CmdOrCtrl+Shift+V". Modifiers are
// case-insensitive and may repeat; exactly one non-modifier key must come
// last.
func ParseAccelerator(s string) (Accelerator, error) {
	var a Accelerator
	parts := strings.Split(s, "+")
	seen := make(map[string]bool)
	for i, raw := range parts {
		p := strings.TrimSpace(raw)
		if p == "" {
			return Accelerator{}, fmt.Errorf("accelerator %q: empty part", s)
		}
		lower := strings.ToLower(p)
		if i < len(parts)-1 {
			m, ok := modifierAliases[lower]
			if !ok {
				return Accelerator{}, fmt.Errorf("accelerator %q: unknown modifier %q", s, p)
			}
			if !seen[m] {
				seen[m] = true
				a.Modifiers = append(a.Modifiers, m)
			}
			continue
		}
		key, err := parseKey(lower)
		if err != nil {
			return Accelerator{}, fmt.Errorf("accelerator %q: %w", s, err)
		}
		a.Key = key
	}
	return a, nil
}

func parseKey(lower string) (string, error) {
	if k, ok := keyAliases[lower]; ok {
		return k, nil
	}
	if len(lower) == 1 {
		c := lower[0]
		if c >= 'a' && c <= 'z' {
			return strings.ToUpper(lower), nil
		}
		if c >= '0' && c <= '9' {
			return lower, nil
		}
	}
	if lower[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(lower, "f%d", &n); err == nil && n >= 1 && n <= 12 && lower == fmt.Sprintf("f%d", n) {
			return fmt.Sprintf("F%d", n), nil
		}
	}
	if _, isMod := modifierAliases[lower]; isMod {
		return "", fmt.Errorf("missing key after modifier %q", lower)
	}
	return "", fmt.Errorf("unknown key %q", lower)
}
