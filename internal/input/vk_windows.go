//go:build windows

package input

import (
	"fmt"
	"strings"

	"macrorec/internal/event"
)

// Virtual-key code translation between the Windows capture layer and the
// capture/injection key vocabularies. Both tables are intentionally partial;
// unknown codes degrade to a best-effort identifier instead of failing.

// vkNamed maps virtual-key codes to named special keys.
var vkNamed = map[uint32]string{
	0x08: "backspace",
	0x09: "tab",
	0x0D: "enter",
	0x13: "pause",
	0x14: "caps_lock",
	0x1B: "esc",
	0x20: "space",
	0x21: "page_up",
	0x22: "page_down",
	0x23: "end",
	0x24: "home",
	0x25: "left",
	0x26: "up",
	0x27: "right",
	0x28: "down",
	0x2C: "print_screen",
	0x2D: "insert",
	0x2E: "delete",
	0x5B: "cmd_l",
	0x5C: "cmd_r",
	0x70: "f1",
	0x71: "f2",
	0x72: "f3",
	0x73: "f4",
	0x74: "f5",
	0x75: "f6",
	0x76: "f7",
	0x77: "f8",
	0x78: "f9",
	0x79: "f10",
	0x7A: "f11",
	0x7B: "f12",
	0x90: "num_lock",
	0x91: "scroll_lock",
	0xA0: "shift_l",
	0xA1: "shift_r",
	0xA2: "ctrl_l",
	0xA3: "ctrl_r",
	0xA4: "alt_l",
	0xA5: "alt_r",
}

// keyFromVK translates a virtual-key code into a capture-domain key.
func keyFromVK(vk uint32) event.Key {
	if name, ok := vkNamed[vk]; ok {
		return event.Named(name)
	}
	switch {
	case vk >= 0x30 && vk <= 0x39: // '0'..'9'
		return event.Char(string(rune(vk)))
	case vk >= 0x41 && vk <= 0x5A: // 'A'..'Z', reported lowercase
		return event.Char(string(rune(vk + 0x20)))
	case vk >= 0x60 && vk <= 0x69: // numpad 0..9
		return event.Named(fmt.Sprintf("keypad_%d", vk-0x60))
	}
	// Best-effort identifier for keys outside the table.
	return event.Char(fmt.Sprintf("vk_0x%02X", vk))
}

// vkByName maps injection-domain key names to virtual-key codes.
var vkByName = map[string]uint32{
	"backspace":   0x08,
	"tab":         0x09,
	"enter":       0x0D,
	"shift":       0x10,
	"ctrl":        0x11,
	"alt":         0x12,
	"pause":       0x13,
	"capslock":    0x14,
	"esc":         0x1B,
	"space":       0x20,
	"pageup":      0x21,
	"pagedown":    0x22,
	"end":         0x23,
	"home":        0x24,
	"left":        0x25,
	"up":          0x26,
	"right":       0x27,
	"down":        0x28,
	"printscreen": 0x2C,
	"insert":      0x2D,
	"del":         0x2E,
	"win":         0x5B,
	"winleft":     0x5B,
	"winright":    0x5C,
	"f1":          0x70,
	"f2":          0x71,
	"f3":          0x72,
	"f4":          0x73,
	"f5":          0x74,
	"f6":          0x75,
	"f7":          0x76,
	"f8":          0x77,
	"f9":          0x78,
	"f10":         0x79,
	"f11":         0x7A,
	"f12":         0x7B,
	"num0":        0x60,
	"num1":        0x61,
	"num2":        0x62,
	"num3":        0x63,
	"num4":        0x64,
	"num5":        0x65,
	"num6":        0x66,
	"num7":        0x67,
	"num8":        0x68,
	"num9":        0x69,
	"numlock":     0x90,
	"scrolllock":  0x91,
	"shiftleft":   0xA0,
	"shiftright":  0xA1,
	"ctrlleft":    0xA2,
	"ctrlright":   0xA3,
	"altleft":     0xA4,
	"altright":    0xA5,
}

// vkFromName translates an injection-domain key name into a virtual-key
// code. Single printable characters map through their uppercase code point.
func vkFromName(name string) (uint32, bool) {
	if vk, ok := vkByName[name]; ok {
		return vk, true
	}
	if len(name) == 1 {
		r := rune(strings.ToUpper(name)[0])
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') {
			return uint32(r), true
		}
	}
	return 0, false
}
