//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows implementation of input injection using SendInput.

const (
	INPUT_MOUSE    = 0
	INPUT_KEYBOARD = 1

	KEYEVENTF_KEYUP = 0x0002

	MOUSEEVENTF_LEFTDOWN   = 0x0002
	MOUSEEVENTF_LEFTUP     = 0x0004
	MOUSEEVENTF_RIGHTDOWN  = 0x0008
	MOUSEEVENTF_RIGHTUP    = 0x0010
	MOUSEEVENTF_MIDDLEDOWN = 0x0020
	MOUSEEVENTF_MIDDLEUP   = 0x0040
	MOUSEEVENTF_WHEEL      = 0x0800
	MOUSEEVENTF_HWHEEL     = 0x1000
)

var (
	sendInput    = user32.NewProc("SendInput")
	setCursorPos = user32.NewProc("SetCursorPos")
)

type KEYBDINPUT struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type MOUSEINPUT struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// keyboardPacket and mousePacket mirror the C INPUT struct; the trailing
// padding keeps both at the size of the larger MOUSEINPUT union member.
type keyboardPacket struct {
	inputType uint32
	_         uint32
	ki        KEYBDINPUT
	_         [8]byte
}

type mousePacket struct {
	inputType uint32
	_         uint32
	mi        MOUSEINPUT
}

// Injector injects synthetic input via the SendInput API.
type Injector struct{}

// NewInjector creates a new Windows injector.
func NewInjector() *Injector {
	return &Injector{}
}

// MoveTo moves the cursor to absolute screen coordinates.
func (i *Injector) MoveTo(x, y int) error {
	ret, _, err := setCursorPos.Call(uintptr(int32(x)), uintptr(int32(y)))
	if ret == 0 {
		return fmt.Errorf("set cursor position: %w", err)
	}
	return nil
}

// Click presses and releases the named mouse button at the current cursor
// position.
func (i *Injector) Click(button string) error {
	var down, up uint32
	switch button {
	case "left":
		down, up = MOUSEEVENTF_LEFTDOWN, MOUSEEVENTF_LEFTUP
	case "right":
		down, up = MOUSEEVENTF_RIGHTDOWN, MOUSEEVENTF_RIGHTUP
	case "middle":
		down, up = MOUSEEVENTF_MIDDLEDOWN, MOUSEEVENTF_MIDDLEUP
	default:
		return fmt.Errorf("unknown mouse button %q", button)
	}
	if err := i.sendMouse(down, 0); err != nil {
		return err
	}
	return i.sendMouse(up, 0)
}

// KeyDown presses an injection-domain key.
func (i *Injector) KeyDown(key string) error {
	return i.sendKey(key, 0)
}

// KeyUp releases an injection-domain key.
func (i *Injector) KeyUp(key string) error {
	return i.sendKey(key, KEYEVENTF_KEYUP)
}

// ScrollVertical scrolls by a raw wheel amount (positive is away from the
// user).
func (i *Injector) ScrollVertical(amount int) error {
	return i.sendMouse(MOUSEEVENTF_WHEEL, uint32(int32(amount)))
}

// ScrollHorizontal scrolls by a raw wheel amount (positive is to the right).
func (i *Injector) ScrollHorizontal(amount int) error {
	return i.sendMouse(MOUSEEVENTF_HWHEEL, uint32(int32(amount)))
}

func (i *Injector) sendKey(key string, flags uint32) error {
	vk, ok := vkFromName(key)
	if !ok {
		return fmt.Errorf("no virtual-key code for %q", key)
	}
	pkt := keyboardPacket{
		inputType: INPUT_KEYBOARD,
		ki: KEYBDINPUT{
			WVk:     uint16(vk),
			DwFlags: flags,
		},
	}
	ret, _, err := sendInput.Call(1, uintptr(unsafe.Pointer(&pkt)), unsafe.Sizeof(pkt))
	if ret != 1 {
		return fmt.Errorf("send key input: %w", err)
	}
	return nil
}

func (i *Injector) sendMouse(flags, data uint32) error {
	pkt := mousePacket{
		inputType: INPUT_MOUSE,
		mi: MOUSEINPUT{
			MouseData: data,
			DwFlags:   flags,
		},
	}
	ret, _, err := sendInput.Call(1, uintptr(unsafe.Pointer(&pkt)), unsafe.Sizeof(pkt))
	if ret != 1 {
		return fmt.Errorf("send mouse input: %w", err)
	}
	return nil
}
