//go:build windows

package input

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"macrorec/internal/event"
)

// Windows implementation of input capture using low-level hooks.

// Windows API constants
const (
	WH_KEYBOARD_LL = 13
	WH_MOUSE_LL    = 14

	WM_QUIT        = 0x0012
	WM_KEYDOWN     = 0x0100
	WM_KEYUP       = 0x0101
	WM_SYSKEYDOWN  = 0x0104
	WM_SYSKEYUP    = 0x0105
	WM_LBUTTONDOWN = 0x0201
	WM_LBUTTONUP   = 0x0202
	WM_RBUTTONDOWN = 0x0204
	WM_RBUTTONUP   = 0x0205
	WM_MBUTTONDOWN = 0x0207
	WM_MBUTTONUP   = 0x0208
	WM_MOUSEWHEEL  = 0x020A
	WM_MOUSEHWHEEL = 0x020E

	wheelDelta = 120
)

// Windows API functions
var (
	user32              = windows.NewLazySystemDLL("user32.dll")
	kernel32            = windows.NewLazySystemDLL("kernel32.dll")
	setWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	unhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	callNextHookEx      = user32.NewProc("CallNextHookEx")
	getMessage          = user32.NewProc("GetMessageW")
	postThreadMessage   = user32.NewProc("PostThreadMessageW")
	getCurrentThreadID  = kernel32.NewProc("GetCurrentThreadId")
)

// Windows API structures
type POINT struct {
	X, Y int32
}

type MSG struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      POINT
}

type KBDLLHOOKSTRUCT struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type MSLLHOOKSTRUCT struct {
	Pt          POINT
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

// Trap captures system-wide input via WH_KEYBOARD_LL and WH_MOUSE_LL hooks.
type Trap struct {
	mu       sync.Mutex
	events   chan RawEvent
	running  bool
	threadID uint32
	keyHook  uintptr
	mowHook  uintptr
	ready    chan error
}

// NewTrap creates a new input trap for Windows.
func NewTrap() *Trap {
	return &Trap{
		events: make(chan RawEvent, 1000),
	}
}

// Start installs the hooks and runs the message loop on a dedicated locked
// OS thread, as low-level hooks require.
func (t *Trap) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("trap already running")
	}

	t.ready = make(chan error, 1)
	go t.messageLoop()

	if err := <-t.ready; err != nil {
		return err
	}
	t.running = true
	return nil
}

// Stop removes the hooks, ends the message loop and closes the event
// channel.
func (t *Trap) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}
	t.running = false

	postThreadMessage.Call(uintptr(t.threadID), WM_QUIT, 0, 0)
	return nil
}

// Events returns the raw event channel. It is closed when the trap stops.
func (t *Trap) Events() <-chan RawEvent {
	return t.events
}

func (t *Trap) messageLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tid, _, _ := getCurrentThreadID.Call()
	t.threadID = uint32(tid)

	keyProc := windows.NewCallback(t.keyboardHook)
	mouseProc := windows.NewCallback(t.mouseHook)

	kh, _, err := setWindowsHookEx.Call(WH_KEYBOARD_LL, keyProc, 0, 0)
	if kh == 0 {
		t.ready <- fmt.Errorf("install keyboard hook: %w", err)
		return
	}
	mh, _, err := setWindowsHookEx.Call(WH_MOUSE_LL, mouseProc, 0, 0)
	if mh == 0 {
		unhookWindowsHookEx.Call(kh)
		t.ready <- fmt.Errorf("install mouse hook: %w", err)
		return
	}
	t.keyHook = kh
	t.mowHook = mh
	t.ready <- nil

	var msg MSG
	for {
		ret, _, _ := getMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
	}

	unhookWindowsHookEx.Call(t.keyHook)
	unhookWindowsHookEx.Call(t.mowHook)
	close(t.events)
}

func (t *Trap) keyboardHook(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		kb := (*KBDLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		key := keyFromVK(kb.VkCode)
		switch wParam {
		case WM_KEYDOWN, WM_SYSKEYDOWN:
			t.emit(RawEvent{Kind: RawKeyDown, Key: key})
		case WM_KEYUP, WM_SYSKEYUP:
			t.emit(RawEvent{Kind: RawKeyUp, Key: key})
		}
	}
	ret, _, _ := callNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func (t *Trap) mouseHook(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		ms := (*MSLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		x, y := int(ms.Pt.X), int(ms.Pt.Y)
		switch wParam {
		case WM_LBUTTONDOWN:
			t.emit(RawEvent{Kind: RawButtonDown, Key: event.Button("left"), X: x, Y: y})
		case WM_LBUTTONUP:
			t.emit(RawEvent{Kind: RawButtonUp, Key: event.Button("left"), X: x, Y: y})
		case WM_RBUTTONDOWN:
			t.emit(RawEvent{Kind: RawButtonDown, Key: event.Button("right"), X: x, Y: y})
		case WM_RBUTTONUP:
			t.emit(RawEvent{Kind: RawButtonUp, Key: event.Button("right"), X: x, Y: y})
		case WM_MBUTTONDOWN:
			t.emit(RawEvent{Kind: RawButtonDown, Key: event.Button("middle"), X: x, Y: y})
		case WM_MBUTTONUP:
			t.emit(RawEvent{Kind: RawButtonUp, Key: event.Button("middle"), X: x, Y: y})
		case WM_MOUSEWHEEL:
			notches := int(int16(ms.MouseData>>16)) / wheelDelta
			t.emit(RawEvent{Kind: RawScroll, Key: event.Wheel(), X: x, Y: y, DY: notches})
		case WM_MOUSEHWHEEL:
			notches := int(int16(ms.MouseData>>16)) / wheelDelta
			t.emit(RawEvent{Kind: RawScroll, Key: event.Wheel(), X: x, Y: y, DX: notches})
		}
	}
	ret, _, _ := callNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

// emit delivers an event without ever blocking the hook thread; a full
// channel drops the event.
func (t *Trap) emit(ev RawEvent) {
	select {
	case t.events <- ev:
	default:
	}
}
