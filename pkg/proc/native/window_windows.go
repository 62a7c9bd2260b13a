package native

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/go-delve/memscan/pkg/proc"
)

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procGetWindowTextW = user32.NewProc("GetWindowTextW")
)

const maxTitle = 128

func getWindowText(hwnd windows.HWND) string {
	var buf [maxTitle]uint16
	n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:n])
}

type enumState struct {
	windows []Window
	err     error
}

// enumWindowsCallback is created once, the number of callbacks a process
// can create is limited.
var enumWindowsCallback = syscall.NewCallback(enumWindowsProc)

func enumWindowsProc(hwnd windows.HWND, lparam uintptr) uintptr {
	st := (*enumState)(unsafe.Pointer(lparam))
	w := Window{Title: getWindowText(hwnd), Handle: uintptr(hwnd)}
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		st.err = &proc.PlatformError{Op: "Cannot get process id from window", Code: errorCode(err), Err: err}
		return 0
	}
	w.Pid = int(pid)
	st.windows = append(st.windows, w)
	return 1
}

// enumWindows lists the top level windows of the desktop with their
// owning process.
func enumWindows() ([]Window, error) {
	var st enumState
	if err := windows.EnumWindows(enumWindowsCallback, unsafe.Pointer(&st)); err != nil {
		if st.err != nil {
			return nil, st.err
		}
		return nil, &proc.PlatformError{Op: "Could not enumerate windows", Code: errorCode(err), Err: err}
	}
	if st.err != nil {
		return nil, st.err
	}
	return st.windows, nil
}
