package native

import (
	"errors"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/go-delve/memscan/pkg/proc"
)

// osProcessDetails contains Windows specific process details.
type osProcessDetails struct {
	hProcess windows.Handle
}

func openProcess(pid int) (*osProcessDetails, error) {
	h, err := windows.OpenProcess(windows.PROCESS_VM_READ|windows.PROCESS_QUERY_INFORMATION, false, uint32(pid))
	if err != nil {
		return nil, &proc.PlatformError{Op: "Could not get process handle", Code: errorCode(err), Err: err}
	}
	return &osProcessDetails{hProcess: h}, nil
}

func (os *osProcessDetails) close() error {
	return windows.CloseHandle(os.hProcess)
}

// QueryRegion describes the span of the address space containing addr.
func (p *Process) QueryRegion(addr uint64) (proc.RegionInfo, error) {
	var meminfo windows.MemoryBasicInformation
	err := windows.VirtualQueryEx(p.os.hProcess, uintptr(addr), &meminfo, unsafe.Sizeof(meminfo))
	if err != nil {
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			// addr is above the highest address of the application
			return proc.RegionInfo{}, proc.ErrEndOfAddressSpace
		}
		return proc.RegionInfo{}, &proc.PlatformError{Op: "Cannot query memory region", Code: errorCode(err), Addr: addr, HasAddr: true, Err: err}
	}
	r := proc.RegionInfo{
		Base:    uint64(meminfo.BaseAddress),
		Size:    uint64(meminfo.RegionSize),
		Protect: protection(meminfo.Protect),
	}
	switch meminfo.State {
	case windows.MEM_COMMIT:
		r.State = proc.StateCommit
	case windows.MEM_RESERVE:
		r.State = proc.StateReserve
	default:
		r.State = proc.StateFree
	}
	return r, nil
}

func protection(protect uint32) proc.Protection {
	if protect&^0xff != 0 {
		// PAGE_GUARD, PAGE_NOCACHE and PAGE_WRITECOMBINE
		return proc.ProtOther
	}
	switch protect {
	case windows.PAGE_NOACCESS:
		return proc.ProtNoAccess
	case windows.PAGE_READONLY:
		return proc.ProtReadOnly
	case windows.PAGE_READWRITE:
		return proc.ProtReadWrite
	case windows.PAGE_EXECUTE:
		return proc.ProtExecute
	case windows.PAGE_EXECUTE_READ:
		return proc.ProtExecuteRead
	case windows.PAGE_EXECUTE_READWRITE:
		return proc.ProtExecuteReadWrite
	}
	return proc.ProtOther
}

// ReadMemory reads len(buf) bytes at addr. ERROR_PARTIAL_COPY is reported
// as a partial read.
func (p *Process) ReadMemory(buf []byte, addr uint64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	var count uintptr
	err := windows.ReadProcessMemory(p.os.hProcess, uintptr(addr), &buf[0], uintptr(len(buf)), &count)
	if err != nil && !errors.Is(err, windows.ERROR_PARTIAL_COPY) {
		return 0, &proc.PlatformError{Op: "Cannot read process memory", Code: errorCode(err), Addr: addr, HasAddr: true, Err: err}
	}
	return int(count), nil
}

func errorCode(err error) uint32 {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return uint32(errno)
	}
	return 0
}
