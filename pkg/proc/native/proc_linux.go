package native

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/go-delve/memscan/pkg/logflags"
	"github.com/go-delve/memscan/pkg/proc"
)

// osProcessDetails contains Linux specific process details.
type osProcessDetails struct {
	maps []mapping

	// mem is opened the first time process_vm_readv turns out to be
	// unavailable.
	mem       *os.File
	noVMReadv bool
}

func openProcess(pid int) (*osProcessDetails, error) {
	if _, err := os.Stat(fmt.Sprintf("/proc/%d", pid)); err != nil {
		return nil, &proc.PlatformError{Op: "Could not get process handle", Err: err}
	}
	return &osProcessDetails{}, nil
}

func (os *osProcessDetails) close() error {
	if os.mem != nil {
		return os.mem.Close()
	}
	return nil
}

// QueryRegion describes the span of the address space containing addr.
// The memory map is reloaded whenever a walk restarts from address zero.
func (p *Process) QueryRegion(addr uint64) (proc.RegionInfo, error) {
	if addr == 0 || p.os.maps == nil {
		maps, err := readMappings(p.pid)
		if err != nil {
			return proc.RegionInfo{}, err
		}
		p.os.maps = maps
	}
	return queryMappings(p.os.maps, addr)
}

// ReadMemory reads len(buf) bytes at addr. Reads that cross into an
// unmapped page return the bytes read up to that page and no error.
func (p *Process) ReadMemory(buf []byte, addr uint64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if !p.os.noVMReadv {
		n, err := p.readvm(buf, addr)
		if !errors.Is(err, unix.ENOSYS) {
			return n, err
		}
		logflags.NativeLogger().Warnf("process_vm_readv not available, reading /proc/%d/mem", p.pid)
		p.os.noVMReadv = true
	}
	return p.readMemFile(buf, addr)
}

func (p *Process) readvm(buf []byte, addr uint64) (int, error) {
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}
	n, err := unix.ProcessVMReadv(p.pid, local, remote, 0)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, unix.EFAULT), errors.Is(err, unix.EIO):
		// nothing at addr could be read
		return 0, nil
	case errors.Is(err, unix.ENOSYS):
		return 0, err
	}
	return 0, readError(addr, err)
}

func (p *Process) readMemFile(buf []byte, addr uint64) (int, error) {
	if p.os.mem == nil {
		f, err := os.Open(fmt.Sprintf("/proc/%d/mem", p.pid))
		if err != nil {
			return 0, &proc.PlatformError{Op: "Could not get process handle", Err: err}
		}
		p.os.mem = f
	}
	if addr > 1<<63-1 {
		return 0, nil
	}
	n, err := p.os.mem.ReadAt(buf, int64(addr))
	if err == nil || err == io.EOF || errors.Is(err, unix.EIO) || errors.Is(err, unix.EFAULT) {
		return n, nil
	}
	return n, readError(addr, err)
}

func readError(addr uint64, err error) error {
	var code uint32
	var errno syscall.Errno
	if errors.As(err, &errno) {
		code = uint32(errno)
	}
	return &proc.PlatformError{Op: "Cannot read process memory", Code: code, Addr: addr, HasAddr: true, Err: err}
}
