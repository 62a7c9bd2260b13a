//go:build !linux && !windows

package native

import (
	"runtime"

	"github.com/go-delve/memscan/pkg/proc"
)

var errUnsupported = &proc.PlatformError{Op: "reading process memory is not supported on " + runtime.GOOS}

type osProcessDetails struct{}

func openProcess(pid int) (*osProcessDetails, error) {
	return nil, errUnsupported
}

func (os *osProcessDetails) close() error {
	return nil
}

func (p *Process) QueryRegion(addr uint64) (proc.RegionInfo, error) {
	return proc.RegionInfo{}, errUnsupported
}

func (p *Process) ReadMemory(buf []byte, addr uint64) (int, error) {
	return 0, errUnsupported
}

func enumWindows() ([]Window, error) {
	return nil, errUnsupported
}
