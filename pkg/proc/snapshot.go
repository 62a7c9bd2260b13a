package proc

import (
	"errors"
	"fmt"

	"github.com/go-delve/memscan/pkg/logflags"
)

// Snapshot walks the address space of p once, starting at address zero,
// and captures every committed region whose protection is exactly
// read-write or execute-read-write. The returned regions are sorted by
// ascending base address and do not overlap.
//
// The walk ends normally when QueryRegion returns ErrEndOfAddressSpace,
// any other query error is returned as is. Unlike scan rounds, a snapshot
// does not tolerate partial reads: a region that can not be read entirely
// results in a *ConsistencyError.
func Snapshot(p Process) ([]Region, error) {
	logger := logflags.SnapshotLogger()

	var (
		regions []Region
		skipped int
	)
	for addr := uint64(0); ; {
		info, err := p.QueryRegion(addr)
		if err != nil {
			if errors.Is(err, ErrEndOfAddressSpace) {
				break
			}
			return nil, err
		}
		next := info.Base + info.Size
		if info.Size == 0 || (next <= addr && next != 0) {
			return nil, fmt.Errorf("region query wrapped around the address space or got stuck at %#x", addr)
		}

		if info.State == StateCommit && (info.Protect == ProtReadWrite || info.Protect == ProtExecuteReadWrite) {
			buf, n, err := readRegion(p, info.Base, info.Size)
			if err != nil {
				return nil, err
			}
			if uint64(n) != info.Size {
				return nil, &ConsistencyError{What: "region size", Addr: info.Base, Want: info.Size, Got: uint64(n)}
			}
			regions = append(regions, Region{Base: info.Base, Size: info.Size, Data: buf})
		} else {
			skipped++
		}
		if next == 0 {
			// the last region ends at the top of the address space
			break
		}
		addr = next
	}

	if logflags.Snapshot() {
		logger.Debugf("pid %d: captured %d regions (%d bytes), skipped %d", p.Pid(), len(regions), TotalSize(regions), skipped)
	}
	return regions, nil
}
