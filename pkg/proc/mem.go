package proc

// MemoryReader is like io.ReaderAt, but the offset is a uint64 so that it
// can address all of 64-bit memory.
//
// Implementations distinguish three outcomes:
//   - n == len(buf), err == nil: the whole range was read.
//   - n < len(buf), err == nil: partial read, buf[n:] holds no valid data.
//   - err != nil: hard failure, normally a *PlatformError.
type MemoryReader interface {
	ReadMemory(buf []byte, addr uint64) (n int, err error)
}

// MemState is the allocation state of a span of the target address space.
type MemState uint8

const (
	StateFree MemState = iota
	StateReserve
	StateCommit
)

func (s MemState) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateReserve:
		return "reserve"
	case StateCommit:
		return "commit"
	}
	return "unknown"
}

// Protection is the access protection of a span of the target address
// space. Only the combinations the snapshotter distinguishes are named,
// everything else is ProtOther.
type Protection uint8

const (
	ProtNoAccess Protection = iota
	ProtReadOnly
	ProtReadWrite
	ProtExecute
	ProtExecuteRead
	ProtExecuteReadWrite
	ProtOther
)

func (p Protection) String() string {
	switch p {
	case ProtNoAccess:
		return "---"
	case ProtReadOnly:
		return "r--"
	case ProtReadWrite:
		return "rw-"
	case ProtExecute:
		return "--x"
	case ProtExecuteRead:
		return "r-x"
	case ProtExecuteReadWrite:
		return "rwx"
	}
	return "???"
}

// RegionInfo describes a span of the target address space as reported by
// the operating system, without its contents.
type RegionInfo struct {
	Base    uint64
	Size    uint64
	State   MemState
	Protect Protection
}

// Process is a target whose address space can be walked and read.
type Process interface {
	MemoryReader

	// Pid returns the process ID of the target.
	Pid() int

	// QueryRegion returns the span of the address space that contains
	// addr, or the first span after it. It returns ErrEndOfAddressSpace
	// once addr is past the last span.
	QueryRegion(addr uint64) (RegionInfo, error)

	// Close releases the handle to the target.
	Close() error
}
