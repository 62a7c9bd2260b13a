package proc

import "fmt"

// A Region is a captured piece of the virtual address space of the target:
// its location and a private copy of its bytes.
//
// len(Data) == Size for every region held by the snapshotter or the
// scanner. A region is never modified after it has been captured, a scan
// round that keeps it replaces it with a freshly read copy.
type Region struct {
	Base uint64
	Size uint64
	Data []byte
}

// End returns the first address past the region.
func (r *Region) End() uint64 {
	return r.Base + r.Size
}

// Contains returns true if addr is inside [Base, Base+Size).
func (r *Region) Contains(addr uint64) bool {
	return addr >= r.Base && addr < r.End()
}

func (r *Region) String() string {
	return fmt.Sprintf("0x%016x-0x%016x %10d", r.Base, r.End(), r.Size)
}

// TotalSize returns the sum of the sizes of regions.
func TotalSize(regions []Region) uint64 {
	var n uint64
	for i := range regions {
		n += regions[i].Size
	}
	return n
}

// readRegion reads size bytes at base into a new buffer. A partial read is
// not an error, the bytes that could not be read are left zeroed and n
// reports how many were read.
func readRegion(mem MemoryReader, base, size uint64) (buf []byte, n int, err error) {
	buf = make([]byte, size)
	if size == 0 {
		return buf, 0, nil
	}
	n, err = mem.ReadMemory(buf, base)
	if err != nil {
		return nil, n, err
	}
	switch {
	case n < 0:
		n = 0
	case n > len(buf):
		n = len(buf)
	}
	if n < len(buf) {
		clear(buf[n:])
	}
	return buf, n, nil
}
