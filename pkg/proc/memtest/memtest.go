// Package memtest provides an in-memory target process for tests of the
// scanner and of the packages that drive it.
package memtest

import (
	"errors"
	"sort"

	"github.com/go-delve/memscan/pkg/proc"
)

// Mapping is a span of the fake address space.
type Mapping struct {
	Base    uint64
	Data    []byte
	State   proc.MemState
	Protect proc.Protection
}

// Process is a fake proc.Process backed by byte slices. Gaps between
// mappings are reported as free regions. It is not safe for concurrent
// use.
type Process struct {
	pid      int
	mappings []*Mapping
	closed   bool

	// Short maps the base of a region to the number of bytes a read
	// starting there returns. It is consulted on every read.
	Short map[uint64]int
	// Fail maps the base of a region to the error a read starting there
	// returns.
	Fail map[uint64]error
	// Reads counts reads by starting address.
	Reads map[uint64]int
	// OnRead, if set, is called before every read.
	OnRead func(addr uint64, size int)
}

// New returns a fake process with the given mappings. Mappings are sorted
// by base address and must not overlap.
func New(pid int, mappings ...*Mapping) *Process {
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].Base < mappings[j].Base })
	return &Process{
		pid:      pid,
		mappings: mappings,
		Short:    map[uint64]int{},
		Fail:     map[uint64]error{},
		Reads:    map[uint64]int{},
	}
}

// RW returns a committed read-write mapping of size bytes, all zero.
func RW(base uint64, size int) *Mapping {
	return &Mapping{Base: base, Data: make([]byte, size), State: proc.StateCommit, Protect: proc.ProtReadWrite}
}

// Pid implements proc.Process.
func (p *Process) Pid() int {
	return p.pid
}

// Closed returns true once Close has been called.
func (p *Process) Closed() bool {
	return p.closed
}

// Close implements proc.Process.
func (p *Process) Close() error {
	if p.closed {
		return errors.New("already closed")
	}
	p.closed = true
	return nil
}

// Mapping returns the mapping containing addr, or nil.
func (p *Process) Mapping(addr uint64) *Mapping {
	for _, m := range p.mappings {
		if addr >= m.Base && addr < m.Base+uint64(len(m.Data)) {
			return m
		}
	}
	return nil
}

// Poke writes data at addr. The destination must be inside one mapping.
func (p *Process) Poke(addr uint64, data []byte) {
	m := p.Mapping(addr)
	if m == nil {
		panic("memtest: poke outside of every mapping")
	}
	copy(m.Data[addr-m.Base:], data)
}

// QueryRegion implements proc.Process.
func (p *Process) QueryRegion(addr uint64) (proc.RegionInfo, error) {
	for _, m := range p.mappings {
		end := m.Base + uint64(len(m.Data))
		if addr >= end {
			continue
		}
		if addr < m.Base {
			return proc.RegionInfo{Base: addr, Size: m.Base - addr, State: proc.StateFree, Protect: proc.ProtNoAccess}, nil
		}
		return proc.RegionInfo{Base: m.Base, Size: uint64(len(m.Data)), State: m.State, Protect: m.Protect}, nil
	}
	return proc.RegionInfo{}, proc.ErrEndOfAddressSpace
}

// ReadMemory implements proc.MemoryReader.
func (p *Process) ReadMemory(buf []byte, addr uint64) (int, error) {
	if p.OnRead != nil {
		p.OnRead(addr, len(buf))
	}
	p.Reads[addr]++
	if err := p.Fail[addr]; err != nil {
		return 0, err
	}
	m := p.Mapping(addr)
	if m == nil {
		return 0, &proc.PlatformError{Op: "Cannot read process memory", Code: 299, Addr: addr, HasAddr: true}
	}
	n := copy(buf, m.Data[addr-m.Base:])
	if short, ok := p.Short[addr]; ok && short < n {
		n = short
	}
	return n, nil
}
