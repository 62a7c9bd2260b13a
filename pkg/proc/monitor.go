package proc

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/go-delve/memscan/pkg/logflags"
)

// DefaultMonitorInterval is the time a Monitor waits between two reads.
const DefaultMonitorInterval = 100 * time.Millisecond

// Sample is one observation made by a Monitor.
type Sample[T Value] struct {
	Value T
	// Changed is true for the first sample and whenever Value differs from
	// the last value that was reported as changed.
	Changed bool
}

// Monitor repeatedly reads the element of type T stored at a single
// address.
type Monitor[T Value] struct {
	mem      MemoryReader
	addr     uint64
	codec    Codec[T]
	interval time.Duration
	sleep    func(time.Duration)

	started bool
	last    T
	buf     []byte
}

// NewMonitor returns a Monitor for the element at addr. An interval of
// zero or less selects DefaultMonitorInterval.
func NewMonitor[T Value](mem MemoryReader, addr uint64, order binary.ByteOrder, interval time.Duration) *Monitor[T] {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	codec := NewCodec[T](order)
	return &Monitor[T]{
		mem:      mem,
		addr:     addr,
		codec:    codec,
		interval: interval,
		sleep:    time.Sleep,
		buf:      make([]byte, codec.Size()),
	}
}

// Address returns the monitored address.
func (m *Monitor[T]) Address() uint64 {
	return m.addr
}

// Next returns the next observation. The first call reads immediately,
// every following call sleeps for the monitor interval first. The sequence
// is infinite, it only ends with an error: a hard read failure, or a
// *ConsistencyError if fewer than sizeof(T) bytes could be read.
func (m *Monitor[T]) Next() (Sample[T], error) {
	if m.started {
		m.sleep(m.interval)
	}
	return m.sample()
}

func (m *Monitor[T]) sample() (Sample[T], error) {
	v, err := m.read()
	if err != nil {
		return Sample[T]{}, err
	}
	changed := !m.started || v != m.last
	m.started = true
	if changed {
		m.last = v
	}
	return Sample[T]{Value: v, Changed: changed}, nil
}

func (m *Monitor[T]) read() (T, error) {
	var zero T
	n, err := m.mem.ReadMemory(m.buf, m.addr)
	if err != nil {
		return zero, err
	}
	if n != len(m.buf) {
		return zero, &ConsistencyError{What: "memory object size", Addr: m.addr, Want: uint64(len(m.buf)), Got: uint64(n)}
	}
	v, _ := m.codec.Decode(m.buf, 0)
	return v, nil
}

// Watch calls report for the first value and for every change, until ctx
// is done or a read fails. It returns nil when ctx is done, no read is
// attempted once that happened.
func (m *Monitor[T]) Watch(ctx context.Context, report func(T) error) error {
	logger := logflags.MonitorLogger()
	for {
		if m.started {
			t := time.NewTimer(m.interval)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		s, err := m.sample()
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		if !s.Changed {
			continue
		}
		logger.Debugf("%#x = %v", m.addr, s.Value)
		if err := report(s.Value); err != nil {
			return err
		}
	}
}
