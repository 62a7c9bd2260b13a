package proc

import (
	"encoding/binary"

	"github.com/go-delve/memscan/pkg/logflags"
)

// Scanner runs scan rounds for elements of type T over regions captured by
// Snapshot.
//
// A Scanner is not safe for concurrent use. It owns the region and
// candidate slices passed to it for the duration of a round: both are
// compacted in place and the results alias the inputs.
type Scanner[T Value] struct {
	mem   MemoryReader
	codec Codec[T]
	log   logflags.Logger

	// Stats of the last round.
	Stats ScanStats
}

// ScanStats counts what happened during a single scan round.
type ScanStats struct {
	RegionsRead    int
	RegionsSkipped int // dropped without being read
	RegionsKept    int
	PartialReads   int
	Evaluated      int
	Candidates     int
}

// NewScanner returns a Scanner reading from mem and decoding elements in
// the given byte order.
func NewScanner[T Value](mem MemoryReader, order binary.ByteOrder) *Scanner[T] {
	return &Scanner[T]{
		mem:   mem,
		codec: NewCodec[T](order),
		log:   logflags.ScannerLogger(),
	}
}

// Codec returns the codec used to decode elements.
func (s *Scanner[T]) Codec() Codec[T] {
	return s.codec
}

// ScanUnconstrained runs the first round of a search: every whole element
// of every region is evaluated with keep(previous, current), where
// previous comes from the region's captured bytes and current from a fresh
// read.
//
// It returns the surviving regions, each holding its freshly read bytes,
// and the ascending list of addresses for which keep returned true. A
// region with no passing element is dropped. Surviving regions keep their
// relative order, and share the backing array of regions.
//
// A partial read is tolerated, the bytes that could not be read are
// treated as zero. A hard read failure aborts the round and is returned;
// the contents of regions are unspecified afterwards.
func (s *Scanner[T]) ScanUnconstrained(regions []Region, keep Predicate[T]) ([]Region, []uint64, error) {
	s.Stats = ScanStats{}
	size := s.codec.Size()

	var addrs []uint64
	kept := regions[:0]
	for i := range regions {
		r := regions[i]
		fresh, err := s.reread(&r)
		if err != nil {
			return nil, nil, err
		}
		found := false
		count := s.codec.Count(len(r.Data))
		for j := 0; j < count; j++ {
			off := j * size
			prev, _ := s.codec.Decode(r.Data, off)
			cur, _ := s.codec.Decode(fresh, off)
			if keep(prev, cur) {
				found = true
				addrs = append(addrs, r.Base+uint64(off))
			}
		}
		s.Stats.Evaluated += count
		if found {
			kept = append(kept, Region{Base: r.Base, Size: r.Size, Data: fresh})
		}
	}
	clear(regions[len(kept):])

	s.Stats.RegionsKept = len(kept)
	s.Stats.Candidates = len(addrs)
	s.logStats("unconstrained")
	return kept, addrs, nil
}

// ScanConstrained runs a follow-up round: only the elements at addrs are
// evaluated with keep(previous, current).
//
// The caller must guarantee that regions is sorted by ascending base
// address with no overlaps, that addrs is sorted in ascending order, and
// that every address in addrs lies inside one of regions. The results of a
// previous round satisfy all three as long as neither slice is reordered
// between rounds. Violating these conditions produces wrong results, not an
// error.
//
// A region holding none of the remaining candidates is dropped without
// being read. Every other region is read exactly once and is kept, with its
// fresh bytes, only if at least one of its candidates survives. Both
// slices are compacted in place, preserving the relative order of their
// surviving elements.
//
// Partial reads and hard failures are handled as in ScanUnconstrained.
func (s *Scanner[T]) ScanConstrained(regions []Region, addrs []uint64, keep Predicate[T]) ([]Region, []uint64, error) {
	s.Stats = ScanStats{}
	size := uint64(s.codec.Size())

	keptRegions := regions[:0]
	keptAddrs := addrs[:0]
	a := 0
	for i := 0; i < len(regions) && a < len(addrs); i++ {
		r := regions[i]
		for a < len(addrs) && addrs[a] < r.Base {
			// not inside any region, can only happen if the caller broke
			// the ordering contract.
			s.log.Debugf("discarding candidate %#x outside of every region", addrs[a])
			a++
		}
		if a >= len(addrs) || !r.Contains(addrs[a]) {
			s.Stats.RegionsSkipped++
			continue
		}

		fresh, err := s.reread(&r)
		if err != nil {
			return nil, nil, err
		}
		found := false
		for ; a < len(addrs) && r.Contains(addrs[a]); a++ {
			off := int((addrs[a] - r.Base) / size * size)
			prev, ok := s.codec.Decode(r.Data, off)
			if !ok {
				// trailing bytes that do not form a whole element
				continue
			}
			cur, _ := s.codec.Decode(fresh, off)
			s.Stats.Evaluated++
			if keep(prev, cur) {
				found = true
				keptAddrs = append(keptAddrs, addrs[a])
			}
		}
		if found {
			keptRegions = append(keptRegions, Region{Base: r.Base, Size: r.Size, Data: fresh})
		}
	}
	s.Stats.RegionsSkipped += len(regions) - s.Stats.RegionsRead - s.Stats.RegionsSkipped
	clear(regions[len(keptRegions):])

	s.Stats.RegionsKept = len(keptRegions)
	s.Stats.Candidates = len(keptAddrs)
	s.logStats("constrained")
	return keptRegions, keptAddrs, nil
}

// reread reads the current contents of r into a new buffer of the same
// size.
func (s *Scanner[T]) reread(r *Region) ([]byte, error) {
	fresh, n, err := readRegion(s.mem, r.Base, r.Size)
	if err != nil {
		return nil, err
	}
	s.Stats.RegionsRead++
	if uint64(n) < r.Size {
		s.Stats.PartialReads++
		s.log.Debugf("partial read of region %#x: %d of %d bytes", r.Base, n, r.Size)
	}
	return fresh, nil
}

func (s *Scanner[T]) logStats(kind string) {
	if !logflags.Scanner() {
		return
	}
	st := s.Stats
	s.log.WithFields(logflags.Fields{
		"round":   kind,
		"read":    st.RegionsRead,
		"skipped": st.RegionsSkipped,
		"kept":    st.RegionsKept,
		"partial": st.PartialReads,
	}).Debugf("evaluated %d elements, %d candidates left", st.Evaluated, st.Candidates)
}
