package native

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-delve/memscan/pkg/proc"
)

// mapping is one entry of /proc/<pid>/smaps.
type mapping struct {
	start, end uint64
	protect    proc.Protection
}

// readMappings reads the memory map of pid. Older versions of Linux don't
// have smaps but have maps, which is in a similar format.
func readMappings(pid int) ([]mapping, error) {
	buf, err := os.ReadFile(fmt.Sprintf("/proc/%d/smaps", pid))
	if err != nil {
		buf, err = os.ReadFile(fmt.Sprintf("/proc/%d/maps", pid))
		if err != nil {
			return nil, &proc.PlatformError{Op: "Cannot read memory map", Err: err}
		}
	}
	return parseMappings(string(buf))
}

func parseMappings(smaps string) ([]mapping, error) {
	const VmFlagsPrefix = "VmFlags:"

	lines := strings.Split(smaps, "\n")
	r := make([]mapping, 0)

	for i := 0; i < len(lines); {
		line := lines[i]
		if line == "" {
			i++
			continue
		}
		start, end, perm, err := parseSmapsHeaderLine(i+1, line)
		if err != nil {
			return nil, err
		}
		m := mapping{start: start, end: end, protect: parsePerm(perm)}
		for i++; i < len(lines); i++ {
			line := lines[i]
			if line == "" || line[0] < 'A' || line[0] > 'Z' {
				break
			}
			if !strings.HasPrefix(line, VmFlagsPrefix) {
				continue
			}
			for _, flag := range strings.Fields(line[len(VmFlagsPrefix):]) {
				switch flag {
				case "pf", "dd", "io":
					// pure PFN ranges, "don't dump" and memory mapped
					// I/O can not be read through the usual interfaces.
					m.protect = proc.ProtOther
				}
			}
		}
		if m.end <= m.start {
			return nil, fmt.Errorf("malformed /proc/pid/maps: empty mapping at %#x", m.start)
		}
		if len(r) > 0 && m.start < r[len(r)-1].end {
			return nil, fmt.Errorf("malformed /proc/pid/maps: mapping at %#x overlaps the previous one", m.start)
		}
		r = append(r, m)
	}
	return r, nil
}

func parseSmapsHeaderLine(lineno int, in string) (start, end uint64, perm string, err error) {
	fields := strings.Fields(in)
	if len(fields) < 5 {
		err = fmt.Errorf("malformed /proc/pid/maps on line %d: %q (wrong number of fields)", lineno, in)
		return
	}

	v := strings.Split(fields[0], "-")
	if len(v) != 2 {
		err = fmt.Errorf("malformed /proc/pid/maps on line %d: %q (bad first field)", lineno, in)
		return
	}
	start, err = strconv.ParseUint(v[0], 16, 64)
	if err != nil {
		err = fmt.Errorf("malformed /proc/pid/maps on line %d: %q (%v)", lineno, in, err)
		return
	}
	end, err = strconv.ParseUint(v[1], 16, 64)
	if err != nil {
		err = fmt.Errorf("malformed /proc/pid/maps on line %d: %q (%v)", lineno, in, err)
		return
	}

	perm = fields[1]
	if len(perm) < 4 {
		err = fmt.Errorf("malformed /proc/pid/maps on line %d: %q (permissions column too short)", lineno, in)
		return
	}
	return
}

// parsePerm converts the permissions column of a mapping. The fourth
// character (private or shared) does not matter for reading.
func parsePerm(perm string) proc.Protection {
	switch perm[:3] {
	case "---":
		return proc.ProtNoAccess
	case "r--":
		return proc.ProtReadOnly
	case "rw-":
		return proc.ProtReadWrite
	case "--x":
		return proc.ProtExecute
	case "r-x":
		return proc.ProtExecuteRead
	case "rwx":
		return proc.ProtExecuteReadWrite
	}
	return proc.ProtOther
}

// queryMappings answers a region query over a sorted memory map. Gaps
// between mappings are reported as free regions.
func queryMappings(maps []mapping, addr uint64) (proc.RegionInfo, error) {
	for _, m := range maps {
		if addr >= m.end {
			continue
		}
		if addr < m.start {
			return proc.RegionInfo{Base: addr, Size: m.start - addr, State: proc.StateFree, Protect: proc.ProtNoAccess}, nil
		}
		return proc.RegionInfo{Base: m.start, Size: m.end - m.start, State: proc.StateCommit, Protect: m.protect}, nil
	}
	return proc.RegionInfo{}, proc.ErrEndOfAddressSpace
}
