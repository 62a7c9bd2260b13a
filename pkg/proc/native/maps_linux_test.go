package native

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-delve/memscan/pkg/proc"
)

const testSmaps = `00400000-00452000 r-xp 00000000 08:02 173521      /usr/bin/dbus-daemon
00651000-00652000 r--p 00051000 08:02 173521      /usr/bin/dbus-daemon
00652000-00655000 rw-p 00052000 08:02 173521      /usr/bin/dbus-daemon
Size:                 12 kB
VmFlags: rd wr mr mw me ac sd
00e03000-00e24000 rw-p 00000000 00:00 0           [heap]
7f2d0e000000-7f2d0e001000 rwxp 00000000 00:00 0
VmFlags: rd wr ex mr mw me
7f2d0f000000-7f2d0f001000 rw-s 00000000 00:05 1234        /dev/dri/card0
VmFlags: rd wr sh mr mw me io pf dd
7ffd1b1a0000-7ffd1b1c1000 rw-p 00000000 00:00 0           [stack]
7ffd1b1e8000-7ffd1b1ea000 --xp 00000000 00:00 0           [vdso]
`

func TestParseMappings(t *testing.T) {
	maps, err := parseMappings(testSmaps)
	if err != nil {
		t.Fatal(err)
	}
	want := []mapping{
		{0x400000, 0x452000, proc.ProtExecuteRead},
		{0x651000, 0x652000, proc.ProtReadOnly},
		{0x652000, 0x655000, proc.ProtReadWrite},
		{0xe03000, 0xe24000, proc.ProtReadWrite},
		{0x7f2d0e000000, 0x7f2d0e001000, proc.ProtExecuteReadWrite},
		{0x7f2d0f000000, 0x7f2d0f001000, proc.ProtOther},
		{0x7ffd1b1a0000, 0x7ffd1b1c1000, proc.ProtReadWrite},
		{0x7ffd1b1e8000, 0x7ffd1b1ea000, proc.ProtExecute},
	}
	if diff := cmp.Diff(want, maps, cmp.AllowUnexported(mapping{})); diff != "" {
		t.Fatalf("mappings mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMappingsMalformed(t *testing.T) {
	for _, in := range []string{
		"00400000 r-xp 00000000 08:02 173521",
		"zz-00452000 r-xp 00000000 08:02 173521",
		"00400000-00452000 r- 00000000 08:02 173521",
		"00400000-00400000 r--p 00000000 08:02 173521",
		"00400000-00452000 r--p 00000000 08:02 1\n00401000-00453000 r--p 00000000 08:02 1",
	} {
		if _, err := parseMappings(in); err == nil {
			t.Errorf("expected an error for %q", in)
		}
	}
}

func TestQueryMappings(t *testing.T) {
	maps, err := parseMappings(testSmaps)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		addr uint64
		want proc.RegionInfo
	}{
		{0, proc.RegionInfo{Base: 0, Size: 0x400000, State: proc.StateFree, Protect: proc.ProtNoAccess}},
		{0x400000, proc.RegionInfo{Base: 0x400000, Size: 0x52000, State: proc.StateCommit, Protect: proc.ProtExecuteRead}},
		{0x401234, proc.RegionInfo{Base: 0x400000, Size: 0x52000, State: proc.StateCommit, Protect: proc.ProtExecuteRead}},
		{0x452000, proc.RegionInfo{Base: 0x452000, Size: 0x1ff000, State: proc.StateFree, Protect: proc.ProtNoAccess}},
		{0x652000, proc.RegionInfo{Base: 0x652000, Size: 0x3000, State: proc.StateCommit, Protect: proc.ProtReadWrite}},
	}
	for _, tc := range tests {
		got, err := queryMappings(maps, tc.addr)
		if err != nil {
			t.Fatalf("%#x: %v", tc.addr, err)
		}
		if got != tc.want {
			t.Errorf("%#x: expected %+v, got %+v", tc.addr, tc.want, got)
		}
	}

	if _, err := queryMappings(maps, 0x7ffd1b1ea000); !errors.Is(err, proc.ErrEndOfAddressSpace) {
		t.Fatalf("expected end of address space, got %v", err)
	}
}

// The emulated region query walks a real memory map the same way it walks
// the address space of a Windows process.
func TestQueryMappingsWalk(t *testing.T) {
	maps, err := parseMappings(testSmaps)
	if err != nil {
		t.Fatal(err)
	}
	var rw []uint64
	addr := uint64(0)
	for {
		info, err := queryMappings(maps, addr)
		if errors.Is(err, proc.ErrEndOfAddressSpace) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if info.State == proc.StateCommit && info.Protect == proc.ProtReadWrite {
			rw = append(rw, info.Base)
		}
		addr = info.Base + info.Size
	}
	if diff := cmp.Diff([]uint64{0x652000, 0xe03000, 0x7ffd1b1a0000}, rw); diff != "" {
		t.Fatalf("read-write regions mismatch (-want +got):\n%s", diff)
	}
}
