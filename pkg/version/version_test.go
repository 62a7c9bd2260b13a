package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFixBuild(t *testing.T) {
	info := &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs", Value: "git"}, {Key: "vcs.revision", Value: "abc123"}}}
	read := func() (*debug.BuildInfo, bool) { return info, true }

	v := Version{Build: "$Id$"}
	fixBuild(&v, read)
	if v.Build != "abc123" {
		t.Fatalf("build %q", v.Build)
	}

	v = Version{Build: "release"}
	fixBuild(&v, read)
	if v.Build != "release" {
		t.Fatalf("explicit build overwritten: %q", v.Build)
	}

	v = Version{Build: "$Id$"}
	fixBuild(&v, func() (*debug.BuildInfo, bool) { return nil, false })
	if v.Build != "$Id$" {
		t.Fatalf("build %q", v.Build)
	}
}

func TestString(t *testing.T) {
	v := Version{Major: "1", Minor: "2", Patch: "3", Metadata: "rc1", Build: "deadbeef"}
	if got, want := v.String(), "Version: 1.2.3-rc1\nBuild: deadbeef"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatBuildInfo(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/go-delve/memscan", Version: "(devel)"},
		Deps: []*debug.Module{
			{Path: "github.com/spf13/cobra", Version: "v1.1.3", Sum: "h1:x", Replace: &debug.Module{Path: "../cobra"}},
		},
	}
	out := formatBuildInfo(info)
	for _, want := range []string{" mod\tgithub.com/go-delve/memscan\t(devel)", " dep\tgithub.com/spf13/cobra\tv1.1.3\th1:x\t=> ../cobra"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
