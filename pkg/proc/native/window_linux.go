package native

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-delve/memscan/pkg/proc"
)

// enumWindows lists every process but this one. Linux has no window
// system API to speak of, the title of a process is its command line, or
// its name in brackets for processes without one, the way ps shows them.
func enumWindows() ([]Window, error) {
	return listProcesses("/proc", os.Getpid())
}

func listProcesses(procfs string, self int) ([]Window, error) {
	entries, err := os.ReadDir(procfs)
	if err != nil {
		return nil, &proc.PlatformError{Op: "Could not enumerate windows", Err: err}
	}
	var r []Window
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || !e.IsDir() || pid == self {
			continue
		}
		title, ok := processTitle(filepath.Join(procfs, e.Name()))
		if !ok {
			// exited while we were looking
			continue
		}
		r = append(r, Window{Title: title, Pid: pid})
	}
	return r, nil
}

func processTitle(dir string) (string, bool) {
	cmdline, err := os.ReadFile(filepath.Join(dir, "cmdline"))
	if err != nil {
		return "", false
	}
	cmdline = bytes.TrimRight(cmdline, "\x00")
	if len(cmdline) > 0 {
		return string(bytes.ReplaceAll(cmdline, []byte{0}, []byte{' '})), true
	}
	comm, err := os.ReadFile(filepath.Join(dir, "comm"))
	if err != nil {
		return "", false
	}
	return "[" + string(bytes.TrimSpace(comm)) + "]", true
}
