package native

import (
	"fmt"
	"strings"

	"github.com/go-delve/memscan/pkg/logflags"
	"github.com/go-delve/memscan/pkg/proc"
)

// Process represents a process attached for reading.
// It implements proc.Process.
type Process struct {
	pid    int
	os     *osProcessDetails
	closed bool
}

var _ proc.Process = (*Process)(nil)

// Attach opens the process with the given pid for reading. The returned
// Process must be closed by the caller.
func Attach(pid int) (*Process, error) {
	if pid <= 0 {
		return nil, &proc.ConfigurationError{Msg: fmt.Sprintf("invalid pid %d", pid)}
	}
	osp, err := openProcess(pid)
	if err != nil {
		return nil, err
	}
	if logflags.Native() {
		logflags.NativeLogger().Debugf("attached to pid %d", pid)
	}
	return &Process{pid: pid, os: osp}, nil
}

// Pid returns the process ID.
func (p *Process) Pid() int {
	return p.pid
}

// Close releases the operating system resources held by p. Closing twice
// is a no-op.
func (p *Process) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.os.close()
}

// Window is a candidate target found by SearchWindows.
type Window struct {
	Title  string
	Pid    int
	Handle uintptr // HWND on Windows, unused elsewhere
	// Exact is true if Title is equal to the query, rather than just
	// containing it.
	Exact bool
}

// Search is the outcome of a window search.
type Search struct {
	Query   string
	Checked int // windows looked at
	Matches []Window
}

// Window returns the single match of s, or an *AmbiguityError if there
// are zero or several.
func (s *Search) Window() (Window, error) {
	if len(s.Matches) != 1 {
		return Window{}, &proc.AmbiguityError{Query: s.Query, Matches: len(s.Matches)}
	}
	return s.Matches[0], nil
}

// SearchWindows enumerates the top level windows of the desktop and
// returns the ones whose title contains title. Matching is case-sensitive.
// On platforms without a window system API the title of a process is its
// command line.
func SearchWindows(title string) (*Search, error) {
	if title == "" {
		return nil, &proc.ConfigurationError{Msg: "Empty search string!"}
	}
	windows, err := enumWindows()
	if err != nil {
		return nil, err
	}
	s := matchWindows(title, windows)
	if logflags.Native() {
		logflags.NativeLogger().Debugf("checked %d windows for %q, %d matches", s.Checked, title, len(s.Matches))
	}
	return s, nil
}

// FindWindow returns the only window whose title contains title.
func FindWindow(title string) (Window, error) {
	s, err := SearchWindows(title)
	if err != nil {
		return Window{}, err
	}
	return s.Window()
}

func matchWindows(query string, windows []Window) *Search {
	s := &Search{Query: query, Checked: len(windows)}
	for _, w := range windows {
		if !strings.Contains(w.Title, query) {
			continue
		}
		w.Exact = w.Title == query
		s.Matches = append(s.Matches, w)
	}
	return s
}
