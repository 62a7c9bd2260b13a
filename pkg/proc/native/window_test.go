package native

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-delve/memscan/pkg/proc"
)

func TestMatchWindows(t *testing.T) {
	windows := []Window{
		{Title: "Untitled - Notepad", Pid: 10},
		{Title: "Calculator", Pid: 20},
		{Title: "notes.txt - Notepad", Pid: 30},
		{Title: "", Pid: 40},
	}

	tests := []struct {
		query string
		want  []Window
	}{
		{"Calculator", []Window{{Title: "Calculator", Pid: 20, Exact: true}}},
		{"Notepad", []Window{{Title: "Untitled - Notepad", Pid: 10}, {Title: "notes.txt - Notepad", Pid: 30}}},
		{"calculator", nil},
		{"Calc", []Window{{Title: "Calculator", Pid: 20}}},
	}
	for _, tc := range tests {
		s := matchWindows(tc.query, windows)
		if s.Checked != len(windows) {
			t.Errorf("%q: expected %d windows checked, got %d", tc.query, len(windows), s.Checked)
		}
		if diff := cmp.Diff(tc.want, s.Matches); diff != "" {
			t.Errorf("%q: matches mismatch (-want +got):\n%s", tc.query, diff)
		}
	}
}

func TestSearchWindow(t *testing.T) {
	windows := []Window{{Title: "a b", Pid: 1}, {Title: "a c", Pid: 2}}

	w, err := matchWindows("b", windows).Window()
	if err != nil || w.Pid != 1 {
		t.Fatalf("got %+v, %v", w, err)
	}

	var aerr *proc.AmbiguityError
	if _, err := matchWindows("a", windows).Window(); !errors.As(err, &aerr) || aerr.Matches != 2 {
		t.Fatalf("expected ambiguity with 2 matches, got %v", err)
	}
	if _, err := matchWindows("z", windows).Window(); !errors.As(err, &aerr) || aerr.Matches != 0 {
		t.Fatalf("expected ambiguity with 0 matches, got %v", err)
	}
	if proc.IsFatal(err) {
		t.Fatal("ambiguity must be recoverable")
	}
}

func TestSearchWindowsEmptyTitle(t *testing.T) {
	_, err := SearchWindows("")
	var cerr *proc.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *proc.ConfigurationError, got %v", err)
	}
}

func TestAttachInvalidPid(t *testing.T) {
	if _, err := Attach(0); proc.IsFatal(err) || err == nil {
		t.Fatalf("expected a recoverable error, got %v", err)
	}
}
