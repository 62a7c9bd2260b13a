package proc_test

import (
	"testing"

	"github.com/go-delve/memscan/pkg/proc"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name      string
		p         proc.Predicate[int32]
		prev, cur int32
		want      bool
	}{
		{"always", proc.Always[int32](), 1, 2, true},
		{"equal", proc.Equal[int32](42), 0, 42, true},
		{"equal ignores prev", proc.Equal[int32](42), 42, 41, false},
		{"not equal", proc.NotEqual[int32](42), 42, 41, true},
		{"less", proc.Less[int32](0), 5, -1, true},
		{"less strict", proc.Less[int32](0), 5, 0, false},
		{"greater", proc.Greater[int32](10), 0, 11, true},
		{"changed", proc.Changed[int32](), 1, 2, true},
		{"changed same", proc.Changed[int32](), 2, 2, false},
		{"unchanged", proc.Unchanged[int32](), 2, 2, true},
		{"increased", proc.Increased[int32](), -3, -2, true},
		{"increased same", proc.Increased[int32](), 3, 3, false},
		{"decreased", proc.Decreased[int32](), 3, 2, true},
		{"decreased grew", proc.Decreased[int32](), 3, 4, false},
	}
	for _, tc := range tests {
		if got := tc.p(tc.prev, tc.cur); got != tc.want {
			t.Errorf("%s(%d, %d): expected %v, got %v", tc.name, tc.prev, tc.cur, tc.want, got)
		}
	}
}
