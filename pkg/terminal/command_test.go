package terminal

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-delve/memscan/pkg/proc"
)

// recorder is a searcher remembering the commands it received.
type recorder struct {
	specs []searchSpec
	lists []string
}

func (r *recorder) search(spec searchSpec) error {
	r.specs = append(r.specs, spec)
	return nil
}

func (r *recorder) list(args string) error {
	r.lists = append(r.lists, args)
	return nil
}

func TestCommandDefault(t *testing.T) {
	var (
		cmds = Commands{}
		cmd  = cmds.Find("non-existent-command")
	)

	err := cmd(nil, callContext{}, "")
	if err == nil {
		t.Fatal("cmd() did not default")
	}

	if err.Error() != "command not available" {
		t.Fatal("wrong command output")
	}
	if proc.IsFatal(err) {
		t.Fatal("unknown command is fatal")
	}
}

func TestCommandEmpty(t *testing.T) {
	cmds := DefaultCommands()
	if err := cmds.Call("   ", nil, callContext{}); err != nil {
		t.Fatalf("empty command: %v", err)
	}
}

func TestCommandDispatch(t *testing.T) {
	tests := []struct {
		cmdstr string
		op     string
		arg    string
	}{
		{"= 10", "=", "10"},
		{"10", "=", "10"},
		{"-3", "=", "-3"},
		{"0x1f", "=", "0x1f"},
		{"2.5", "=", "2.5"},
		{"!= 0", "!=", "0"},
		{"<   7", "<", "7"},
		{"> '8'", ">", "8"},
		{"c", "changed", ""},
		{"unchanged", "unchanged", ""},
		{"inc", "increased", ""},
		{"dec", "decreased", ""},
		{"e cur == prev", "expr", "cur == prev"},
	}
	cmds := DefaultCommands()
	for _, tc := range tests {
		r := &recorder{}
		if err := cmds.Call(tc.cmdstr, nil, callContext{s: r}); err != nil {
			t.Errorf("%q: %v", tc.cmdstr, err)
			continue
		}
		if len(r.specs) != 1 {
			t.Errorf("%q: %d searches", tc.cmdstr, len(r.specs))
			continue
		}
		spec := r.specs[0]
		arg := spec.operand
		if spec.expr != nil {
			arg = spec.expr.src
		}
		if spec.op != tc.op || arg != tc.arg {
			t.Errorf("%q: got %s %q, expected %s %q", tc.cmdstr, spec.op, arg, tc.op, tc.arg)
		}
	}
}

func TestCommandDispatchErrors(t *testing.T) {
	tests := []string{
		"10 20",
		"=",
		"= 1 2",
		"= `date`",
		"changed 1",
		"expr",
		"expr cur ==",
		"expr undefined_name > 0",
		"nope",
	}
	cmds := DefaultCommands()
	for _, cmdstr := range tests {
		r := &recorder{}
		err := cmds.Call(cmdstr, nil, callContext{s: r})
		var cerr *proc.ConfigurationError
		if !errors.As(err, &cerr) {
			t.Errorf("%q: expected configuration error, got %v", cmdstr, err)
		}
		if len(r.specs) != 0 {
			t.Errorf("%q: search ran", cmdstr)
		}
	}
}

func TestCommandList(t *testing.T) {
	cmds := DefaultCommands()
	r := &recorder{}
	for _, cmdstr := range []string{"list", "ls 5"} {
		if err := cmds.Call(cmdstr, nil, callContext{s: r}); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff([]string{"", "5"}, r.lists); diff != "" {
		t.Fatalf("list arguments (-want +got):\n%s", diff)
	}
}

func TestCommandResetExit(t *testing.T) {
	cmds := DefaultCommands()
	var rerr resetRequestError
	if err := cmds.Call("r", nil, callContext{}); !errors.As(err, &rerr) {
		t.Fatalf("reset: %v", err)
	}
	for _, cmdstr := range []string{"exit", "quit", "q"} {
		var ere ExitRequestError
		if err := cmds.Call(cmdstr, nil, callContext{}); !errors.As(err, &ere) {
			t.Fatalf("%s: %v", cmdstr, err)
		}
	}
}

func TestMerge(t *testing.T) {
	cmds := DefaultCommands()
	cmds.Merge(map[string][]string{
		"unchanged": {"same"},
		"list":      {"show"},
	})
	r := &recorder{}
	if err := cmds.Call("same", nil, callContext{s: r}); err != nil {
		t.Fatal(err)
	}
	if err := cmds.Call("show 3", nil, callContext{s: r}); err != nil {
		t.Fatal(err)
	}
	if len(r.specs) != 1 || r.specs[0].op != "unchanged" || len(r.lists) != 1 || r.lists[0] != "3" {
		t.Fatalf("wrong dispatch %v %v", r.specs, r.lists)
	}

	// merging again replaces the configured aliases
	cmds.Merge(map[string][]string{"unchanged": {"eq"}})
	if err := cmds.Call("same", nil, callContext{s: r}); err == nil {
		t.Fatal("old alias still available")
	}
	if err := cmds.Call("eq", nil, callContext{s: r}); err != nil {
		t.Fatal(err)
	}
	if got := cmds.complete("sh"); len(got) != 0 {
		t.Fatalf("stale completion %q", got)
	}
}

func TestComplete(t *testing.T) {
	cmds := DefaultCommands()
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"un", []string{"unchanged"}},
		{"de", []string{"dec", "decreased"}},
		{"ex", []string{"exit", "expr"}},
		{"list 3", nil},
		{"zzz", nil},
	}
	for _, tc := range tests {
		got := cmds.complete(tc.line)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("complete(%q) (-want +got):\n%s", tc.line, diff)
		}
	}
}

func TestHelp(t *testing.T) {
	out := new(bytes.Buffer)
	term := &Term{stdout: out, dumb: true}
	cmds := DefaultCommands()

	if err := cmds.Call("help", term, callContext{}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Narrowing the candidate addresses:",
		"changed (alias: c)",
		"expr (alias: e)",
		"Inspecting candidates:",
		"list (alias: ls)",
		"Other commands:",
		"exit (alias: quit | q)",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help does not contain %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := cmds.Call("help expr", term, callContext{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "expr cur % 8 == 0") {
		t.Fatalf("wrong help for expr:\n%s", out.String())
	}

	if err := cmds.Call("help nope", term, callContext{}); err == nil {
		t.Fatal("help for unknown command succeeded")
	}
}

func TestBuildPredicate(t *testing.T) {
	tests := []struct {
		cmd       string
		args      string
		prev, cur int16
		want      bool
	}{
		{"=", "5", 0, 5, true},
		{"=", "0x5", 0, 5, true},
		{"=", "5", 5, 4, false},
		{"!=", "5", 5, 4, true},
		{"<", "-1", 0, -2, true},
		{">", "-1", 0, -2, false},
		{"changed", "", 1, 2, true},
		{"unchanged", "", 1, 2, false},
		{"increased", "", 1, 2, true},
		{"decreased", "", 1, 2, false},
		{"expr", "cur - prev == 3", 4, 7, true},
		{"expr", "cur * 1000 > 30000", 0, 31, true},
		{"expr", "cur // prev == 2", 0, 4, false},
	}
	for _, tc := range tests {
		spec, err := parseSearch(tc.cmd, tc.args)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.cmd, tc.args, err)
		}
		keep, err := buildPredicate[int16](spec)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.cmd, tc.args, err)
		}
		if got := keep(tc.prev, tc.cur); got != tc.want {
			t.Errorf("%s %s (%d, %d) = %v, expected %v", tc.cmd, tc.args, tc.prev, tc.cur, got, tc.want)
		}
	}
}

func TestBuildPredicateOutOfRange(t *testing.T) {
	for _, arg := range []string{"256", "-1", "1.5", "abc"} {
		spec, err := parseSearch("=", arg)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := buildPredicate[uint8](spec); err == nil {
			t.Errorf("%q accepted as uint8", arg)
		}
	}
}

func TestExprFailures(t *testing.T) {
	spec, err := parseSearch("expr", "10 // cur > 1")
	if err != nil {
		t.Fatal(err)
	}
	keep, err := buildPredicate[int32](spec)
	if err != nil {
		t.Fatal(err)
	}
	if !keep(0, 2) {
		t.Fatal("10 // 2 > 1 is false")
	}
	if keep(0, 0) || keep(1, 0) {
		t.Fatal("division by zero kept the value")
	}
	if spec.expr.failures != 2 || spec.expr.err == nil {
		t.Fatalf("failures: %d %v", spec.expr.failures, spec.expr.err)
	}
	spec.expr.reset()
	if spec.expr.failures != 0 || spec.expr.err != nil {
		t.Fatal("reset did not clear failures")
	}

	spec, err = parseSearch("expr", "cur + 1")
	if err != nil {
		t.Fatal(err)
	}
	keep, err = buildPredicate[int32](spec)
	if err != nil {
		t.Fatal(err)
	}
	if keep(0, 1) || spec.expr.failures != 1 {
		t.Fatal("non boolean result kept the value")
	}
}

func TestExprTypes(t *testing.T) {
	spec, err := parseSearch("expr", "cur > prev")
	if err != nil {
		t.Fatal(err)
	}
	if keep, _ := buildPredicate[uint64](spec); !keep(1, math.MaxUint64) {
		t.Error("uint64 overflowed")
	}
	if keep, _ := buildPredicate[int64](spec); !keep(math.MinInt64, 0) {
		t.Error("int64 overflowed")
	}
	if keep, _ := buildPredicate[float32](spec); !keep(0.25, 0.5) {
		t.Error("float32 comparison")
	}
	if spec.expr.failures != 0 {
		t.Fatalf("unexpected failures: %v", spec.expr.err)
	}
}

func TestCompileExprMultiline(t *testing.T) {
	for _, src := range []string{"True\nx = 1", "cur\r"} {
		if _, err := compileExpr(src); err == nil {
			t.Errorf("%q compiled", src)
		}
	}
}

func TestSearchSpecString(t *testing.T) {
	tests := []struct {
		op, args, want string
	}{
		{"=", "42", "42"},
		{"<", "42", "< 42"},
		{"changed", "", "changed"},
		{"expr", "cur > 1", "cur > 1"},
	}
	for _, tc := range tests {
		spec, err := parseSearch(tc.op, tc.args)
		if err != nil {
			t.Fatal(err)
		}
		if got := spec.String(); got != tc.want {
			t.Errorf("%s %s: %q", tc.op, tc.args, got)
		}
	}
}
