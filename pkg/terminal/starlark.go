package terminal

import (
	"fmt"
	"reflect"
	"strings"

	"go.starlark.net/starlark"

	"github.com/go-delve/memscan/pkg/proc"
)

// exprCheck is a Starlark expression over prev and cur, compiled once into
// a function and called for every evaluated element.
type exprCheck struct {
	src    string
	thread *starlark.Thread
	fn     starlark.Callable
	args   starlark.Tuple

	// failures counts the calls that raised an error or did not return a
	// bool, err is the first such error.
	failures int
	err      error
}

// compileExpr compiles src. Undefined names are reported here, other
// errors only show up when the expression runs.
func compileExpr(src string) (*exprCheck, error) {
	if strings.ContainsAny(src, "\r\n") {
		return nil, &proc.ConfigurationError{Msg: "invalid expression: must be a single line"}
	}
	thread := &starlark.Thread{Name: "expr"}
	globals, err := starlark.ExecFile(thread, "<expr>", "def keep(prev, cur):\n    return "+src+"\n", nil)
	if err != nil {
		return nil, &proc.ConfigurationError{Msg: fmt.Sprintf("invalid expression: %v", err)}
	}
	return &exprCheck{src: src, thread: thread, fn: globals["keep"].(starlark.Callable), args: make(starlark.Tuple, 2)}, nil
}

func (e *exprCheck) call(prev, cur starlark.Value) (bool, error) {
	e.args[0], e.args[1] = prev, cur
	v, err := starlark.Call(e.thread, e.fn, e.args, nil)
	if err != nil {
		return false, e.fail(err)
	}
	b, ok := v.(starlark.Bool)
	if !ok {
		return false, e.fail(fmt.Errorf("expression returned %s, not bool", v.Type()))
	}
	return bool(b), nil
}

func (e *exprCheck) fail(err error) error {
	if e.err == nil {
		e.err = err
	}
	e.failures++
	return err
}

// reset clears the failures of the last round.
func (e *exprCheck) reset() {
	e.failures, e.err = 0, nil
}

// exprPredicate returns a predicate calling e. Elements for which the
// expression fails are dropped.
func exprPredicate[T proc.Value](e *exprCheck) proc.Predicate[T] {
	conv := starlarkConverter[T]()
	return func(prev, cur T) bool {
		ok, _ := e.call(conv(prev), conv(cur))
		return ok
	}
}

func starlarkConverter[T proc.Value]() func(T) starlark.Value {
	var zero T
	switch reflect.TypeOf(zero).Kind() {
	case reflect.Float32, reflect.Float64:
		return func(v T) starlark.Value { return starlark.Float(float64(v)) }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(v T) starlark.Value { return starlark.MakeUint64(uint64(v)) }
	}
	return func(v T) starlark.Value { return starlark.MakeInt64(int64(v)) }
}
