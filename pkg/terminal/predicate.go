package terminal

import (
	"fmt"

	"github.com/cosiner/argv"

	"github.com/go-delve/memscan/pkg/proc"
)

// searchSpec describes the predicate of a scan round independently of the
// element type of the session.
type searchSpec struct {
	op      string
	operand string     // comparison operators only
	expr    *exprCheck // expr only
}

func (spec searchSpec) String() string {
	switch spec.op {
	case "=":
		return spec.operand
	case "!=", "<", ">":
		return spec.op + " " + spec.operand
	case "expr":
		return spec.expr.src
	}
	return spec.op
}

// parseSearch parses the arguments of the search command op.
func parseSearch(op, args string) (searchSpec, error) {
	spec := searchSpec{op: op}
	switch op {
	case "=", "!=", "<", ">":
		operand, err := singleArg(op, args)
		if err != nil {
			return searchSpec{}, err
		}
		spec.operand = operand
	case "changed", "unchanged", "increased", "decreased":
		if args != "" {
			return searchSpec{}, &proc.ConfigurationError{Msg: fmt.Sprintf("%s does not take arguments", op)}
		}
	case "expr":
		if args == "" {
			return searchSpec{}, &proc.ConfigurationError{Msg: "expr requires an expression"}
		}
		expr, err := compileExpr(args)
		if err != nil {
			return searchSpec{}, err
		}
		spec.expr = expr
	default:
		return searchSpec{}, noCmdError
	}
	return spec, nil
}

func singleArg(op, args string) (string, error) {
	v, err := argv.Argv(args,
		func(s string) (string, error) {
			return "", fmt.Errorf("Backtick not supported in '%s'", s)
		},
		nil)
	if err != nil {
		return "", &proc.ConfigurationError{Msg: err.Error()}
	}
	if len(v) != 1 || len(v[0]) != 1 {
		return "", &proc.ConfigurationError{Msg: fmt.Sprintf("%s requires exactly one value", op)}
	}
	return v[0][0], nil
}

// buildPredicate converts spec into a predicate over T.
func buildPredicate[T proc.Value](spec searchSpec) (proc.Predicate[T], error) {
	switch spec.op {
	case "=", "!=", "<", ">":
		v, err := proc.ParseValue[T](spec.operand)
		if err != nil {
			return nil, err
		}
		switch spec.op {
		case "=":
			return proc.Equal(v), nil
		case "!=":
			return proc.NotEqual(v), nil
		case "<":
			return proc.Less(v), nil
		default:
			return proc.Greater(v), nil
		}
	case "changed":
		return proc.Changed[T](), nil
	case "unchanged":
		return proc.Unchanged[T](), nil
	case "increased":
		return proc.Increased[T](), nil
	case "decreased":
		return proc.Decreased[T](), nil
	case "expr":
		return exprPredicate[T](spec.expr), nil
	}
	return nil, noCmdError
}
