package terminal

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cosiner/argv"

	"github.com/go-delve/memscan/pkg/config"
	"github.com/go-delve/memscan/pkg/proc"
)

func configureCmd(t *Term, ctx callContext, args string) error {
	switch args {
	case "-list":
		return configureList(t)
	case "-save":
		if err := config.SaveConfig(t.conf); err != nil {
			return &proc.ConfigurationError{Msg: fmt.Sprintf("could not save configuration: %v", err)}
		}
		return nil
	case "":
		return &proc.ConfigurationError{Msg: `wrong number of arguments to "config"`}
	default:
		return configureSet(t, args)
	}
}

type configureIterator struct {
	cfgValue reflect.Value
	cfgType  reflect.Type
	i        int
}

func iterateConfiguration(conf *config.Config) *configureIterator {
	cfgValue := reflect.ValueOf(conf).Elem()
	cfgType := cfgValue.Type()

	return &configureIterator{cfgValue, cfgType, -1}
}

func (it *configureIterator) Next() bool {
	it.i++
	return it.i < it.cfgValue.NumField()
}

func (it *configureIterator) Field() (name string, field reflect.Value) {
	name = it.cfgType.Field(it.i).Tag.Get("yaml")
	if comma := strings.Index(name, ","); comma >= 0 {
		name = name[:comma]
	}
	field = it.cfgValue.Field(it.i)
	return
}

func configureFindFieldByName(conf *config.Config, name string) reflect.Value {
	it := iterateConfiguration(conf)
	for it.Next() {
		fieldName, field := it.Field()
		if fieldName == name {
			return field
		}
	}
	return reflect.ValueOf(nil)
}

func configureList(t *Term) error {
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 1, ' ', 0)

	it := iterateConfiguration(t.conf)
	for it.Next() {
		fieldName, field := it.Field()
		if fieldName == "" || !field.CanInterface() {
			continue
		}

		if field.Kind() == reflect.Ptr {
			if !field.IsNil() {
				fmt.Fprintf(w, "%s\t%v\n", fieldName, field.Elem())
			} else {
				fmt.Fprintf(w, "%s\t<not defined>\n", fieldName)
			}
		} else {
			fmt.Fprintf(w, "%s\t%v\n", fieldName, field)
		}
	}
	return w.Flush()
}

var durationType = reflect.TypeOf(time.Duration(0))

func configureSet(t *Term, args string) error {
	cfgname, rest := splitCommand(args)

	if cfgname == "alias" {
		return configureSetAlias(t, rest)
	}

	field := configureFindFieldByName(t.conf, cfgname)
	if !field.CanAddr() {
		return &proc.ConfigurationError{Msg: fmt.Sprintf("%q is not a configuration parameter", cfgname)}
	}

	// value-type and byte-order only apply to the next session, they are
	// checked here so that a bad value is never saved.
	switch cfgname {
	case "value-type":
		if _, err := proc.ParseValueType(rest); err != nil {
			return err
		}
	case "byte-order":
		if _, err := proc.ParseByteOrder(rest); err != nil {
			return err
		}
	}

	simpleArg := func(typ reflect.Type) (reflect.Value, error) {
		switch {
		case typ == durationType:
			d, err := time.ParseDuration(rest)
			if err != nil || d <= 0 {
				return reflect.ValueOf(nil), &proc.ConfigurationError{Msg: fmt.Sprintf("argument to %q must be a positive duration", cfgname)}
			}
			return reflect.ValueOf(&d), nil
		case typ.Kind() == reflect.Int:
			n, err := strconv.Atoi(rest)
			if err != nil {
				return reflect.ValueOf(nil), &proc.ConfigurationError{Msg: fmt.Sprintf("argument to %q must be a number", cfgname)}
			}
			if n < 0 {
				return reflect.ValueOf(nil), &proc.ConfigurationError{Msg: fmt.Sprintf("argument to %q must not be negative", cfgname)}
			}
			return reflect.ValueOf(&n), nil
		case typ.Kind() == reflect.String:
			return reflect.ValueOf(&rest), nil
		default:
			return reflect.ValueOf(nil), &proc.ConfigurationError{Msg: fmt.Sprintf("unsupported type for configuration key %q", cfgname)}
		}
	}

	if field.Kind() == reflect.Ptr {
		val, err := simpleArg(field.Type().Elem())
		if err != nil {
			return err
		}
		field.Set(val)
	} else {
		val, err := simpleArg(field.Type())
		if err != nil {
			return err
		}
		field.Set(val.Elem())
	}
	return nil
}

func configureSetAlias(t *Term, rest string) error {
	v, err := argv.Argv(rest,
		func(s string) (string, error) {
			return "", fmt.Errorf("Backtick not supported in '%s'", s)
		},
		nil)
	if err != nil {
		return &proc.ConfigurationError{Msg: err.Error()}
	}
	var args []string
	if len(v) == 1 {
		args = v[0]
	}
	switch len(args) {
	case 1: // delete alias rule
		for k := range t.conf.Aliases {
			v := t.conf.Aliases[k]
			for i := range v {
				if v[i] == args[0] {
					copy(v[i:], v[i+1:])
					t.conf.Aliases[k] = v[:len(v)-1]
					break
				}
			}
		}
	case 2: // add alias rule
		alias, cmd := args[1], args[0]
		if t.conf.Aliases == nil {
			t.conf.Aliases = make(map[string][]string)
		}
		t.conf.Aliases[cmd] = append(t.conf.Aliases[cmd], alias)
	default:
		return &proc.ConfigurationError{Msg: `wrong number of arguments to "config alias"`}
	}
	t.cmds.Merge(t.conf.Aliases)
	return nil
}
