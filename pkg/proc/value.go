package proc

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Value is the set of element types a scan can search for. Values are
// fixed size and have no pointers, so they can be decoded straight out of
// a region's bytes.
type Value interface {
	constraints.Integer | constraints.Float
}

// ValueTypeNames lists the element type names accepted by ParseValueType,
// in the order they are shown to the user.
var ValueTypeNames = []string{
	"int8", "int16", "int32", "int64",
	"uint8", "uint16", "uint32", "uint64",
	"float32", "float64",
}

// ParseValueType checks that name is one of ValueTypeNames.
func ParseValueType(name string) (string, error) {
	for _, n := range ValueTypeNames {
		if n == name {
			return n, nil
		}
	}
	return "", &ConfigurationError{Msg: fmt.Sprintf("unknown value type %q (valid types: %v)", name, ValueTypeNames)}
}

// ParseByteOrder converts "little" or "big" to the corresponding byte
// order. The empty string selects little endian.
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch name {
	case "", "little":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	}
	return nil, &ConfigurationError{Msg: fmt.Sprintf("unknown byte order %q", name)}
}

// Codec decodes values of type T from raw target memory using an explicit
// byte order.
type Codec[T Value] struct {
	order  binary.ByteOrder
	size   int
	decode func(b []byte) T
}

// NewCodec returns a Codec for T. Named types are decoded according to
// their underlying kind.
func NewCodec[T Value](order binary.ByteOrder) Codec[T] {
	var zero T
	c := Codec[T]{order: order, size: int(unsafe.Sizeof(zero))}
	switch reflect.TypeOf(zero).Kind() {
	case reflect.Int8:
		c.decode = func(b []byte) T { return T(int8(b[0])) }
	case reflect.Uint8:
		c.decode = func(b []byte) T { return T(b[0]) }
	case reflect.Int16:
		c.decode = func(b []byte) T { return T(int16(order.Uint16(b))) }
	case reflect.Uint16:
		c.decode = func(b []byte) T { return T(order.Uint16(b)) }
	case reflect.Float32:
		c.decode = func(b []byte) T { return T(math.Float32frombits(order.Uint32(b))) }
	case reflect.Float64:
		c.decode = func(b []byte) T { return T(math.Float64frombits(order.Uint64(b))) }
	case reflect.Int32, reflect.Int, reflect.Int64:
		if c.size == 4 {
			c.decode = func(b []byte) T { return T(int32(order.Uint32(b))) }
		} else {
			c.decode = func(b []byte) T { return T(int64(order.Uint64(b))) }
		}
	default:
		// uint32, uint64, uint, uintptr
		if c.size == 4 {
			c.decode = func(b []byte) T { return T(order.Uint32(b)) }
		} else {
			c.decode = func(b []byte) T { return T(order.Uint64(b)) }
		}
	}
	return c
}

// Size returns the size in bytes of an encoded T.
func (c Codec[T]) Size() int {
	return c.size
}

// Count returns the number of whole elements that fit in n bytes. Trailing
// bytes that do not form a whole element are never decoded.
func (c Codec[T]) Count(n int) int {
	return n / c.size
}

// Decode decodes the element starting at off. It returns false if the
// element does not fit entirely inside b.
func (c Codec[T]) Decode(b []byte, off int) (T, bool) {
	if off < 0 || off > len(b)-c.size {
		var zero T
		return zero, false
	}
	return c.decode(b[off : off+c.size]), true
}

// ParseValue parses s as a value of type T. Integers accept the prefixes
// understood by strconv (0x, 0o, 0b).
func ParseValue[T Value](s string) (T, error) {
	var zero T
	bits := int(unsafe.Sizeof(zero)) * 8
	switch reflect.TypeOf(zero).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(s, 0, bits)
		if err != nil {
			return zero, &ConfigurationError{Msg: fmt.Sprintf("invalid %T value %q: %v", zero, s, err)}
		}
		return T(v), nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(s, bits)
		if err != nil {
			return zero, &ConfigurationError{Msg: fmt.Sprintf("invalid %T value %q: %v", zero, s, err)}
		}
		return T(v), nil
	default:
		v, err := strconv.ParseUint(s, 0, bits)
		if err != nil {
			return zero, &ConfigurationError{Msg: fmt.Sprintf("invalid %T value %q: %v", zero, s, err)}
		}
		return T(v), nil
	}
}
