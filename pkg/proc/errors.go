package proc

import (
	"errors"
	"fmt"
)

// ErrEndOfAddressSpace is returned by Process.QueryRegion when the queried
// address is past the last span of the address space. It terminates a
// snapshot normally.
var ErrEndOfAddressSpace = errors.New("end of address space")

// ConfigurationError is returned for unusable operator input, for example
// an empty window title. It is recoverable: the operator is asked again.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

// AmbiguityError is returned when a window search matched zero windows or
// more than one. It is recoverable.
type AmbiguityError struct {
	Query   string
	Matches int
}

func (e *AmbiguityError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("no window matches %q (matching is case-sensitive)", e.Query)
	}
	return fmt.Sprintf("too many windows match %q: %d", e.Query, e.Matches)
}

// PlatformError wraps a failure reported by the operating system. It is
// fatal for the session.
type PlatformError struct {
	Op      string
	Code    uint32
	Addr    uint64
	HasAddr bool
	Err     error
}

func (e *PlatformError) Error() string {
	switch {
	case e.HasAddr:
		return fmt.Sprintf("%s; ptr = 0x%016X; error code 0x%08X", e.Op, e.Addr, e.Code)
	case e.Code != 0:
		return fmt.Sprintf("%s; error code 0x%08X", e.Op, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// ConsistencyError is returned when a read that must be complete returned
// fewer bytes than requested. It is fatal for the session.
type ConsistencyError struct {
	What string
	Addr uint64
	Want uint64
	Got  uint64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("bytes read differs from %s at %#x: wanted %d, got %d", e.What, e.Addr, e.Want, e.Got)
}

// IsFatal returns true if err must abort the session. Recoverable errors
// are the ones operator input can fix: *ConfigurationError and
// *AmbiguityError.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var cerr *ConfigurationError
	if errors.As(err, &cerr) {
		return false
	}
	var aerr *AmbiguityError
	return !errors.As(err, &aerr)
}
