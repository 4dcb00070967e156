// Package attribute maps named attribute writes and commands to hardware
// calls. Attributes are declared once through a Builder into a flat registry
// of dotted paths; each writable attribute resolves to exactly one Handler.
package attribute

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrValidation is returned when a write is rejected before any
	// hardware call: wrong mode, wrong type, or a value outside the
	// allowed set.
	ErrValidation = errors.New("attribute validation failed")
	// ErrUnknown is returned for names that are not registered.
	ErrUnknown = errors.New("unknown attribute or command")
	// ErrNotReadable is returned when reading a write-only attribute.
	ErrNotReadable = errors.New("attribute is write-only")
)

// Kind is the value type of an attribute.
type Kind int

const (
	Int Kind = iota
	Float
	String
	Bool
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Mode is the access mode of an attribute.
type Mode int

const (
	ReadOnly Mode = iota
	WriteOnly
	ReadWrite
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "r"
	case WriteOnly:
		return "w"
	case ReadWrite:
		return "rw"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) readable() bool { return m == ReadOnly || m == ReadWrite }
func (m Mode) writable() bool { return m == WriteOnly || m == ReadWrite }

// Attribute declares one named value.
type Attribute struct {
	Name        string
	Kind        Kind
	Mode        Mode
	Description string

	// Allowed, if non-empty, is the set of accepted string values.
	Allowed []string

	// Initial is the staged value before the first write. Members of a
	// commit group must have one.
	Initial any

	// Handler is invoked on every accepted write. A nil handler only
	// stages the value for a command to consume.
	Handler Handler

	// Read, if set, produces the value on every read instead of the staged
	// value. Read-only hardware attributes use it.
	Read func() (any, error)
}

// Group returns the commit group of the attribute, or "".
func (a Attribute) Group() string {
	if g, ok := a.Handler.(GroupCommand); ok {
		return g.Group
	}
	return ""
}

// Command declares a zero-argument procedure.
type Command struct {
	Name        string
	Description string
	Fn          func() error
}

// coerce converts v to the canonical Go type for kind: int, float64,
// string or bool.
func coerce(kind Kind, v any) (any, error) {
	switch kind {
	case Int:
		switch n := v.(type) {
		case int:
			return n, nil
		case int32:
			return int(n), nil
		case int64:
			return int(n), nil
		case uint32:
			return int(n), nil
		case float64:
			if n != float64(int(n)) {
				return nil, fmt.Errorf("%v is not an integer", n)
			}
			return int(n), nil
		}
	case Float:
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case float32:
			f = float64(n)
		case int:
			f = float64(n)
		case int64:
			f = float64(n)
		default:
			return nil, fmt.Errorf("%T is not a %s", v, kind)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%v is not a finite number", f)
		}
		return f, nil
	case String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%T is not a %s", v, kind)
}

// parse converts the textual form of a value for kind.
func parse(kind Kind, s string) (any, error) {
	s = strings.TrimSpace(s)
	switch kind {
	case Int:
		return strconv.Atoi(s)
	case Float:
		return strconv.ParseFloat(s, 64)
	case Bool:
		return strconv.ParseBool(s)
	default:
		return s, nil
	}
}
