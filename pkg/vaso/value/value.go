// Package value implements the Vaso runtime value model and the operation
// semantics shared by assignments, conditions and the standard library.
//
// Values are plain Go values copied on every assignment. A List owns its
// elements; Copy performs the deep copy that keeps two bindings from ever
// sharing a backing array.
package value

import (
	"strconv"
	"strings"
)

// ValueType identifies the variant held by a Value.
type ValueType string

const (
	INT_VALUE      ValueType = "Int"
	STR_VALUE      ValueType = "Str"
	STATUS_VALUE   ValueType = "Status"
	LIST_VALUE     ValueType = "List"
	FUNCTION_VALUE ValueType = "Function"
)

// Value is the tagged union of runtime values.
type Value interface {
	Type() ValueType
	Inspect() string
}

// Level is the five-valued status level.
type Level uint8

const (
	Off Level = iota
	On
	Loading
	Error
	Unknown
)

var levelNames = [...]string{"off", "on", "loading", "error", "unknown"}

// String returns the canonical name of the level.
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// Int is a signed integer value.
type Int struct {
	Value int64
}

func (i Int) Type() ValueType { return INT_VALUE }
func (i Int) Inspect() string { return strconv.FormatInt(i.Value, 10) }

// Str is a text value.
type Str struct {
	Value string
}

func (s Str) Type() ValueType { return STR_VALUE }
func (s Str) Inspect() string { return s.Value }

// Status is a five-valued status carrying an optional message.
type Status struct {
	Level   Level
	Message string
}

func (s Status) Type() ValueType { return STATUS_VALUE }

// Inspect renders the canonical name, followed by ("message") when a message is set.
func (s Status) Inspect() string {
	if s.Message == "" {
		return s.Level.String()
	}
	return s.Level.String() + "(\"" + s.Message + "\")"
}

// List is an ordered sequence of values.
type List struct {
	Elements []Value
}

func (l List) Type() ValueType { return LIST_VALUE }

func (l List) Inspect() string {
	parts := make([]string, len(l.Elements))
	for i, el := range l.Elements {
		parts[i] = el.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Function points at a function body by token position.
type Function struct {
	Body   int // position of the body's opening brace
	Params []string
}

func (f Function) Type() ValueType { return FUNCTION_VALUE }
func (f Function) Inspect() string { return "fn(" + strings.Join(f.Params, ", ") + ")" }

// Status constructors
func NewStatus(level Level, message string) Status { return Status{Level: level, Message: message} }
func NewError(message string) Status              { return Status{Level: Error, Message: message} }

var (
	OFF = Status{Level: Off}
	ON  = Status{Level: On}
)

// FromBool encodes a boolean as on/off. Booleans have no other representation.
func FromBool(b bool) Status {
	if b {
		return ON
	}
	return OFF
}

// IsOn reports whether v is a status value at level on.
func IsOn(v Value) bool {
	s, ok := v.(Status)
	return ok && s.Level == On
}

// IsError reports whether v is an error status.
func IsError(v Value) bool {
	s, ok := v.(Status)
	return ok && s.Level == Error
}

// Copy returns a deep copy of v so that no two bindings share list storage.
func Copy(v Value) Value {
	switch v := v.(type) {
	case List:
		elements := make([]Value, len(v.Elements))
		for i, el := range v.Elements {
			elements[i] = Copy(el)
		}
		return List{Elements: elements}
	case Function:
		params := make([]string, len(v.Params))
		copy(params, v.Params)
		return Function{Body: v.Body, Params: params}
	default:
		return v
	}
}

// Equal reports whether a and b hold the same variant and contents, messages included.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Int:
		b, ok := b.(Int)
		return ok && a == b
	case Str:
		b, ok := b.(Str)
		return ok && a == b
	case Status:
		b, ok := b.(Status)
		return ok && a == b
	case List:
		b, ok := b.(List)
		if !ok || len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equal(a.Elements[i], b.Elements[i]) {
				return false
			}
		}
		return true
	case Function:
		b, ok := b.(Function)
		return ok && a.Body == b.Body && strings.Join(a.Params, ",") == strings.Join(b.Params, ",")
	}
	return false
}
