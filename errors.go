package gora

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOutOfRange           = errors.New("field index out of range")
	ErrValidation           = errors.New("invalid field value")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrBuild                = errors.New("cannot build record")
)

// Op names the kind of field access that was attempted on a tombstone.
type Op int

const (
	OpGet Op = iota
	OpSet
	OpIsDirty
)

func (v Op) String() string {
	switch v {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	case OpIsDirty:
		return "is-dirty"
	default:
		return fmt.Sprintf("invalid op %d", int(v))
	}
}

// FieldError reports access to a field that the schema does not have.
type FieldError struct {
	Schema string
	Index  int
	Name   string
	Err    error
}

func fieldErrf(schema *Schema, index int, name string) error {
	return &FieldError{schema.Name(), index, name, ErrOutOfRange}
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func (e *FieldError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: no field named %q: %v", e.Schema, e.Name, e.Err)
	}
	return fmt.Sprintf("%s[%d]: %v", e.Schema, e.Index, e.Err)
}

// ValidationError reports a value that does not match the declared field type.
type ValidationError struct {
	Schema string
	Field  string
	Index  int
	Type   string
	Value  any
	Err    error
}

func validationErr(schema *Schema, f *Field, value any, reason error) error {
	return &ValidationError{
		Schema: schema.Name(),
		Field:  f.name,
		Index:  f.index,
		Type:   f.typ.String(),
		Value:  value,
		Err:    reason,
	}
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %v: %v", e.Schema, e.Field, ErrValidation, e.Err)
}

// UnsupportedOperationError is raised by every field accessor of a tombstone.
type UnsupportedOperationError struct {
	Schema string
	Op     Op
}

func (e *UnsupportedOperationError) Unwrap() error {
	return ErrUnsupportedOperation
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: %s is not supported on tombstones", e.Schema, e.Op)
}

// BuildError wraps whatever went wrong inside Builder.Build.
type BuildError struct {
	Schema string
	Field  string
	Err    error
}

func (e *BuildError) Is(target error) bool {
	return target == ErrBuild
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func (e *BuildError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Schema)
	if e.Field != "" {
		buf.WriteByte('.')
		buf.WriteString(e.Field)
	}
	buf.WriteString(": ")
	buf.WriteString(ErrBuild.Error())
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// DataError reports undecodable bytes.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}
