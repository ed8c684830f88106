package gora

import "fmt"

type ValueKind int

const (
	ValueKindUnknown ValueKind = iota
	ValueKindScalar
	ValueKindRecord
	ValueKindList
	ValueKindMap
)

func (k ValueKind) String() string {
	switch k {
	case ValueKindScalar:
		return "scalar"
	case ValueKindRecord:
		return "record"
	case ValueKindList:
		return "list"
	case ValueKindMap:
		return "map"
	default:
		return fmt.Sprintf("invalid kind %d", int(k))
	}
}

// ScalarKind picks the Go type used to hold a scalar field value.
type ScalarKind int

const (
	ScalarNone    ScalarKind = iota
	ScalarString             // string
	ScalarBytes              // []byte
	ScalarInt                // int32
	ScalarLong               // int64
	ScalarFloat              // float32
	ScalarDouble             // float64
	ScalarBoolean            // bool
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarString:
		return "string"
	case ScalarBytes:
		return "bytes"
	case ScalarInt:
		return "int"
	case ScalarLong:
		return "long"
	case ScalarFloat:
		return "float"
	case ScalarDouble:
		return "double"
	case ScalarBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("invalid scalar %d", int(k))
	}
}
