package gora

import (
	"bytes"
	"fmt"
)

// Type describes the shape of a field value. Types are immutable and may be
// shared between schemas.
type Type struct {
	name     string
	kind     ValueKind
	scalar   ScalarKind
	item     *Type
	schema   *Schema
	nullable bool
	ops      containerOps
}

var (
	TString  = scalarType(ScalarString)
	TBytes   = scalarType(ScalarBytes)
	TInt     = scalarType(ScalarInt)
	TLong    = scalarType(ScalarLong)
	TFloat   = scalarType(ScalarFloat)
	TDouble  = scalarType(ScalarDouble)
	TBoolean = scalarType(ScalarBoolean)
)

func scalarType(k ScalarKind) *Type {
	return &Type{name: k.String(), kind: ValueKindScalar, scalar: k}
}

// RecordOf is the type of a field holding a nested record of the given schema.
func RecordOf(schema *Schema) *Type {
	if schema == nil {
		panic("RecordOf(nil)")
	}
	return &Type{name: schema.Name(), kind: ValueKindRecord, schema: schema}
}

// ListOf is the type of a field holding a List[T]. T must be the Go type
// that values of item use (string for TString, *Record for RecordOf, etc).
func ListOf[T any](item *Type) *Type {
	ensureItemType(item)
	return &Type{
		name: "array<" + item.String() + ">",
		kind: ValueKindList,
		item: item,
		ops:  listOps[T]{item},
	}
}

// MapOf is the type of a field holding a Map[V] with string keys.
func MapOf[V any](item *Type) *Type {
	ensureItemType(item)
	return &Type{
		name: "map<" + item.String() + ">",
		kind: ValueKindMap,
		item: item,
		ops:  mapOps[V]{item},
	}
}

func ensureItemType(item *Type) {
	if item == nil {
		panic("container item type is nil")
	}
	if item.nullable {
		panic(fmt.Errorf("container items cannot be nullable (%s)", item))
	}
}

// Nullable returns a copy of typ that also accepts nil.
func Nullable(typ *Type) *Type {
	if typ.nullable {
		return typ
	}
	t := *typ
	t.nullable = true
	return &t
}

func (t *Type) Name() string       { return t.name }
func (t *Type) Kind() ValueKind    { return t.kind }
func (t *Type) Scalar() ScalarKind { return t.scalar }
func (t *Type) Item() *Type        { return t.item }
func (t *Type) Schema() *Schema    { return t.schema }
func (t *Type) IsNullable() bool   { return t.nullable }
func (t *Type) IsContainer() bool  { return t.kind == ValueKindList || t.kind == ValueKindMap }

func (t *Type) String() string {
	if t.nullable {
		return "?" + t.name
	}
	return t.name
}

// check returns a plain error describing why v cannot be stored as t.
func (t *Type) check(v any) error {
	if v == nil {
		if t.nullable {
			return nil
		}
		return fmt.Errorf("null is not allowed for %s", t)
	}
	switch t.kind {
	case ValueKindScalar:
		if !scalarMatches(t.scalar, v) {
			return fmt.Errorf("expected %s, got %T", t, v)
		}
		return nil
	case ValueKindRecord:
		rec, ok := v.(*Record)
		if !ok {
			return fmt.Errorf("expected %s record, got %T", t.schema.Name(), v)
		}
		if rec == nil {
			if t.nullable {
				return nil
			}
			return fmt.Errorf("null is not allowed for %s", t)
		}
		if rec.schema != t.schema {
			return fmt.Errorf("expected %s record, got %s record", t.schema.Name(), rec.schema.Name())
		}
		if rec.tomb {
			return fmt.Errorf("%s tombstone cannot be stored in a field", rec.schema.Name())
		}
		return nil
	case ValueKindList, ValueKindMap:
		return t.ops.check(v)
	default:
		panic("unreachable")
	}
}

func scalarMatches(k ScalarKind, v any) bool {
	switch k {
	case ScalarString:
		_, ok := v.(string)
		return ok
	case ScalarBytes:
		_, ok := v.([]byte)
		return ok
	case ScalarInt:
		_, ok := v.(int32)
		return ok
	case ScalarLong:
		_, ok := v.(int64)
		return ok
	case ScalarFloat:
		_, ok := v.(float32)
		return ok
	case ScalarDouble:
		_, ok := v.(float64)
		return ok
	case ScalarBoolean:
		_, ok := v.(bool)
		return ok
	default:
		return false
	}
}

// zero is the value used for a field that has neither an explicit value nor
// a declared default. Containers and nested records are freshly allocated on
// every call.
func (t *Type) zero() any {
	if t.nullable {
		return nil
	}
	switch t.kind {
	case ValueKindScalar:
		switch t.scalar {
		case ScalarString:
			return ""
		case ScalarBytes:
			return []byte{}
		case ScalarInt:
			return int32(0)
		case ScalarLong:
			return int64(0)
		case ScalarFloat:
			return float32(0)
		case ScalarDouble:
			return float64(0)
		case ScalarBoolean:
			return false
		}
	case ValueKindRecord:
		return NewBuilder(t.schema).MustBuild()
	case ValueKindList, ValueKindMap:
		return t.ops.empty()
	}
	panic("unreachable")
}

// clone deep-copies v. Containers come back unbound and clean, nested
// records come back clean.
func (t *Type) clone(v any) any {
	if v == nil {
		return nil
	}
	switch t.kind {
	case ValueKindScalar:
		if b, ok := v.([]byte); ok {
			return bytes.Clone(b)
		}
		return v
	case ValueKindRecord:
		rec := v.(*Record)
		if rec == nil {
			return nil
		}
		return rec.clone()
	case ValueKindList, ValueKindMap:
		c, ok := t.ops.wrap(v)
		if !ok {
			panic(fmt.Errorf("cannot clone %T as %s", v, t))
		}
		return c.cloneContainer()
	}
	panic("unreachable")
}

// equal compares two values of type t structurally.
func (t *Type) equal(a, b any) bool {
	if a == nil || b == nil {
		return isNilValue(a) && isNilValue(b)
	}
	switch t.kind {
	case ValueKindScalar:
		if ab, ok := a.([]byte); ok {
			bb, ok := b.([]byte)
			return ok && bytes.Equal(ab, bb)
		}
		return a == b
	case ValueKindRecord:
		return a.(*Record).Equal(b.(*Record))
	case ValueKindList, ValueKindMap:
		ca, ok1 := t.ops.wrap(a)
		cb, ok2 := t.ops.wrap(b)
		if !ok1 || !ok2 {
			return false
		}
		return containersEqual(t.item, ca, cb)
	}
	return false
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	if rec, ok := v.(*Record); ok && rec == nil {
		return true
	}
	return false
}

type defaultOpt struct {
	value any
}

// Default declares the value used by Builder.Build when a field is not set.
func Default(v any) any {
	return defaultOpt{v}
}
