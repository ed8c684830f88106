package gora

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// AppendValue appends the msgpack encoding of v, a value of type t, to buf.
// Panics if v does not match t.
func AppendValue(buf []byte, t *Type, v any) []byte {
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.ResetDict(&bb, nil)
	err := encodeValue(enc, t, v)
	msgpack.PutEncoder(enc)
	if err != nil {
		panic(fmt.Errorf("failed to encode %s value %T: %w", t, v, err))
	}
	return bb.Buf
}

// DecodeValue decodes a value of type t produced by AppendValue. Containers
// come back unbound, nested records come back clean.
func DecodeValue(raw []byte, t *Type) (any, error) {
	var v any
	err := decodeWith(raw, func(dec *msgpack.Decoder) (err error) {
		v, err = decodeValue(dec, t)
		return
	})
	if err != nil {
		return nil, dataErrf(raw, 0, err, "failed to decode %s", t)
	}
	return v, nil
}

// AppendRecord appends rec as a msgpack map keyed by field name.
func AppendRecord(buf []byte, rec *Record) []byte {
	if rec.tomb {
		panic(rec.unsupported(OpGet))
	}
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.ResetDict(&bb, nil)
	err := encodeRecord(enc, rec)
	msgpack.PutEncoder(enc)
	if err != nil {
		panic(fmt.Errorf("failed to encode %s: %w", rec.schema.name, err))
	}
	return bb.Buf
}

func MarshalRecord(rec *Record) []byte {
	return AppendRecord(nil, rec)
}

// UnmarshalRecord decodes a record written by MarshalRecord. Unknown fields
// are skipped, missing fields take their defaults, and the result is clean.
func UnmarshalRecord(schema *Schema, raw []byte) (*Record, error) {
	var rec *Record
	err := decodeWith(raw, func(dec *msgpack.Decoder) (err error) {
		rec, err = decodeRecord(dec, schema)
		return
	})
	if err != nil {
		return nil, dataErrf(raw, 0, err, "failed to decode %s", schema.name)
	}
	return rec, nil
}

func decodeWith(raw []byte, f func(dec *msgpack.Decoder) error) error {
	var r bytes.Reader
	r.Reset(raw)
	dec := msgpack.GetDecoder()
	dec.ResetDict(&r, nil)
	err := f(dec)
	msgpack.PutDecoder(dec)
	if err == nil && r.Len() > 0 {
		err = fmt.Errorf("%d trailing bytes", r.Len())
	}
	return err
}

func encodeValue(enc *msgpack.Encoder, t *Type, v any) error {
	if isNilValue(v) {
		if !t.nullable {
			return fmt.Errorf("null is not allowed for %s", t)
		}
		return enc.EncodeNil()
	}
	switch t.kind {
	case ValueKindScalar:
		return encodeScalar(enc, t, v)
	case ValueKindRecord:
		rec, ok := v.(*Record)
		if !ok {
			return fmt.Errorf("expected %s record, got %T", t.schema.name, v)
		}
		return encodeRecord(enc, rec)
	case ValueKindList, ValueKindMap:
		c, ok := t.ops.wrap(v)
		if !ok {
			return fmt.Errorf("expected %s, got %T", t, v)
		}
		var err error
		if t.kind == ValueKindList {
			err = enc.EncodeArrayLen(c.Len())
		} else {
			err = enc.EncodeMapLen(c.Len())
		}
		if err != nil {
			return err
		}
		c.eachValue(func(key string, item any) bool {
			if t.kind == ValueKindMap {
				if err = enc.EncodeString(key); err != nil {
					return false
				}
			}
			err = encodeValue(enc, t.item, item)
			return err == nil
		})
		return err
	default:
		panic("unreachable")
	}
}

func encodeScalar(enc *msgpack.Encoder, t *Type, v any) error {
	if !scalarMatches(t.scalar, v) {
		return fmt.Errorf("expected %s, got %T", t, v)
	}
	switch t.scalar {
	case ScalarString:
		return enc.EncodeString(v.(string))
	case ScalarBytes:
		return enc.EncodeBytes(v.([]byte))
	case ScalarInt:
		return enc.EncodeInt(int64(v.(int32)))
	case ScalarLong:
		return enc.EncodeInt(v.(int64))
	case ScalarFloat:
		return enc.EncodeFloat32(v.(float32))
	case ScalarDouble:
		return enc.EncodeFloat64(v.(float64))
	case ScalarBoolean:
		return enc.EncodeBool(v.(bool))
	default:
		panic("unreachable")
	}
}

func encodeRecord(enc *msgpack.Encoder, rec *Record) error {
	if rec.tomb {
		return rec.unsupported(OpGet)
	}
	if err := enc.EncodeMapLen(len(rec.schema.fields)); err != nil {
		return err
	}
	for i, f := range rec.schema.fields {
		if err := enc.EncodeString(f.name); err != nil {
			return err
		}
		if err := encodeValue(enc, f.typ, rec.values[i]); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}

func decodeValue(dec *msgpack.Decoder, t *Type) (any, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if code == msgpcode.Nil {
		if err := dec.DecodeNil(); err != nil {
			return nil, err
		}
		if !t.nullable {
			return nil, fmt.Errorf("null is not allowed for %s", t)
		}
		return nil, nil
	}
	switch t.kind {
	case ValueKindScalar:
		return decodeScalar(dec, t.scalar)
	case ValueKindRecord:
		return decodeRecord(dec, t.schema)
	case ValueKindList:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		items := make([]any, 0, prealloc(n))
		for range n {
			item, err := decodeValue(dec, t.item)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return t.ops.fromValues(items, nil)
	case ValueKindMap:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, prealloc(n))
		items := make([]any, 0, prealloc(n))
		for range n {
			k, err := dec.DecodeString()
			if err != nil {
				return nil, err
			}
			item, err := decodeValue(dec, t.item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			keys = append(keys, k)
			items = append(items, item)
		}
		return t.ops.fromValues(items, keys)
	default:
		panic("unreachable")
	}
}

// maxPrealloc bounds capacity taken from a decoded length, which may be
// arbitrary in corrupt input.
const maxPrealloc = 1024

func prealloc(n int) int {
	return min(max(n, 0), maxPrealloc)
}

func decodeScalar(dec *msgpack.Decoder, k ScalarKind) (any, error) {
	switch k {
	case ScalarString:
		return dec.DecodeString()
	case ScalarBytes:
		return dec.DecodeBytes()
	case ScalarInt:
		return dec.DecodeInt32()
	case ScalarLong:
		return dec.DecodeInt64()
	case ScalarFloat:
		return dec.DecodeFloat32()
	case ScalarDouble:
		return dec.DecodeFloat64()
	case ScalarBoolean:
		return dec.DecodeBool()
	default:
		panic("unreachable")
	}
}

func decodeRecord(dec *msgpack.Decoder, schema *Schema) (*Record, error) {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	rec := newRecord(schema)
	seen := newBitset(len(schema.fields))
	for range n {
		name, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		f := schema.byName[name]
		if f == nil {
			if err := dec.Skip(); err != nil {
				return nil, err
			}
			continue
		}
		v, err := decodeValue(dec, f.typ)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := f.typ.check(v); err != nil {
			return nil, validationErr(schema, f, v, err)
		}
		rec.put(f, v)
		seen.set(f.index)
	}
	for i, f := range schema.fields {
		if !seen.get(i) {
			rec.put(f, f.Default())
		}
	}
	return rec, nil
}

// MarshalJSON renders field values as a JSON object. Tombstones render as
// null.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r.tomb {
		return []byte("null"), nil
	}
	return json.Marshal(r.jsonObject())
}

func (r *Record) jsonObject() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, f := range r.schema.fields {
		m[f.name] = jsonValue(f.typ, r.values[i])
	}
	return m
}

func jsonValue(t *Type, v any) any {
	if isNilValue(v) {
		return nil
	}
	switch t.kind {
	case ValueKindRecord:
		return v.(*Record).jsonObject()
	case ValueKindList:
		c, _ := t.ops.wrap(v)
		items := make([]any, 0, c.Len())
		c.eachValue(func(_ string, item any) bool {
			items = append(items, jsonValue(t.item, item))
			return true
		})
		return items
	case ValueKindMap:
		c, _ := t.ops.wrap(v)
		items := make(map[string]any, c.Len())
		c.eachValue(func(k string, item any) bool {
			items[k] = jsonValue(t.item, item)
			return true
		})
		return items
	default:
		return v
	}
}

type bytesBuilder struct {
	Buf []byte
}

var _ io.Writer = (*bytesBuilder)(nil)

func (bb *bytesBuilder) Write(b []byte) (int, error) {
	bb.Buf = append(bb.Buf, b...)
	return len(b), nil
}

func (bb *bytesBuilder) WriteByte(v byte) error {
	bb.Buf = append(bb.Buf, v)
	return nil
}

func (bb *bytesBuilder) WriteString(s string) (int, error) {
	bb.Buf = append(bb.Buf, s...)
	return len(s), nil
}
