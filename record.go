package gora

import (
	"fmt"
	"strings"
)

// Record is one instance of a schema: a value slot per field plus a dirty bit
// per field. A Record is either live or the schema's tombstone; every field
// accessor of a tombstone panics with *UnsupportedOperationError.
//
// Records are not safe for concurrent mutation.
type Record struct {
	schema *Schema
	values []any
	dirty  bitset
	tomb   bool
}

func newRecord(schema *Schema) *Record {
	n := len(schema.fields)
	return &Record{
		schema: schema,
		values: make([]any, n),
		dirty:  newBitset(n),
	}
}

func (r *Record) Schema() *Schema {
	return r.schema
}

func (r *Record) IsTombstone() bool {
	return r.tomb
}

// Tombstone returns the tombstone of the record's schema.
func (r *Record) Tombstone() *Record {
	return r.schema.tombstone
}

func (r *Record) unsupported(op Op) error {
	return &UnsupportedOperationError{r.schema.name, op}
}

// Get returns the value of field i. Container fields return *List[T] or
// *Map[V], nested record fields return *Record. Panics on a bad index.
func (r *Record) Get(i int) any {
	return must(r.TryGet(i))
}

func (r *Record) TryGet(i int) (any, error) {
	if r.tomb {
		return nil, r.unsupported(OpGet)
	}
	if _, err := r.schema.field(i); err != nil {
		return nil, err
	}
	return r.values[i], nil
}

func (r *Record) GetByName(name string) any {
	return r.Get(r.schema.mustFieldNamed(name).index)
}

// Put stores v in field i without marking it dirty. This is how decoders
// populate a record that reflects persisted state.
//
// Raw slices and maps are wrapped into a container bound to this field. A
// container that already belongs to a record is stored as is; use Transfer
// to rebind it.
func (r *Record) Put(i int, v any) {
	ensure(r.TryPut(i, v))
}

func (r *Record) TryPut(i int, v any) error {
	if r.tomb {
		return r.unsupported(OpSet)
	}
	f, err := r.schema.field(i)
	if err != nil {
		return err
	}
	if err := f.typ.check(v); err != nil {
		return validationErr(r.schema, f, v, err)
	}
	r.put(f, v)
	return nil
}

// Set stores v in field i and marks the field dirty.
func (r *Record) Set(i int, v any) {
	ensure(r.TrySet(i, v))
}

func (r *Record) TrySet(i int, v any) error {
	err := r.TryPut(i, v)
	if err != nil {
		return err
	}
	r.dirty.set(i)
	return nil
}

func (r *Record) SetByName(name string, v any) {
	r.Set(r.schema.mustFieldNamed(name).index, v)
}

// put stores an already validated value.
func (r *Record) put(f *Field, v any) {
	if isNilValue(v) {
		r.values[f.index] = nil
		return
	}
	if f.typ.IsContainer() {
		c, ok := f.typ.ops.wrap(v)
		if !ok {
			panic(fmt.Errorf("%s.%s: cannot wrap %T", r.schema.name, f.name, v))
		}
		if o := c.own(); o.owner == nil {
			o.bind(r, f.index)
		}
		v = c
	}
	r.values[f.index] = v
}

// Transfer rebinds container c to field i of this record and marks the field
// dirty. The previous owner, if any, no longer receives dirty reports from c.
func (r *Record) Transfer(i int, c Container) {
	if r.tomb {
		panic(r.unsupported(OpSet))
	}
	f := r.schema.mustField(i)
	if !f.typ.IsContainer() {
		panic(validationErr(r.schema, f, c, fmt.Errorf("%s is not a container field", f.typ)))
	}
	if err := f.typ.check(c); err != nil {
		panic(validationErr(r.schema, f, c, err))
	}
	c.own().bind(r, i)
	r.values[i] = c
	r.dirty.set(i)
}

func (r *Record) IsFieldDirty(i int) bool {
	if r.tomb {
		panic(r.unsupported(OpIsDirty))
	}
	r.schema.mustField(i)
	return r.dirty.get(i)
}

// DirtyFields returns the indices of dirty fields in ascending order.
func (r *Record) DirtyFields() []int {
	if r.tomb {
		panic(r.unsupported(OpIsDirty))
	}
	return r.dirty.indices()
}

// IsDirty reports whether any field is dirty, including fields of nested
// records.
func (r *Record) IsDirty() bool {
	if r.tomb {
		panic(r.unsupported(OpIsDirty))
	}
	if r.dirty.any() {
		return true
	}
	for _, v := range r.values {
		if nested, ok := v.(*Record); ok && nested.IsDirty() {
			return true
		}
	}
	return false
}

// MarkClean clears all dirty bits, recursively. Stores call it after a
// successful write.
func (r *Record) MarkClean() {
	if r.tomb {
		panic(r.unsupported(OpSet))
	}
	r.dirty.reset()
	for _, v := range r.values {
		switch v := v.(type) {
		case *Record:
			v.MarkClean()
		case Container:
			if o := v.own(); o.owner == r {
				o.dirty = false
			}
		}
	}
}

// clone returns a clean deep copy. Tombstones are shared.
func (r *Record) clone() *Record {
	if r.tomb {
		return r
	}
	c := newRecord(r.schema)
	for i, f := range r.schema.fields {
		c.put(f, f.typ.clone(r.values[i]))
	}
	return c
}

// Equal compares field values structurally. Dirty state is ignored.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.schema != other.schema || r.tomb != other.tomb {
		return false
	}
	if r.tomb {
		return true
	}
	for i, f := range r.schema.fields {
		if !f.typ.equal(r.values[i], other.values[i]) {
			return false
		}
	}
	return true
}

func (r *Record) String() string {
	if r == nil {
		return "<nil>"
	}
	if r.tomb {
		return r.schema.name + "<tombstone>"
	}
	var buf strings.Builder
	buf.WriteString(r.schema.name)
	buf.WriteByte('{')
	for i, f := range r.schema.fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(f.name)
		if r.dirty.get(i) {
			buf.WriteByte('*')
		}
		buf.WriteString(": ")
		switch v := r.values[i].(type) {
		case nil:
			buf.WriteString("null")
		case string:
			fmt.Fprintf(&buf, "%q", v)
		case []byte:
			fmt.Fprintf(&buf, "(%d) %x", len(v), v)
		default:
			fmt.Fprint(&buf, v)
		}
	}
	buf.WriteByte('}')
	return buf.String()
}
