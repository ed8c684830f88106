package gora

import (
	"fmt"
	"strings"
)

// Schema is the field descriptor table of one record type. It is immutable
// once NewSchema returns.
type Schema struct {
	name      string
	fields    []*Field
	byName    map[string]*Field
	tombstone *Record
}

// Field describes one field of a schema.
type Field struct {
	index      int
	name       string
	typ        *Type
	def        any
	hasDefault bool
}

func (f *Field) Index() int      { return f.index }
func (f *Field) Name() string    { return f.name }
func (f *Field) Type() *Type     { return f.typ }
func (f *Field) Kind() ValueKind { return f.typ.kind }
func (f *Field) String() string  { return f.name }

// Default returns the declared default. Containers and records are copied,
// so the result may be stored without aliasing the schema.
func (f *Field) Default() any {
	if !f.hasDefault {
		return f.typ.zero()
	}
	return f.typ.clone(f.def)
}

type SchemaBuilder struct {
	schema *Schema
}

// NewSchema defines a record type. Fields get dense indices in the order
// build declares them.
func NewSchema(name string, build func(b *SchemaBuilder)) *Schema {
	if name == "" {
		panic("schema name missing")
	}
	scm := &Schema{
		name:   name,
		byName: make(map[string]*Field),
	}
	b := SchemaBuilder{schema: scm}
	build(&b)
	scm.tombstone = &Record{schema: scm, tomb: true}
	return scm
}

// Field appends a field and returns its index. Accepted options: Default(v).
func (b *SchemaBuilder) Field(name string, typ *Type, opts ...any) int {
	scm := b.schema
	if name == "" {
		panic(fmt.Errorf("%s: field name missing", scm.name))
	}
	if typ == nil {
		panic(fmt.Errorf("%s.%s: field type missing", scm.name, name))
	}
	if scm.byName[name] != nil {
		panic(fmt.Errorf("%s already has field %s", scm.name, name))
	}
	f := &Field{
		index: len(scm.fields),
		name:  name,
		typ:   typ,
	}
	for _, opt := range opts {
		switch opt := opt.(type) {
		case defaultOpt:
			if err := typ.check(opt.value); err != nil {
				panic(fmt.Errorf("%s.%s: invalid default: %w", scm.name, name, err))
			}
			if c, ok := opt.value.(Container); ok && c.own().owner != nil {
				panic(fmt.Errorf("%s.%s: default container already belongs to a record", scm.name, name))
			}
			f.def, f.hasDefault = opt.value, true
		default:
			panic(fmt.Errorf("unexpected field option %T", opt))
		}
	}
	scm.fields = append(scm.fields, f)
	scm.byName[name] = f
	return f.index
}

func (scm *Schema) Name() string    { return scm.name }
func (scm *Schema) String() string  { return scm.name }
func (scm *Schema) FieldCount() int { return len(scm.fields) }

func (scm *Schema) Fields() []*Field {
	return append([]*Field(nil), scm.fields...)
}

func (scm *Schema) FieldNames() []string {
	names := make([]string, len(scm.fields))
	for i, f := range scm.fields {
		names[i] = f.name
	}
	return names
}

// Field returns the descriptor at index i, or nil if there is none.
func (scm *Schema) Field(i int) *Field {
	if i < 0 || i >= len(scm.fields) {
		return nil
	}
	return scm.fields[i]
}

func (scm *Schema) FieldNamed(name string) *Field {
	return scm.byName[name]
}

// FieldIndex returns the index of the named field, or -1.
func (scm *Schema) FieldIndex(name string) int {
	if f := scm.byName[name]; f != nil {
		return f.index
	}
	return -1
}

func (scm *Schema) field(i int) (*Field, error) {
	if i < 0 || i >= len(scm.fields) {
		return nil, fieldErrf(scm, i, "")
	}
	return scm.fields[i], nil
}

func (scm *Schema) mustField(i int) *Field {
	f, err := scm.field(i)
	if err != nil {
		panic(err)
	}
	return f
}

func (scm *Schema) mustFieldNamed(name string) *Field {
	f := scm.byName[name]
	if f == nil {
		panic(fieldErrf(scm, -1, name))
	}
	return f
}

// Tombstone returns the deletion marker shared by all records of this schema.
func (scm *Schema) Tombstone() *Record {
	return scm.tombstone
}

// NewRecord builds a record with every field set to its default.
func (scm *Schema) NewRecord() *Record {
	return NewBuilder(scm).MustBuild()
}

func (scm *Schema) Describe() string {
	var buf strings.Builder
	buf.WriteString(scm.name)
	buf.WriteByte('{')
	for i, f := range scm.fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%d:%s %s", f.index, f.name, f.typ)
	}
	buf.WriteByte('}')
	return buf.String()
}
