package gora

import "fmt"

// Builder collects field values for a new Record. It tracks which fields were
// set explicitly; Build resolves the rest to their defaults.
type Builder struct {
	schema *Schema
	values []any
	set    bitset
}

func NewBuilder(schema *Schema) *Builder {
	n := len(schema.fields)
	return &Builder{
		schema: schema,
		values: make([]any, n),
		set:    newBitset(n),
	}
}

// NewBuilderFrom starts a builder holding a deep copy of every field of rec,
// all marked as explicitly set.
func NewBuilderFrom(rec *Record) *Builder {
	if rec.tomb {
		panic(rec.unsupported(OpGet))
	}
	b := NewBuilder(rec.schema)
	for i, f := range rec.schema.fields {
		v := rec.values[i]
		if f.typ.check(v) != nil {
			continue
		}
		b.values[i] = f.typ.clone(v)
		b.set.set(i)
	}
	return b
}

// Clone returns an independent copy of the builder.
func (b *Builder) Clone() *Builder {
	c := NewBuilder(b.schema)
	for _, i := range b.set.indices() {
		c.values[i] = b.schema.fields[i].typ.clone(b.values[i])
		c.set.set(i)
	}
	return c
}

func (b *Builder) Schema() *Schema {
	return b.schema
}

// Set validates v against field i and stores it. Panics with
// *ValidationError if v does not fit.
func (b *Builder) Set(i int, v any) *Builder {
	ensure(b.TrySet(i, v))
	return b
}

func (b *Builder) TrySet(i int, v any) error {
	f, err := b.schema.field(i)
	if err != nil {
		return err
	}
	if err := f.typ.check(v); err != nil {
		return validationErr(b.schema, f, v, err)
	}
	b.values[i] = v
	b.set.set(i)
	return nil
}

func (b *Builder) SetByName(name string, v any) *Builder {
	return b.Set(b.schema.mustFieldNamed(name).index, v)
}

// Get returns the explicitly set value of field i, or nil.
func (b *Builder) Get(i int) any {
	b.schema.mustField(i)
	if !b.set.get(i) {
		return nil
	}
	return b.values[i]
}

func (b *Builder) Has(i int) bool {
	b.schema.mustField(i)
	return b.set.get(i)
}

// Clear forgets the value of field i so that Build falls back to the default.
func (b *Builder) Clear(i int) *Builder {
	b.schema.mustField(i)
	b.values[i] = nil
	b.set.unset(i)
	return b
}

// Build produces a clean record. Unset fields get fresh copies of their
// defaults. Containers that already belong to a record are copied; nested
// records are always copied.
func (b *Builder) Build() (rec *Record, err error) {
	var cur *Field
	defer func() {
		if e := recover(); e != nil {
			be := &BuildError{Schema: b.schema.name}
			if cur != nil {
				be.Field = cur.name
			}
			if cause, ok := e.(error); ok {
				be.Err = cause
			} else {
				be.Err = fmt.Errorf("%v", e)
			}
			rec, err = nil, be
		}
	}()

	rec = newRecord(b.schema)
	for i, f := range b.schema.fields {
		cur = f
		var v any
		if b.set.get(i) {
			v = b.values[i]
			if err := f.typ.check(v); err != nil {
				return nil, &BuildError{b.schema.name, f.name, validationErr(b.schema, f, v, err)}
			}
			v = b.resolve(f, v)
		} else {
			v = f.Default()
		}
		rec.put(f, v)
		if c, ok := rec.values[i].(Container); ok {
			if o := c.own(); o.owner == rec {
				o.dirty = false
			}
		}
	}
	return rec, nil
}

func (b *Builder) resolve(f *Field, v any) any {
	switch x := v.(type) {
	case *Record:
		return f.typ.clone(x)
	case Container:
		if x.own().owner != nil {
			return x.cloneContainer()
		}
		return v
	}
	// raw slices and maps are copied so that records built from one builder
	// never share storage
	return f.typ.clone(v)
}

func (b *Builder) MustBuild() *Record {
	return must(b.Build())
}
