package gora

import "testing"

func TestSchema_fields(t *testing.T) {
	eq(t, pageSchema.Name(), "Page")
	eq(t, pageSchema.FieldCount(), 6)
	deepEqual(t, pageSchema.FieldNames(), []string{"url", "content", "parsedContent", "outlinks", "headers", "metadata"})
	for i, f := range pageSchema.Fields() {
		eq(t, f.Index(), i)
		eq(t, pageSchema.Field(i), f)
		eq(t, pageSchema.FieldNamed(f.Name()), f)
		eq(t, pageSchema.FieldIndex(f.Name()), i)
	}
	eq(t, pageSchema.FieldIndex("nope"), -1)
	if pageSchema.Field(6) != nil || pageSchema.Field(-1) != nil {
		t.Fatalf("Field out of range returned a descriptor")
	}

	eq(t, pageSchema.Field(fOutlinks).Kind(), ValueKindMap)
	eq(t, pageSchema.Field(fParsedContent).Kind(), ValueKindList)
	eq(t, pageSchema.Field(fMetadata).Kind(), ValueKindRecord)
	eq(t, pageSchema.Field(fURL).Type().IsNullable(), true)
	eq(t, pageSchema.Field(fOutlinks).Type().Item(), TString)
	eq(t, pageSchema.Field(fMetadata).Type().Schema(), metaSchema)

	eq(t, pageSchema.Describe(), "Page{0:url ?string, 1:content ?bytes, 2:parsedContent array<string>, 3:outlinks map<string>, 4:headers ?map<string>, 5:metadata Meta}")
}

func TestSchema_definition_errors(t *testing.T) {
	assertPanics(t, func() {
		NewSchema("Dup", func(b *SchemaBuilder) {
			b.Field("a", TString)
			b.Field("a", TLong)
		})
	})
	assertPanics(t, func() {
		NewSchema("BadDefault", func(b *SchemaBuilder) {
			b.Field("a", TString, Default(int64(1)))
		})
	})
	assertPanics(t, func() {
		NewSchema("BadOption", func(b *SchemaBuilder) {
			b.Field("a", TString, 42)
		})
	})
	assertPanics(t, func() {
		NewSchema("BoundDefault", func(b *SchemaBuilder) {
			b.Field("a", ListOf[string](TString), Default(parsedContent(pageSchema.NewRecord())))
		})
	})
	assertPanics(t, func() { ListOf[string](Nullable(TString)) })
}

func TestSchema_defaults_are_copied(t *testing.T) {
	scm := NewSchema("D", func(b *SchemaBuilder) {
		b.Field("b", TBytes, Default([]byte{1}))
	})
	d := scm.Field(0).Default().([]byte)
	d[0] = 9
	deepEqual(t, scm.Field(0).Default().([]byte), []byte{1})
}
