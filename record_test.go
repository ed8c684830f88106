package gora

import (
	"errors"
	"testing"
)

func TestRecord_fresh_build_is_clean(t *testing.T) {
	rec := NewBuilder(pageSchema).
		Set(fURL, "http://x").
		Set(fContent, []byte("hello")).
		Set(fParsedContent, []string{"a", "b"}).
		MustBuild()
	eq(t, rec.IsDirty(), false)
	isempty(t, rec.DirtyFields())
	for i := range pageSchema.FieldCount() {
		eq(t, rec.IsFieldDirty(i), false)
	}
	eq(t, rec.Get(fURL).(string), "http://x")
	eq(t, parsedContent(rec).Len(), 2)
}

func TestRecord_set_scalar_marks_only_that_field(t *testing.T) {
	rec := pageSchema.NewRecord()
	rec.Set(fURL, "http://y")
	eq(t, rec.IsFieldDirty(fURL), true)
	eq(t, rec.IsFieldDirty(fContent), false)
	deepEqual(t, rec.DirtyFields(), []int{fURL})

	_ = rec.Get(fURL)
	_ = rec.Get(fContent)
	deepEqual(t, rec.DirtyFields(), []int{fURL})
}

func TestRecord_put_does_not_mark_dirty(t *testing.T) {
	rec := pageSchema.NewRecord()
	rec.Put(fURL, "http://z")
	rec.Put(fOutlinks, map[string]string{"a": "b"})
	eq(t, rec.IsDirty(), false)
	eq(t, rec.Get(fURL).(string), "http://z")

	m := outlinks(rec)
	eq(t, m.Get("a"), "b")
	owner, idx := m.Owner()
	eq(t, owner, rec)
	eq(t, idx, fOutlinks)
}

func TestRecord_container_reads_do_not_dirty(t *testing.T) {
	rec := NewBuilder(pageSchema).
		Set(fParsedContent, []string{"a", "b"}).
		Set(fOutlinks, map[string]string{"x": "1", "y": "2"}).
		MustBuild()

	l := parsedContent(rec)
	_ = l.Len()
	_ = l.Get(0)
	_ = l.Values()
	for range l.All() {
	}
	m := outlinks(rec)
	_ = m.Len()
	_, _ = m.Lookup("x")
	_ = m.Has("z")
	deepEqual(t, m.Keys(), []string{"x", "y"})
	for range m.All() {
	}

	eq(t, rec.IsDirty(), false)
	eq(t, l.IsDirty(), false)
	eq(t, m.IsDirty(), false)
}

func TestRecord_list_mutations_dirty_their_field(t *testing.T) {
	ops := map[string]func(l *List[string]){
		"append":  func(l *List[string]) { l.Append("c") },
		"insert":  func(l *List[string]) { l.Insert(0, "c") },
		"set":     func(l *List[string]) { l.Set(1, "c") },
		"remove":  func(l *List[string]) { l.Remove(0) },
		"clear":   func(l *List[string]) { l.Clear() },
		"replace": func(l *List[string]) { l.Replace([]string{"q"}) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			rec := NewBuilder(pageSchema).Set(fParsedContent, []string{"a", "b"}).MustBuild()
			l := parsedContent(rec)
			op(l)
			eq(t, l.IsDirty(), true)
			deepEqual(t, rec.DirtyFields(), []int{fParsedContent})
		})
	}
}

func TestRecord_map_mutations_dirty_their_field(t *testing.T) {
	ops := map[string]func(m *Map[string]){
		"put":     func(m *Map[string]) { m.Put("k", "v") },
		"delete":  func(m *Map[string]) { m.Delete("a") },
		"clear":   func(m *Map[string]) { m.Clear() },
		"replace": func(m *Map[string]) { m.Replace(nil) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			rec := NewBuilder(pageSchema).Set(fOutlinks, map[string]string{"a": "1"}).MustBuild()
			m := outlinks(rec)
			op(m)
			eq(t, m.IsDirty(), true)
			deepEqual(t, rec.DirtyFields(), []int{fOutlinks})
		})
	}
}

func TestRecord_noop_mutation_still_dirties(t *testing.T) {
	rec := pageSchema.NewRecord()
	m := outlinks(rec)
	eq(t, m.Len(), 0)
	m.Clear()
	eq(t, rec.IsFieldDirty(fOutlinks), true)

	rec = pageSchema.NewRecord()
	eq(t, outlinks(rec).Delete("missing"), false)
	eq(t, rec.IsFieldDirty(fOutlinks), true)
}

func TestRecord_unset_map_builds_empty(t *testing.T) {
	rec := NewBuilder(pageSchema).Set(fURL, "http://x").MustBuild()
	m := outlinks(rec)
	eq(t, m.Len(), 0)

	m.Put("http://a", "A")
	eq(t, rec.IsFieldDirty(fOutlinks), true)
	for i := range pageSchema.FieldCount() {
		if i != fOutlinks {
			eq(t, rec.IsFieldDirty(i), false)
		}
	}
}

func TestRecord_default_containers_are_not_shared(t *testing.T) {
	r1 := pageSchema.NewRecord()
	r2 := pageSchema.NewRecord()
	outlinks(r1).Put("a", "b")
	eq(t, outlinks(r2).Len(), 0)
	eq(t, r2.IsDirty(), false)
}

func TestRecord_mark_clean_is_idempotent(t *testing.T) {
	rec := pageSchema.NewRecord()
	rec.Set(fURL, "u")
	parsedContent(rec).Append("x")
	eq(t, rec.IsDirty(), true)

	rec.MarkClean()
	isempty(t, rec.DirtyFields())
	eq(t, parsedContent(rec).IsDirty(), false)
	rec.MarkClean()
	isempty(t, rec.DirtyFields())
	eq(t, rec.IsDirty(), false)
}

func TestRecord_nested_record_dirtiness(t *testing.T) {
	rec := pageSchema.NewRecord()
	meta := rec.Get(fMetadata).(*Record)
	eq(t, meta.Get(0).(int32), int32(0))

	meta.Set(0, int32(3))
	eq(t, rec.IsFieldDirty(fMetadata), false)
	eq(t, rec.IsDirty(), true)

	rec.MarkClean()
	eq(t, meta.IsDirty(), false)
}

func TestRecord_errors(t *testing.T) {
	rec := pageSchema.NewRecord()

	_, err := rec.TryGet(99)
	isErr(t, err, ErrOutOfRange)
	err = rec.TrySet(-1, "x")
	isErr(t, err, ErrOutOfRange)

	err = rec.TrySet(fURL, 42)
	isErr(t, err, ErrValidation)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("got %T, wanted *ValidationError", err)
	}
	eq(t, ve.Field, "url")
	eq(t, rec.IsFieldDirty(fURL), false)

	err = rec.TrySet(fParsedContent, []int{1})
	isErr(t, err, ErrValidation)
	err = rec.TrySet(fParsedContent, nil)
	isErr(t, err, ErrValidation)
	err = rec.TrySet(fMetadata, pageSchema.NewRecord())
	isErr(t, err, ErrValidation)
	err = rec.TrySet(fMetadata, metaSchema.Tombstone())
	isErr(t, err, ErrValidation)

	isErr(t, panicErr(t, func() { rec.Get(6) }), ErrOutOfRange)
	isErr(t, panicErr(t, func() { rec.GetByName("nope") }), ErrOutOfRange)
	isErr(t, panicErr(t, func() { rec.IsFieldDirty(6) }), ErrOutOfRange)
}

func TestRecord_nullable_fields(t *testing.T) {
	rec := pageSchema.NewRecord()
	eq(t, rec.Get(fURL), nil)
	eq(t, rec.Get(fHeaders), nil)

	rec.Set(fHeaders, map[string]string{"ct": "text/html"})
	h := rec.Get(fHeaders).(*Map[string])
	eq(t, h.Get("ct"), "text/html")

	rec.Set(fHeaders, nil)
	eq(t, rec.Get(fHeaders), nil)
}

func TestRecord_by_name(t *testing.T) {
	rec := pageSchema.NewRecord()
	rec.SetByName("url", "http://n")
	eq(t, rec.GetByName("url").(string), "http://n")
	eq(t, rec.IsFieldDirty(fURL), true)
}

func TestRecord_bound_container_is_adopted(t *testing.T) {
	r1 := NewBuilder(pageSchema).Set(fOutlinks, map[string]string{"a": "1"}).MustBuild()
	r2 := pageSchema.NewRecord()
	m := outlinks(r1)

	r2.Put(fOutlinks, m)
	eq(t, outlinks(r2), m)
	owner, _ := m.Owner()
	eq(t, owner, r1)

	m.Put("b", "2")
	eq(t, r1.IsFieldDirty(fOutlinks), true)
	eq(t, r2.IsFieldDirty(fOutlinks), false)
}

func TestRecord_transfer_rebinds(t *testing.T) {
	r1 := NewBuilder(pageSchema).Set(fOutlinks, map[string]string{"a": "1"}).MustBuild()
	r2 := pageSchema.NewRecord()
	m := outlinks(r1)

	r2.Transfer(fOutlinks, m)
	eq(t, r2.IsFieldDirty(fOutlinks), true)
	r2.MarkClean()

	m.Put("b", "2")
	eq(t, r2.IsFieldDirty(fOutlinks), true)
	eq(t, r1.IsFieldDirty(fOutlinks), false)

	assertPanics(t, func() { r2.Transfer(fURL, m) })
	assertPanics(t, func() { r2.Transfer(fParsedContent, m) })
}

func TestRecord_equal_and_string(t *testing.T) {
	r1 := NewBuilder(pageSchema).Set(fURL, "http://x").Set(fContent, []byte{1, 2}).MustBuild()
	r2 := NewBuilder(pageSchema).Set(fURL, "http://x").Set(fContent, []byte{1, 2}).MustBuild()
	eq(t, r1.Equal(r2), true)

	outlinks(r2).Put("a", "b")
	eq(t, r1.Equal(r2), false)
	eq(t, r1.Equal(pageSchema.Tombstone()), false)

	eq(t, r1.String(), `Page{url: "http://x", content: (2) 0102, parsedContent: [], outlinks: map[], headers: null, metadata: Meta{version: 0, data: map[]}}`)
	eq(t, pageSchema.Tombstone().String(), "Page<tombstone>")
}

func TestContainer_implementations(t *testing.T) {
	var cs = []Container{
		NewList(TString, []string{"a"}),
		NewMap(TLong, map[string]int64{"a": 1}),
	}
	for _, c := range cs {
		rec, idx := c.Owner()
		eq(t, rec, (*Record)(nil))
		eq(t, idx, -1)
		eq(t, c.Len(), 1)
		eq(t, c.IsDirty(), false)
	}

	rec := NewBuilder(pageSchema).Set(fParsedContent, cs[0]).MustBuild()
	owner, idx := cs[0].Owner()
	eq(t, owner, rec)
	eq(t, idx, fParsedContent)
}
