package store

import (
	"context"
	"testing"

	gora "github.com/renato2099/GoraJython"
)

func TestStore_get_put(t *testing.T) {
	for _, b := range kvBackends {
		t.Run(b.String(), func(t *testing.T) {
			ds := setup[string](t, b)

			rec, err := ds.Get(ctx, "missing")
			success(t, err)
			if rec != nil {
				t.Fatalf("got %v, wanted nil", rec)
			}

			r1 := gora.NewBuilder(pageSchema).
				Set(fURL, "http://x").
				Set(fContent, []byte("<html>")).
				Set(fParsedContent, []string{"a", "b"}).
				Set(fOutlinks, map[string]string{"http://y": "Y"}).
				MustBuild()
			r1.Get(fMetadata).(*gora.Record).Set(0, int32(4))
			success(t, ds.Put(ctx, "x", r1))
			eq(t, r1.IsDirty(), false)

			r2, err := ds.Get(ctx, "x")
			success(t, err)
			eq(t, r2.Equal(r1), true)
			eq(t, r2.IsDirty(), false)
			eq(t, r2.Get(fMetadata).(*gora.Record).Get(0).(int32), int32(4))
		})
	}
}

func TestStore_partial_write_merges_dirty_fields(t *testing.T) {
	for _, b := range kvBackends {
		t.Run(b.String(), func(t *testing.T) {
			ds := setup[string](t, b)
			success(t, ds.Put(ctx, "k", gora.NewBuilder(pageSchema).
				Set(fURL, "http://old").
				Set(fOutlinks, map[string]string{"a": "1"}).
				MustBuild()))

			// A record that never saw the stored outlinks, with only url set.
			partial := pageSchema.NewRecord()
			partial.Set(fURL, "http://new")
			success(t, ds.Put(ctx, "k", partial))

			rec := must(ds.Get(ctx, "k"))
			eq(t, rec.Get(fURL).(string), "http://new")
			deepEqual(t, rec.Get(fOutlinks).(*gora.Map[string]).Values(), map[string]string{"a": "1"})

			// Container mutations are written too.
			rec.Get(fOutlinks).(*gora.Map[string]).Put("b", "2")
			success(t, ds.Put(ctx, "k", rec))
			rec = must(ds.Get(ctx, "k"))
			eq(t, rec.Get(fOutlinks).(*gora.Map[string]).Len(), 2)
			eq(t, rec.Get(fURL).(string), "http://new")

			// So are edits of nested records.
			rec.Get(fMetadata).(*gora.Record).Set(0, int32(9))
			success(t, ds.Put(ctx, "k", rec))
			rec = must(ds.Get(ctx, "k"))
			eq(t, rec.Get(fMetadata).(*gora.Record).Get(0).(int32), int32(9))
		})
	}
}

func TestStore_clean_record_is_noop(t *testing.T) {
	for _, b := range kvBackends {
		t.Run(b.String(), func(t *testing.T) {
			ds := setup[string](t, b)
			success(t, ds.Put(ctx, "k", page("http://x")))

			// A clean record for an existing row writes nothing.
			success(t, ds.Put(ctx, "k", page("http://other")))
			eq(t, must(ds.Get(ctx, "k")).Get(fURL).(string), "http://x")

			// A clean record for a new row writes every field.
			success(t, ds.Put(ctx, "k2", page("http://new")))
			eq(t, must(ds.Get(ctx, "k2")).Get(fURL).(string), "http://new")
		})
	}
}

func TestStore_delete_yields_tombstone(t *testing.T) {
	for _, b := range kvBackends {
		t.Run(b.String(), func(t *testing.T) {
			ds := setup[string](t, b)
			success(t, ds.Put(ctx, "k", page("http://x")))
			success(t, ds.Delete(ctx, "k"))

			rec := must(ds.Get(ctx, "k"))
			eq(t, rec, pageSchema.Tombstone())
			eq(t, rec.IsTombstone(), true)

			isErr(t, ds.Put(ctx, "k", rec), ErrTombstone)

			// Writing after a delete stores the whole record.
			success(t, ds.Put(ctx, "k", page("http://again")))
			rec = must(ds.Get(ctx, "k"))
			eq(t, rec.IsTombstone(), false)
			eq(t, rec.Get(fURL).(string), "http://again")
		})
	}
}

func TestStore_schema_mismatch(t *testing.T) {
	ds := setup[string](t, BackendMem)
	isErr(t, ds.Put(ctx, "k", metaSchema.NewRecord()), ErrSchemaMismatch)
}

func TestStore_range_query_is_inclusive(t *testing.T) {
	for _, b := range kvBackends {
		t.Run(b.String(), func(t *testing.T) {
			ds := setup[int64](t, b)
			for _, k := range []int64{-5, 1, 2, 3, 10, 20} {
				success(t, ds.Put(ctx, k, page("u")))
			}
			success(t, ds.Delete(ctx, 3))

			res := must(QueryRange(ctx, ds, 1, 10))
			deepEqual(t, collect(t, res), []int64{1, 2, 3, 10})

			res = must(QueryRange(ctx, ds, -10, 2))
			deepEqual(t, collect(t, res), []int64{-5, 1, 2})

			res = must(QueryRange(ctx, ds, 11, 19))
			eq(t, len(collect(t, res)), 0)

			res = must(QueryRange(ctx, ds, 10, 1))
			eq(t, len(collect(t, res)), 0)

			res = must(ds.Execute(ctx, ds.NewQuery().SetStartKey(2).SetLimit(2)))
			deepEqual(t, collect(t, res), []int64{2, 3})

			res = must(ds.Execute(ctx, ds.NewQuery().SetEndKey(1)))
			deepEqual(t, collect(t, res), []int64{-5, 1})

			res = must(QueryRange(ctx, ds, 3, 3))
			if !res.Next() {
				t.Fatalf("no row for deleted key")
			}
			eq(t, res.Key(), 3)
			eq(t, res.Record().IsTombstone(), true)
			eq(t, res.Next(), false)
			success(t, res.Err())
		})
	}
}

func TestStore_string_keys_order(t *testing.T) {
	ds := setup[string](t, BackendMem)
	for _, k := range []string{"b", "a", "ab", "c"} {
		success(t, ds.Put(ctx, k, page(k)))
	}
	res := must(QueryRange(ctx, ds, "a", "b"))
	var urls []string
	for k, rec := range res.All() {
		eq(t, rec.Get(fURL).(string), k)
		urls = append(urls, k)
	}
	deepEqual(t, urls, []string{"a", "ab", "b"})
}

func TestStore_truncate(t *testing.T) {
	for _, b := range kvBackends {
		t.Run(b.String(), func(t *testing.T) {
			ds := setup[uint32](t, b)
			success(t, ds.Put(ctx, 1, page("u")))
			success(t, ds.Truncate(ctx))
			rec := must(ds.Get(ctx, 1))
			if rec != nil {
				t.Fatalf("got %v after truncate", rec)
			}
		})
	}
}

func TestStore_canceled_context(t *testing.T) {
	ds := setup[string](t, BackendMem)
	c, cancel := context.WithCancel(ctx)
	cancel()
	isErr(t, ds.Put(c, "k", page("u")), context.Canceled)
	_, err := ds.Get(c, "k")
	isErr(t, err, context.Canceled)
}

func TestStore_bolt_reopen(t *testing.T) {
	path := t.TempDir() + "/reopen.db"
	opt := Options{IsTesting: true, Path: path}

	ds := must(Create[string]("bolt", pageSchema, opt))
	success(t, ds.Put(ctx, "k", page("http://persisted")))
	success(t, ds.Close())

	ds = must(Create[string]("bolt", pageSchema, opt))
	defer ds.Close()
	eq(t, must(ds.Get(ctx, "k")).Get(fURL).(string), "http://persisted")
}
