package gora

import (
	"errors"
	"reflect"
	"testing"
)

var (
	metaSchema = NewSchema("Meta", func(b *SchemaBuilder) {
		b.Field("version", TInt, Default(int32(0)))
		b.Field("data", MapOf[string](TString))
	})

	pageSchema = NewSchema("Page", func(b *SchemaBuilder) {
		b.Field("url", Nullable(TString))
		b.Field("content", Nullable(TBytes))
		b.Field("parsedContent", ListOf[string](TString))
		b.Field("outlinks", MapOf[string](TString))
		b.Field("headers", Nullable(MapOf[string](TString)))
		b.Field("metadata", RecordOf(metaSchema))
	})
)

const (
	fURL = iota
	fContent
	fParsedContent
	fOutlinks
	fHeaders
	fMetadata
)

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func eq[T comparable](t testing.TB, a, e T) {
	if a != e {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isempty[T any, S ~[]T](t testing.TB, a S) {
	if len(a) > 0 {
		t.Helper()
		t.Errorf("** got %v, wanted empty slice", a)
	}
}

func assertPanics(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	fn()
}

// panicErr runs fn and returns the error it panicked with.
func panicErr(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		e := recover()
		if e == nil {
			t.Fatalf("expected panic")
		}
		var ok bool
		err, ok = e.(error)
		if !ok {
			t.Fatalf("panicked with %T %v, wanted an error", e, e)
		}
	}()
	fn()
	return nil
}

func isErr(t testing.TB, err, target error) {
	if !errors.Is(err, target) {
		t.Helper()
		t.Errorf("** got error %v, wanted %v", err, target)
	}
}

func outlinks(rec *Record) *Map[string] {
	return rec.Get(fOutlinks).(*Map[string])
}

func parsedContent(rec *Record) *List[string] {
	return rec.Get(fParsedContent).(*List[string])
}
