package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	gora "github.com/renato2099/GoraJython"
)

var (
	metaSchema = gora.NewSchema("Meta", func(b *gora.SchemaBuilder) {
		b.Field("version", gora.TInt)
		b.Field("data", gora.MapOf[string](gora.TString))
	})

	pageSchema = gora.NewSchema("Page", func(b *gora.SchemaBuilder) {
		b.Field("url", gora.Nullable(gora.TString))
		b.Field("content", gora.Nullable(gora.TBytes))
		b.Field("parsedContent", gora.ListOf[string](gora.TString))
		b.Field("outlinks", gora.MapOf[string](gora.TString))
		b.Field("headers", gora.Nullable(gora.MapOf[string](gora.TString)))
		b.Field("metadata", gora.RecordOf(metaSchema))
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

// kvBackends lists backends that run without external services.
var kvBackends = []Backend{BackendMem, BackendBolt}

func setup[K Key](t testing.TB, b Backend) DataStore[K] {
	t.Helper()
	opt := Options{IsTesting: true, Verbose: testing.Verbose()}
	if b == BackendBolt {
		opt.Path = filepath.Join(t.TempDir(), "store_test.db")
	}
	ds := must(Open[K](b, pageSchema, opt))
	t.Cleanup(func() { ds.Close() })
	return ds
}

func page(url string) *gora.Record {
	return gora.NewBuilder(pageSchema).Set(fURL, url).MustBuild()
}

func collect[K Key](t testing.TB, res *Result[K]) []K {
	t.Helper()
	var keys []K
	for k := range res.All() {
		keys = append(keys, k)
	}
	if err := res.Err(); err != nil {
		t.Fatal(err)
	}
	return keys
}

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

func isErr(t testing.TB, err, target error) {
	if !errors.Is(err, target) {
		t.Helper()
		t.Errorf("** got error %v, wanted %v", err, target)
	}
}

func success(t testing.TB, err error) {
	if err != nil {
		t.Helper()
		t.Fatalf("** %v", err)
	}
}

var ctx = context.Background()

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
