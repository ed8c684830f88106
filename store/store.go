package store

import (
	"context"
	"log/slog"

	gora "github.com/renato2099/GoraJython"
)

// Key is the set of Go types usable as record keys. All backends order keys
// the way the underlying Go values order.
type Key interface {
	~string | ~int64 | ~uint64 | ~int32 | ~uint32
}

// DataStore persists records of one schema under keys of type K.
//
// Get returns nil when the key has never been written and the schema's
// tombstone when it was deleted. Put writes only the fields that changed
// since the record was loaded (or all of them for a new key), then marks the
// record clean. Implementations are safe for concurrent use.
type DataStore[K Key] interface {
	Schema() *gora.Schema
	Get(ctx context.Context, key K) (*gora.Record, error)
	Put(ctx context.Context, key K, rec *gora.Record) error
	Delete(ctx context.Context, key K) error
	NewQuery() *Query[K]
	Execute(ctx context.Context, q *Query[K]) (*Result[K], error)

	// Truncate removes every row.
	Truncate(ctx context.Context) error
	Close() error
}

type Options struct {
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool

	// Path is the database file of the bolt backend.
	Path string

	// Cassandra configures the cassandra backend.
	Cassandra CassandraParams

	// CacheSize wraps the store returned by Create into Cached when positive.
	CacheSize int
}

func (opt *Options) logger() *slog.Logger {
	if opt.Logger == nil {
		return slog.Default()
	}
	return opt.Logger
}

// changedFields lists the fields Put has to write for a row that already
// exists: dirty fields plus fields holding a dirty nested record.
func changedFields(rec *gora.Record) []int {
	result := rec.DirtyFields()
	for i := range rec.Schema().FieldCount() {
		if rec.IsFieldDirty(i) {
			continue
		}
		if nested, ok := rec.Get(i).(*gora.Record); ok && nested != nil && nested.IsDirty() {
			result = append(result, i)
		}
	}
	return result
}

func allFields(schema *gora.Schema) []int {
	result := make([]int, schema.FieldCount())
	for i := range result {
		result[i] = i
	}
	return result
}
