package store

import (
	"context"
	"iter"

	gora "github.com/renato2099/GoraJython"
)

// Query selects a key range. Both bounds are inclusive; a missing bound
// leaves that side open.
type Query[K Key] struct {
	start, end       K
	hasStart, hasEnd bool
	limit            int
}

func NewQuery[K Key]() *Query[K] {
	return &Query[K]{}
}

func (q *Query[K]) SetStartKey(k K) *Query[K] {
	q.start, q.hasStart = k, true
	return q
}

func (q *Query[K]) SetEndKey(k K) *Query[K] {
	q.end, q.hasEnd = k, true
	return q
}

// SetLimit caps the number of rows; zero or negative means no limit.
func (q *Query[K]) SetLimit(n int) *Query[K] {
	q.limit = n
	return q
}

func (q *Query[K]) StartKey() (K, bool) { return q.start, q.hasStart }
func (q *Query[K]) EndKey() (K, bool)   { return q.end, q.hasEnd }
func (q *Query[K]) Limit() int          { return q.limit }

// rawRange returns the encoded bounds, nil meaning open.
func (q *Query[K]) rawRange() keyRange {
	var r keyRange
	if q.hasStart {
		r.lower = encodeKey(q.start)
	}
	if q.hasEnd {
		r.upper = encodeKey(q.end)
	}
	return r
}

// rowSource is what a backend plugs into Result.
type rowSource[K Key] interface {
	next(ctx context.Context) (key K, rec *gora.Record, ok bool, err error)
	close() error
}

// Result is a lazy, forward-only iteration over query rows. Deleted keys
// are returned with the schema's tombstone. Close must be called unless Next
// returned false.
type Result[K Key] struct {
	ctx    context.Context
	src    rowSource[K]
	limit  int
	count  int
	key    K
	rec    *gora.Record
	err    error
	closed bool
}

func newResult[K Key](ctx context.Context, src rowSource[K], limit int) *Result[K] {
	return &Result[K]{ctx: ctx, src: src, limit: limit}
}

func (r *Result[K]) Next() bool {
	if r.closed {
		return false
	}
	if r.limit > 0 && r.count >= r.limit {
		r.Close()
		return false
	}
	if err := r.ctx.Err(); err != nil {
		r.err = err
		r.Close()
		return false
	}
	key, rec, ok, err := r.src.next(r.ctx)
	if err != nil || !ok {
		r.err = err
		r.Close()
		return false
	}
	r.key, r.rec = key, rec
	r.count++
	return true
}

func (r *Result[K]) Key() K               { return r.key }
func (r *Result[K]) Record() *gora.Record { return r.rec }
func (r *Result[K]) Err() error           { return r.err }

// Count is the number of rows returned so far.
func (r *Result[K]) Count() int { return r.count }

func (r *Result[K]) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.src.close()
	if r.err == nil {
		r.err = err
	}
	return err
}

// All iterates the remaining rows and closes the result. Check Err afterwards.
func (r *Result[K]) All() iter.Seq2[K, *gora.Record] {
	return func(yield func(K, *gora.Record) bool) {
		defer r.Close()
		for r.Next() {
			if !yield(r.key, r.rec) {
				return
			}
		}
	}
}

// QueryRange runs an inclusive range query from start to end.
func QueryRange[K Key](ctx context.Context, ds DataStore[K], start, end K) (*Result[K], error) {
	q := ds.NewQuery()
	q.SetStartKey(start)
	q.SetEndKey(end)
	return ds.Execute(ctx, q)
}
