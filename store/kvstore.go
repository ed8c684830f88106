package store

import (
	"context"
	"fmt"
	"log/slog"

	gora "github.com/renato2099/GoraJython"
)

// kvStore keeps each row as a single value in a sorted key-value storage,
// one bucket per schema. It backs both the bolt and the mem backends.
type kvStore[K Key] struct {
	backend Backend
	st      storage
	schema  *gora.Schema
	bucket  string
	logger  *slog.Logger
	verbose bool
}

func openKV[K Key](backend Backend, st storage, schema *gora.Schema, opt Options) (*kvStore[K], error) {
	s := &kvStore[K]{
		backend: backend,
		st:      st,
		schema:  schema,
		bucket:  schema.Name(),
		logger:  opt.logger(),
		verbose: opt.Verbose,
	}
	err := s.update(func(tx storageTx) error {
		_, err := tx.CreateBucket(s.bucket)
		return err
	})
	if err != nil {
		st.Close()
		return nil, storeErrf(backend, schema, "OPEN", nil, err)
	}
	return s, nil
}

func (s *kvStore[K]) Schema() *gora.Schema {
	return s.schema
}

func (s *kvStore[K]) logf(format string, args ...any) {
	s.logger.Info(fmt.Sprintf(format, args...))
}

func (s *kvStore[K]) update(f func(tx storageTx) error) error {
	tx, err := s.st.BeginTx(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *kvStore[K]) view(f func(tx storageTx) error) error {
	tx, err := s.st.BeginTx(false)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}

func (s *kvStore[K]) Get(ctx context.Context, key K) (*gora.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec *gora.Record
	err := s.view(func(tx storageTx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		raw := b.Get(encodeKey(key))
		if raw == nil {
			return nil
		}
		var err error
		rec, err = decodeRow(s.schema, raw)
		return err
	})
	if err != nil {
		return nil, storeErrf(s.backend, s.schema, "GET", key, err)
	}
	if s.verbose {
		if rec == nil {
			s.logf("db: GET.NOTFOUND %s/%v", s.bucket, key)
		} else {
			s.logf("db: GET %s/%v => %v", s.bucket, key, rec)
		}
	}
	return rec, nil
}

// Put merges the changed fields of rec into the stored row. A record with
// no changes is not written if the row already exists.
func (s *kvStore[K]) Put(ctx context.Context, key K, rec *gora.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.IsTombstone() {
		return storeErrf(s.backend, s.schema, "PUT", key, ErrTombstone)
	}
	if rec.Schema() != s.schema {
		return storeErrf(s.backend, s.schema, "PUT", key, fmt.Errorf("%w: got %s", ErrSchemaMismatch, rec.Schema().Name()))
	}

	var noop bool
	var written []int
	err := s.update(func(tx storageTx) error {
		b, err := tx.CreateBucket(s.bucket)
		if err != nil {
			return err
		}
		keyRaw := encodeKey(key)

		c := make(cells)
		written = allFields(s.schema)
		if oldRaw := b.Get(keyRaw); oldRaw != nil {
			var old value
			if err := old.decode(oldRaw); err != nil {
				return err
			}
			if !old.Flags.isTombstone() {
				c, err = decodeCells(old.Data)
				if err != nil {
					return err
				}
				written = changedFields(rec)
				if len(written) == 0 {
					noop = true
					return nil
				}
			}
		}
		c.put(rec, written)
		return b.Put(keyRaw, appendValue(nil, vfDefault, s.schema.FieldCount(), c.encode()))
	})
	if err != nil {
		return storeErrf(s.backend, s.schema, "PUT", key, err)
	}
	if s.verbose {
		if noop {
			s.logf("db: PUT.NOOP %s/%v", s.bucket, key)
		} else {
			s.logf("db: PUT %s/%v fields=%v => %v", s.bucket, key, written, rec)
		}
	}
	rec.MarkClean()
	return nil
}

func (s *kvStore[K]) Delete(ctx context.Context, key K) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.update(func(tx storageTx) error {
		b, err := tx.CreateBucket(s.bucket)
		if err != nil {
			return err
		}
		return b.Put(encodeKey(key), tombstoneValue(s.schema.FieldCount()))
	})
	if err != nil {
		return storeErrf(s.backend, s.schema, "DELETE", key, err)
	}
	if s.verbose {
		s.logf("db: DELETE %s/%v", s.bucket, key)
	}
	return nil
}

func (s *kvStore[K]) NewQuery() *Query[K] {
	return NewQuery[K]()
}

func (s *kvStore[K]) Execute(ctx context.Context, q *Query[K]) (*Result[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, err := s.st.BeginTx(false)
	if err != nil {
		return nil, storeErrf(s.backend, s.schema, "SCAN", nil, err)
	}
	src := &kvRows[K]{store: s, tx: tx}
	if b := tx.Bucket(s.bucket); b != nil {
		src.cur = &rangeCursor{rang: q.rawRange(), bcur: b.Cursor(), logger: s.logger}
	}
	if s.verbose {
		start, _ := q.StartKey()
		end, _ := q.EndKey()
		s.logf("db: SCAN %s [%v..%v] limit=%d", s.bucket, start, end, q.limit)
	}
	return newResult[K](ctx, src, q.limit), nil
}

func (s *kvStore[K]) Truncate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.update(func(tx storageTx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && err != errBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	})
	if err != nil {
		return storeErrf(s.backend, s.schema, "TRUNCATE", nil, err)
	}
	if s.verbose {
		s.logf("db: TRUNCATE %s", s.bucket)
	}
	return nil
}

func (s *kvStore[K]) Close() error {
	return s.st.Close()
}

// kvRows holds a read transaction open until the result is closed.
type kvRows[K Key] struct {
	store *kvStore[K]
	tx    storageTx
	cur   *rangeCursor
}

func (r *kvRows[K]) next(ctx context.Context) (K, *gora.Record, bool, error) {
	var zero K
	if r.cur == nil || !r.cur.Next() {
		return zero, nil, false, nil
	}
	key, err := decodeKey[K](r.cur.Key())
	if err != nil {
		return zero, nil, false, storeErrf(r.store.backend, r.store.schema, "SCAN", hexstr(r.cur.Key()), err)
	}
	rec, err := decodeRow(r.store.schema, r.cur.Value())
	if err != nil {
		return zero, nil, false, storeErrf(r.store.backend, r.store.schema, "SCAN", key, err)
	}
	return key, rec, true, nil
}

func (r *kvRows[K]) close() error {
	return r.tx.Rollback()
}
