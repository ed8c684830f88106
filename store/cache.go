package store

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	gora "github.com/renato2099/GoraJython"
)

type cacheEntry struct {
	raw  []byte
	tomb bool
}

// CachedStore keeps recently read rows of another DataStore in an LRU cache.
// Rows are cached encoded, so every Get returns an independent clean record.
type CachedStore[K Key] struct {
	DataStore[K]
	lru *lru.Cache[K, cacheEntry]

	// gen is bumped by every invalidation. A Get only caches what it read if
	// no invalidation happened since it started reading.
	mu  sync.Mutex
	gen uint64
}

// Cached wraps ds with a read cache holding up to size rows.
func Cached[K Key](ds DataStore[K], size int) *CachedStore[K] {
	c, err := lru.New[K, cacheEntry](size)
	if err != nil {
		panic(err)
	}
	return &CachedStore[K]{DataStore: ds, lru: c}
}

func (s *CachedStore[K]) Get(ctx context.Context, key K) (*gora.Record, error) {
	if e, ok := s.lru.Get(key); ok {
		if e.tomb {
			return s.Schema().Tombstone(), nil
		}
		return gora.UnmarshalRecord(s.Schema(), e.raw)
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	rec, err := s.DataStore.Get(ctx, key)
	if err != nil || rec == nil {
		return rec, err
	}
	e := cacheEntry{tomb: true}
	if !rec.IsTombstone() {
		e = cacheEntry{raw: gora.MarshalRecord(rec)}
	}

	s.mu.Lock()
	if s.gen == gen {
		s.lru.Add(key, e)
	}
	s.mu.Unlock()
	return rec, nil
}

func (s *CachedStore[K]) invalidate(key K) {
	s.mu.Lock()
	s.gen++
	s.lru.Remove(key)
	s.mu.Unlock()
}

func (s *CachedStore[K]) Put(ctx context.Context, key K, rec *gora.Record) error {
	s.invalidate(key)
	err := s.DataStore.Put(ctx, key, rec)
	s.invalidate(key)
	return err
}

func (s *CachedStore[K]) Delete(ctx context.Context, key K) error {
	s.invalidate(key)
	err := s.DataStore.Delete(ctx, key)
	s.invalidate(key)
	return err
}

func (s *CachedStore[K]) Truncate(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	s.lru.Purge()
	s.mu.Unlock()
	err := s.DataStore.Truncate(ctx)
	s.mu.Lock()
	s.gen++
	s.lru.Purge()
	s.mu.Unlock()
	return err
}

func (s *CachedStore[K]) Len() int {
	return s.lru.Len()
}
