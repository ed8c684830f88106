package gora

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Map is a string-keyed mapping stored in a record field. Every mutating
// method marks the owning field dirty.
type Map[V any] struct {
	ownership
	items map[string]V
	item  *Type
}

// NewMap wraps items, taking ownership of the map.
func NewMap[V any](item *Type, items map[string]V) *Map[V] {
	if items == nil {
		items = make(map[string]V)
	}
	return &Map[V]{items: items, item: item}
}

func (m *Map[V]) Kind() ValueKind { return ValueKindMap }
func (m *Map[V]) ItemType() *Type { return m.item }
func (m *Map[V]) Len() int        { return len(m.items) }

// Get returns the value for key, or the zero V.
func (m *Map[V]) Get(key string) V {
	return m.items[key]
}

func (m *Map[V]) Lookup(key string) (V, bool) {
	v, ok := m.items[key]
	return v, ok
}

func (m *Map[V]) Has(key string) bool {
	_, ok := m.items[key]
	return ok
}

// Keys returns the keys in sorted order.
func (m *Map[V]) Keys() []string {
	return slices.Sorted(maps.Keys(m.items))
}

// All iterates in key order.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range m.Keys() {
			if !yield(k, m.items[k]) {
				return
			}
		}
	}
}

// Values returns a copy of the underlying map.
func (m *Map[V]) Values() map[string]V {
	return maps.Clone(m.items)
}

func (m *Map[V]) Put(key string, v V) {
	m.touch()
	m.items[key] = v
}

func (m *Map[V]) Delete(key string) bool {
	m.touch()
	_, found := m.items[key]
	delete(m.items, key)
	return found
}

func (m *Map[V]) Clear() {
	m.touch()
	clear(m.items)
}

// Replace swaps in a new underlying map, taking ownership of it.
func (m *Map[V]) Replace(items map[string]V) {
	m.touch()
	if items == nil {
		items = make(map[string]V)
	}
	m.items = items
}

func (m *Map[V]) String() string {
	return fmt.Sprint(m.items)
}

func (m *Map[V]) eachValue(f func(key string, v any) bool) {
	for _, k := range m.Keys() {
		if !f(k, m.items[k]) {
			return
		}
	}
}

func (m *Map[V]) cloneContainer() Container {
	items := make(map[string]V, len(m.items))
	for k, v := range m.items {
		items[k] = m.item.clone(v).(V)
	}
	return &Map[V]{items: items, item: m.item}
}

type mapOps[V any] struct {
	item *Type
}

func (o mapOps[V]) wrap(v any) (Container, bool) {
	switch v := v.(type) {
	case *Map[V]:
		return v, v != nil
	case map[string]V:
		return NewMap(o.item, v), true
	default:
		return nil, false
	}
}

func (o mapOps[V]) check(v any) error {
	var items map[string]V
	switch v := v.(type) {
	case *Map[V]:
		if v == nil {
			return fmt.Errorf("nil %T", v)
		}
		items = v.items
	case map[string]V:
		items = v
	default:
		return fmt.Errorf("expected map<%s>, got %T", o.item, v)
	}
	for k, item := range items {
		if err := o.item.check(item); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
	}
	return nil
}

func (o mapOps[V]) empty() Container {
	return &Map[V]{items: make(map[string]V), item: o.item}
}

func (o mapOps[V]) fromValues(values []any, keys []string) (Container, error) {
	if len(values) != len(keys) {
		panic("len(values) != len(keys)")
	}
	items := make(map[string]V, len(values))
	for i, v := range values {
		t, ok := v.(V)
		if !ok {
			return nil, fmt.Errorf("key %q: expected %s, got %T", keys[i], o.item, v)
		}
		items[keys[i]] = t
	}
	return &Map[V]{items: items, item: o.item}, nil
}
