package gora

import (
	"fmt"
	"iter"
	"slices"
)

// List is an ordered sequence stored in a record field. Every mutating
// method marks the owning field dirty.
type List[T any] struct {
	ownership
	items []T
	item  *Type
}

// NewList wraps items, taking ownership of the slice. The list reports to no
// record until it is stored in one.
func NewList[T any](item *Type, items []T) *List[T] {
	return &List[T]{items: items, item: item}
}

func (l *List[T]) Kind() ValueKind { return ValueKindList }
func (l *List[T]) ItemType() *Type { return l.item }
func (l *List[T]) Len() int        { return len(l.items) }

func (l *List[T]) Get(i int) T {
	return l.items[i]
}

// Values returns a copy of the items.
func (l *List[T]) Values() []T {
	return slices.Clone(l.items)
}

func (l *List[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range l.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

func (l *List[T]) Append(values ...T) {
	l.touch()
	l.items = append(l.items, values...)
}

func (l *List[T]) Insert(i int, v T) {
	l.touch()
	l.items = slices.Insert(l.items, i, v)
}

func (l *List[T]) Set(i int, v T) {
	l.touch()
	l.items[i] = v
}

func (l *List[T]) Remove(i int) T {
	l.touch()
	v := l.items[i]
	l.items = slices.Delete(l.items, i, i+1)
	return v
}

func (l *List[T]) Clear() {
	l.touch()
	clear(l.items)
	l.items = l.items[:0]
}

// Replace swaps in a new slice of items, taking ownership of it.
func (l *List[T]) Replace(items []T) {
	l.touch()
	l.items = items
}

func (l *List[T]) String() string {
	return fmt.Sprint(l.items)
}

func (l *List[T]) eachValue(f func(key string, v any) bool) {
	for _, v := range l.items {
		if !f("", v) {
			return
		}
	}
}

func (l *List[T]) cloneContainer() Container {
	items := make([]T, len(l.items))
	for i, v := range l.items {
		items[i] = l.item.clone(v).(T)
	}
	return &List[T]{items: items, item: l.item}
}

type listOps[T any] struct {
	item *Type
}

func (o listOps[T]) wrap(v any) (Container, bool) {
	switch v := v.(type) {
	case *List[T]:
		return v, v != nil
	case []T:
		return &List[T]{items: v, item: o.item}, true
	default:
		return nil, false
	}
}

func (o listOps[T]) check(v any) error {
	var items []T
	switch v := v.(type) {
	case *List[T]:
		if v == nil {
			return fmt.Errorf("nil %T", v)
		}
		items = v.items
	case []T:
		items = v
	default:
		return fmt.Errorf("expected array<%s>, got %T", o.item, v)
	}
	for i, item := range items {
		if err := o.item.check(item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func (o listOps[T]) empty() Container {
	return &List[T]{items: []T{}, item: o.item}
}

func (o listOps[T]) fromValues(values []any, _ []string) (Container, error) {
	items := make([]T, len(values))
	for i, v := range values {
		t, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("item %d: expected %s, got %T", i, o.item, v)
		}
		items[i] = t
	}
	return &List[T]{items: items, item: o.item}, nil
}
