package gora

// Container is implemented by List[T] and Map[V], the wrappers that make
// nested collections report their mutations to the owning record.
type Container interface {
	Len() int
	IsDirty() bool
	Kind() ValueKind
	ItemType() *Type

	// Owner returns the record and field index this container reports to.
	Owner() (*Record, int)

	own() *ownership
	eachValue(f func(key string, v any) bool)
	cloneContainer() Container
}

// ownership is the back-reference from a container to the record field it
// lives in. owner is nil until the container is stored in a record.
type ownership struct {
	owner *Record
	index int
	dirty bool
}

func (o *ownership) own() *ownership { return o }

func (o *ownership) IsDirty() bool { return o.dirty }

func (o *ownership) Owner() (*Record, int) {
	if o.owner == nil {
		return nil, -1
	}
	return o.owner, o.index
}

// touch is called by every mutating method before it edits anything. It
// fires on no-op edits too: the dirty bit means a mutating call was made.
func (o *ownership) touch() {
	o.dirty = true
	if o.owner != nil {
		o.owner.dirty.set(o.index)
	}
}

func (o *ownership) bind(rec *Record, index int) {
	o.owner, o.index = rec, index
}

func containersEqual(item *Type, a, b Container) bool {
	if a.Len() != b.Len() || a.Kind() != b.Kind() {
		return false
	}
	if a.Kind() == ValueKindList {
		var av []any
		a.eachValue(func(_ string, v any) bool {
			av = append(av, v)
			return true
		})
		i, eq := 0, true
		b.eachValue(func(_ string, v any) bool {
			eq = item.equal(av[i], v)
			i++
			return eq
		})
		return eq
	}
	am := make(map[string]any, a.Len())
	a.eachValue(func(k string, v any) bool {
		am[k] = v
		return true
	})
	eq := true
	b.eachValue(func(k string, v any) bool {
		av, found := am[k]
		eq = found && item.equal(av, v)
		return eq
	})
	return eq
}

// containerOps binds a container Type to the Go type parameter of its
// List[T] or Map[V], so that untyped code paths (Record.Put, decoding) can
// build and recognize typed containers.
type containerOps interface {
	wrap(v any) (Container, bool)
	check(v any) error
	empty() Container
	fromValues(items []any, keys []string) (Container, error)
}
