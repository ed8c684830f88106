/*
Package gora implements the in-memory record model used by the persistence
layer in the store package. Records are described by a Schema and track, per
field, whether the field was changed since the record was built or loaded, so
that a backend only writes back what actually changed.

We implement:

1. Schemas, an ordered table of field descriptors (index, name, type,
default). Indices are dense and follow declaration order.

2. Records, one value slot per schema field plus a dirty bitset. Indexed
Get/Put are meant for generic (de)serialization code and never touch the
dirty bits; Set marks the field dirty.

3. Mutation-tracking containers, List[T] and Map[V]. A list or map stored in a
record field is always wrapped in one of them; any mutating call marks the
owning field dirty, reads never do.

4. Builders, which resolve unset fields to schema defaults and produce clean
records. A builder can be seeded from an existing record or builder, in which
case every value is deep-copied.

5. Tombstones, one shared read-only record per schema that stands for "this
key was deleted". Every field accessor on a tombstone fails.

# Technical Details

**Dirty bits vs. explicitly-set bits.**
A record's dirty bit means "differs from what the backend has". A builder's
set bit means "do not use the default". A freshly built record is always
clean, no matter how many fields were set on the builder.

**Container ownership.**
A container remembers the record and field index it was first stored in.
Storing a container that already has an owner does not rebind it; use
Record.Transfer to move a container to another record explicitly.

**Errors.**
Contract violations (bad index, wrong value type, touching a tombstone) panic
with a typed error. Try* variants return the same error instead.

**Encoding.**
Field values are encoded with msgpack, driven by the field type. A whole
record is a msgpack map keyed by field name, so readers skip unknown fields
and fill missing ones with defaults.
*/
package gora
