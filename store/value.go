package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"maps"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	gora "github.com/renato2099/GoraJython"
)

type valueFlags uint64

const (
	vfVerBit0 = valueFlags(1 << iota)
	vfVerBit1
	vfVerBit2
	vfVerBit3
	vfTombstone

	vfVerMask       = (vfVerBit0 | vfVerBit1 | vfVerBit2 | vfVerBit3)
	vfVer1          = vfVerBit0
	vfSupportedMask = (vfVer1 | vfTombstone)
	vfDefault       = vfVer1

	minValueSize  = 1 + 1 + 8 + 1
	maxFieldCount = 65536 // sanity value
	checksumSize  = 8
)

func (vf valueFlags) ver() valueFlags {
	return vf & vfVerMask
}

func (vf valueFlags) isTombstone() bool {
	return vf&vfTombstone != 0
}

// value is a stored row: a header followed by the row data. Data is a msgpack
// map from field name to the field's encoded value (a "cell"), so that a
// partial write can replace individual cells.
//
//	uvarint flags | uvarint field count | xxhash64(data) | uvarint len(data) | data
type value struct {
	Flags      valueFlags
	FieldCount uint64
	Data       []byte
}

func appendValue(buf []byte, flags valueFlags, fieldCount int, data []byte) []byte {
	if (flags &^ vfSupportedMask) != 0 {
		panic(fmt.Errorf("invalid flags %x", flags))
	}
	buf = binary.AppendUvarint(buf, uint64(flags))
	buf = binary.AppendUvarint(buf, uint64(fieldCount))
	buf = binary.BigEndian.AppendUint64(buf, xxhash.Sum64(data))
	buf = binary.AppendUvarint(buf, uint64(len(data)))
	return append(buf, data...)
}

func tombstoneValue(fieldCount int) []byte {
	return appendValue(nil, vfDefault|vfTombstone, fieldCount, nil)
}

func (vle *value) decode(data []byte) error {
	orig := data
	if len(data) < minValueSize {
		return dataErrf(orig, 0, nil, "invalid value: at least %d bytes required", minValueSize)
	}

	v, n := binary.Uvarint(data)
	if n <= 0 {
		return dataErrf(orig, len(orig)-len(data), nil, "invalid value: bad flags")
	}
	if (v &^ uint64(vfSupportedMask)) != 0 {
		return dataErrf(orig, len(orig)-len(data), nil, "invalid value: unsupported flags %x", v)
	}
	vle.Flags, data = valueFlags(v), data[n:]
	if vle.Flags.ver() != vfVer1 {
		return dataErrf(orig, 0, nil, "invalid value: unsupported version %d", vle.Flags.ver())
	}

	v, n = binary.Uvarint(data)
	if n <= 0 || v > maxFieldCount {
		return dataErrf(orig, len(orig)-len(data), nil, "invalid value: bad field count")
	}
	vle.FieldCount, data = v, data[n:]

	if len(data) < checksumSize {
		return dataErrf(orig, len(orig)-len(data), nil, "invalid value: truncated checksum")
	}
	sum, data := binary.BigEndian.Uint64(data), data[checksumSize:]

	dataSize, n := binary.Uvarint(data)
	if n <= 0 {
		return dataErrf(orig, len(orig)-len(data), nil, "invalid value: bad data size")
	}
	data = data[n:]
	if uint64(len(data)) != dataSize {
		return dataErrf(orig, len(orig)-len(data), nil, "invalid value: got %d bytes of data, expected %d bytes", len(data), dataSize)
	}
	if actual := xxhash.Sum64(data); actual != sum {
		return dataErrf(orig, len(orig)-len(data), nil, "invalid value: checksum mismatch (%016x != %016x)", actual, sum)
	}
	vle.Data = data
	return nil
}

// cells maps field names to msgpack-encoded field values.
type cells map[string][]byte

func (c cells) put(rec *gora.Record, fields []int) {
	schema := rec.Schema()
	for _, i := range fields {
		f := schema.Field(i)
		c[f.Name()] = gora.AppendValue(nil, f.Type(), rec.Get(i))
	}
}

func (c cells) encode() []byte {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.ResetDict(&buf, nil)
	defer msgpack.PutEncoder(enc)

	ensure(enc.EncodeMapLen(len(c)))
	for _, name := range slices.Sorted(maps.Keys(c)) {
		ensure(enc.EncodeString(name))
		ensure(enc.EncodeBytes(c[name]))
	}
	return buf.Bytes()
}

func decodeCells(data []byte) (cells, error) {
	result := make(cells)
	if len(data) == 0 {
		return result, nil
	}
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.ResetDict(&r, nil)
	defer msgpack.PutDecoder(dec)

	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, dataErrf(data, 0, err, "invalid row data")
	}
	for range n {
		name, err := dec.DecodeString()
		if err != nil {
			return nil, dataErrf(data, len(data)-r.Len(), err, "invalid row data")
		}
		raw, err := dec.DecodeBytes()
		if err != nil {
			return nil, dataErrf(data, len(data)-r.Len(), err, "invalid cell %s", name)
		}
		result[name] = raw
	}
	return result, nil
}

// record decodes the cells into a clean record. Cells of unknown fields are
// ignored, fields without a cell take their defaults.
func (c cells) record(schema *gora.Schema) (*gora.Record, error) {
	rec := schema.NewRecord()
	for name, raw := range c {
		f := schema.FieldNamed(name)
		if f == nil {
			continue
		}
		v, err := gora.DecodeValue(raw, f.Type())
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", schema.Name(), name, err)
		}
		if err := rec.TryPut(f.Index(), v); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// decodeRow turns a stored value into a record or the schema's tombstone.
func decodeRow(schema *gora.Schema, raw []byte) (*gora.Record, error) {
	var vle value
	if err := vle.decode(raw); err != nil {
		return nil, err
	}
	if vle.Flags.isTombstone() {
		return schema.Tombstone(), nil
	}
	c, err := decodeCells(vle.Data)
	if err != nil {
		return nil, err
	}
	return c.record(schema)
}
