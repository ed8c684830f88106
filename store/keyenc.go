package store

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// Keys are encoded so that bytes.Compare on the encodings agrees with the
// order of the Go values: strings as is, unsigned integers big-endian, signed
// integers big-endian with the sign bit flipped.

func appendKey[K Key](buf []byte, k K) []byte {
	v := reflect.ValueOf(k)
	switch v.Kind() {
	case reflect.String:
		return append(buf, v.String()...)
	case reflect.Int64:
		return binary.BigEndian.AppendUint64(buf, uint64(v.Int())^(1<<63))
	case reflect.Int32:
		return binary.BigEndian.AppendUint32(buf, uint32(int32(v.Int()))^(1<<31))
	case reflect.Uint64:
		return binary.BigEndian.AppendUint64(buf, v.Uint())
	case reflect.Uint32:
		return binary.BigEndian.AppendUint32(buf, uint32(v.Uint()))
	default:
		panic(fmt.Errorf("unsupported key type %T", k))
	}
}

func encodeKey[K Key](k K) []byte {
	return appendKey(nil, k)
}

func decodeKey[K Key](raw []byte) (K, error) {
	var k K
	v := reflect.ValueOf(&k).Elem()
	switch v.Kind() {
	case reflect.String:
		v.SetString(string(raw))
	case reflect.Int64:
		if len(raw) != 8 {
			return k, keySizeErr(raw, 8, k)
		}
		v.SetInt(int64(binary.BigEndian.Uint64(raw) ^ (1 << 63)))
	case reflect.Int32:
		if len(raw) != 4 {
			return k, keySizeErr(raw, 4, k)
		}
		v.SetInt(int64(int32(binary.BigEndian.Uint32(raw) ^ (1 << 31))))
	case reflect.Uint64:
		if len(raw) != 8 {
			return k, keySizeErr(raw, 8, k)
		}
		v.SetUint(binary.BigEndian.Uint64(raw))
	case reflect.Uint32:
		if len(raw) != 4 {
			return k, keySizeErr(raw, 4, k)
		}
		v.SetUint(uint64(binary.BigEndian.Uint32(raw)))
	default:
		panic(fmt.Errorf("unsupported key type %T", k))
	}
	return k, nil
}

func keySizeErr(raw []byte, expected int, k any) error {
	return fmt.Errorf("invalid %T key %x: expected %d bytes, got %d", k, raw, expected, len(raw))
}
