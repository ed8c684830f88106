package store

import (
	"fmt"
	"strings"

	gora "github.com/renato2099/GoraJython"
)

type Backend int

const (
	BackendMem Backend = iota + 1
	BackendBolt
	BackendCassandra
)

var backendNames = map[Backend]string{
	BackendMem:       "mem",
	BackendBolt:      "bolt",
	BackendCassandra: "cassandra",
}

func (b Backend) String() string {
	if s, ok := backendNames[b]; ok {
		return s
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

// Backends returns the supported backends.
func Backends() []Backend {
	return []Backend{BackendMem, BackendBolt, BackendCassandra}
}

// ParseBackend resolves a backend name, case-insensitively. There is no
// fallback for unknown names.
func ParseBackend(name string) (Backend, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for b, s := range backendNames {
		if s == lower {
			return b, nil
		}
	}
	return 0, &UnsupportedBackendError{Name: name}
}

// Create opens a store of the named backend for records of schema.
func Create[K Key](name string, schema *gora.Schema, opt Options) (DataStore[K], error) {
	b, err := ParseBackend(name)
	if err != nil {
		return nil, err
	}
	return Open[K](b, schema, opt)
}

func Open[K Key](b Backend, schema *gora.Schema, opt Options) (DataStore[K], error) {
	var ds DataStore[K]
	var err error
	switch b {
	case BackendMem:
		ds, err = openKV[K](BackendMem, newMemStorage(), schema, opt)
	case BackendBolt:
		st, err2 := openBoltStorage(opt)
		if err2 != nil {
			return nil, err2
		}
		ds, err = openKV[K](BackendBolt, st, schema, opt)
	case BackendCassandra:
		ds, err = openCassandra[K](schema, opt)
	default:
		return nil, &UnsupportedBackendError{Name: b.String()}
	}
	if err != nil {
		return nil, err
	}
	if opt.CacheSize > 0 {
		ds = Cached(ds, opt.CacheSize)
	}
	return ds, nil
}
