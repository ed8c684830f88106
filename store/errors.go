package store

import (
	"errors"
	"fmt"

	gora "github.com/renato2099/GoraJython"
)

var (
	ErrUnsupportedBackend = errors.New("backend not supported")
	ErrTombstone          = errors.New("cannot put a tombstone, use Delete")
	ErrSchemaMismatch     = errors.New("record schema does not match store")
	ErrClosed             = errors.New("store closed")
)

// UnsupportedBackendError is returned by ParseBackend and Create for names
// outside of the supported set.
type UnsupportedBackendError struct {
	Name string
}

func (e *UnsupportedBackendError) Unwrap() error {
	return ErrUnsupportedBackend
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("%q: %v", e.Name, ErrUnsupportedBackend)
}

// StoreError describes a failed operation on one row.
type StoreError struct {
	Backend Backend
	Schema  string
	Key     any
	Op      string
	Err     error
}

func storeErrf(backend Backend, schema *gora.Schema, op string, key any, err error) error {
	return &StoreError{backend, schema.Name(), key, op, err}
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Error() string {
	if e.Key == nil {
		return fmt.Sprintf("%s: %s %s: %v", e.Backend, e.Op, e.Schema, e.Err)
	}
	return fmt.Sprintf("%s: %s %s/%v: %v", e.Backend, e.Op, e.Schema, e.Key, e.Err)
}
