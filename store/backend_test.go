package store

import (
	"errors"
	"testing"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		name     string
		expected Backend
	}{
		{"mem", BackendMem},
		{"bolt", BackendBolt},
		{"Cassandra", BackendCassandra},
		{" BOLT ", BackendBolt},
	}
	for _, tt := range tests {
		eq(t, must(ParseBackend(tt.name)), tt.expected)
	}
	for _, b := range Backends() {
		eq(t, must(ParseBackend(b.String())), b)
	}
}

func TestParseBackend_unknown(t *testing.T) {
	for _, name := range []string{"hbase", "", "memory"} {
		_, err := ParseBackend(name)
		isErr(t, err, ErrUnsupportedBackend)
		var ube *UnsupportedBackendError
		if !errors.As(err, &ube) {
			t.Fatalf("** got %T, wanted *UnsupportedBackendError", err)
		}
		eq(t, ube.Name, name)
	}
}

func TestCreate_unsupported(t *testing.T) {
	ds, err := Create[int64]("hbase", pageSchema, Options{})
	isErr(t, err, ErrUnsupportedBackend)
	if ds != nil {
		t.Errorf("** got a store %v", ds)
	}
}

func TestCreate_bolt_requires_path(t *testing.T) {
	_, err := Create[string]("bolt", pageSchema, Options{})
	if err == nil {
		t.Fatal("** no error without a path")
	}
}

func TestCreate_cassandra_requires_keyspace(t *testing.T) {
	_, err := Create[string]("cassandra", pageSchema, Options{Cassandra: CassandraParams{Hosts: "127.0.0.1"}})
	if err == nil {
		t.Fatal("** no error without a keyspace")
	}
}

func TestMem_closed(t *testing.T) {
	ds := must(Open[string](BackendMem, pageSchema, Options{}))
	success(t, ds.Close())
	isErr(t, ds.Put(ctx, "k", page("u")), ErrClosed)
}
