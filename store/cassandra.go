package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gocql/gocql"

	gora "github.com/renato2099/GoraJython"
)

type CassandraParams struct {
	// Comma separated list of hosts
	Hosts        string
	Port         int
	Username     string
	Pwd          string
	ProtoVersion int
	CQLVersion   string
	NumRetries   int
	DC           string
	Timeout      time.Duration

	// Consistency is a gocql consistency name such as "QUORUM" or "ONE".
	// Defaults to QUORUM.
	Consistency string

	Keyspace string

	// e.g. "{ 'class' : 'SimpleStrategy', 'replication_factor' : 1 }". When
	// set, the keyspace is created if it does not exist.
	KeyspaceWithReplication string

	// Table defaults to the lowercased schema name.
	Table string
}

func (p CassandraParams) cqlVersion() string {
	if p.CQLVersion == "" {
		return "3.0.0"
	}
	return p.CQLVersion
}

func (p CassandraParams) consistency() (gocql.Consistency, error) {
	if p.Consistency == "" {
		return gocql.Quorum, nil
	}
	return gocql.ParseConsistencyWrapper(p.Consistency)
}

func (p CassandraParams) table(schema *gora.Schema) string {
	if p.Table != "" {
		return p.Table
	}
	return strings.ToLower(schema.Name())
}

func newCluster(p CassandraParams) (*gocql.ClusterConfig, error) {
	if p.Hosts == "" {
		return nil, errors.New("cassandra: Hosts is required")
	}
	consistency, err := p.consistency()
	if err != nil {
		return nil, fmt.Errorf("cassandra: %w", err)
	}
	var hosts []string
	for _, h := range strings.Split(p.Hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	cluster := gocql.NewCluster(hosts...)
	if p.Port > 0 {
		cluster.Port = p.Port
	}
	cluster.Consistency = consistency
	cluster.CQLVersion = p.cqlVersion()
	if p.ProtoVersion > 0 {
		cluster.ProtoVersion = p.ProtoVersion
	}
	if p.Timeout > 0 {
		cluster.Timeout = p.Timeout
		cluster.ConnectTimeout = p.Timeout
	}
	if p.NumRetries > 0 {
		cluster.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: p.NumRetries}
	}
	if p.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{Username: p.Username, Password: p.Pwd}
	}
	if p.DC != "" {
		cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.DCAwareRoundRobinPolicy(p.DC))
	}
	return cluster, nil
}

// casStore keeps one row per key in a table with a blob column per field:
//
//	(p int, k blob, deleted boolean, <field> blob..., PRIMARY KEY ((p), k))
//
// All rows live in partition 0, so that k, the encoded key, orders range
// queries. A null field column means the field takes its default.
type casStore[K Key] struct {
	session *gocql.Session
	schema  *gora.Schema
	stmts   casStatements
	logger  *slog.Logger
	verbose bool
}

func openCassandra[K Key](schema *gora.Schema, opt Options) (*casStore[K], error) {
	p := opt.Cassandra
	if p.Keyspace == "" {
		return nil, errors.New("cassandra: Keyspace is required")
	}
	cluster, err := newCluster(p)
	if err != nil {
		return nil, err
	}
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("cassandra: %w", err)
	}
	s := &casStore[K]{
		session: session,
		schema:  schema,
		stmts:   newCasStatements(p.Keyspace, p.table(schema), schema),
		logger:  opt.logger(),
		verbose: opt.Verbose,
	}
	if p.KeyspaceWithReplication != "" {
		stmt := fmt.Sprintf("CREATE KEYSPACE IF NOT EXISTS %s WITH REPLICATION = %s", p.Keyspace, p.KeyspaceWithReplication)
		if err := session.Query(stmt).Exec(); err != nil {
			session.Close()
			return nil, storeErrf(BackendCassandra, schema, "OPEN", nil, err)
		}
	}
	if err := session.Query(s.stmts.createTable).Exec(); err != nil {
		session.Close()
		return nil, storeErrf(BackendCassandra, schema, "OPEN", nil, err)
	}
	return s, nil
}

func (s *casStore[K]) Schema() *gora.Schema {
	return s.schema
}

func (s *casStore[K]) logf(format string, args ...any) {
	s.logger.Info(fmt.Sprintf(format, args...))
}

func (s *casStore[K]) Get(ctx context.Context, key K) (*gora.Record, error) {
	dest, cols := s.stmts.scanDest(false)
	var deleted bool
	dest[0] = &deleted
	err := s.session.Query(s.stmts.selectRow, encodeKey(key)).WithContext(ctx).Scan(dest...)
	if err == gocql.ErrNotFound {
		if s.verbose {
			s.logf("db: GET.NOTFOUND %s/%v", s.stmts.table, key)
		}
		return nil, nil
	}
	if err != nil {
		return nil, storeErrf(BackendCassandra, s.schema, "GET", key, err)
	}
	rec, err := s.decodeRow(deleted, cols)
	if err != nil {
		return nil, storeErrf(BackendCassandra, s.schema, "GET", key, err)
	}
	if s.verbose {
		s.logf("db: GET %s/%v => %v", s.stmts.table, key, rec)
	}
	return rec, nil
}

func (s *casStore[K]) decodeRow(deleted bool, cols [][]byte) (*gora.Record, error) {
	if deleted {
		return s.schema.Tombstone(), nil
	}
	rec := s.schema.NewRecord()
	for i, raw := range cols {
		if raw == nil {
			continue
		}
		f := s.schema.Field(i)
		v, err := gora.DecodeValue(raw, f.Type())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name(), err)
		}
		if err := rec.TryPut(i, v); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Put updates the changed columns of a live row, or every column of a new
// or deleted row.
func (s *casStore[K]) Put(ctx context.Context, key K, rec *gora.Record) error {
	if rec.IsTombstone() {
		return storeErrf(BackendCassandra, s.schema, "PUT", key, ErrTombstone)
	}
	if rec.Schema() != s.schema {
		return storeErrf(BackendCassandra, s.schema, "PUT", key, fmt.Errorf("%w: got %s", ErrSchemaMismatch, rec.Schema().Name()))
	}
	keyRaw := encodeKey(key)

	fields := allFields(s.schema)
	var deleted bool
	err := s.session.Query(s.stmts.selectDeleted, keyRaw).WithContext(ctx).Scan(&deleted)
	switch {
	case err == gocql.ErrNotFound:
	case err != nil:
		return storeErrf(BackendCassandra, s.schema, "PUT", key, err)
	case !deleted:
		fields = changedFields(rec)
	}
	if len(fields) == 0 {
		if s.verbose {
			s.logf("db: PUT.NOOP %s/%v", s.stmts.table, key)
		}
		return nil
	}

	args := make([]any, 0, len(fields)+1)
	for _, i := range fields {
		args = append(args, gora.AppendValue(nil, s.schema.Field(i).Type(), rec.Get(i)))
	}
	args = append(args, keyRaw)
	if err := s.session.Query(s.stmts.update(fields), args...).WithContext(ctx).Exec(); err != nil {
		return storeErrf(BackendCassandra, s.schema, "PUT", key, err)
	}
	if s.verbose {
		s.logf("db: PUT %s/%v fields=%v => %v", s.stmts.table, key, fields, rec)
	}
	rec.MarkClean()
	return nil
}

func (s *casStore[K]) Delete(ctx context.Context, key K) error {
	if err := s.session.Query(s.stmts.deleteRow, encodeKey(key)).WithContext(ctx).Exec(); err != nil {
		return storeErrf(BackendCassandra, s.schema, "DELETE", key, err)
	}
	if s.verbose {
		s.logf("db: DELETE %s/%v", s.stmts.table, key)
	}
	return nil
}

func (s *casStore[K]) NewQuery() *Query[K] {
	return NewQuery[K]()
}

func (s *casStore[K]) Execute(ctx context.Context, q *Query[K]) (*Result[K], error) {
	var args []any
	start, hasStart := q.StartKey()
	if hasStart {
		args = append(args, encodeKey(start))
	}
	end, hasEnd := q.EndKey()
	if hasEnd {
		args = append(args, encodeKey(end))
	}
	stmt := s.stmts.scan(hasStart, hasEnd, q.Limit())
	if s.verbose {
		s.logf("db: SCAN %s [%v..%v] limit=%d", s.stmts.table, start, end, q.Limit())
	}
	it := s.session.Query(stmt, args...).WithContext(ctx).Iter()
	return newResult[K](ctx, &casRows[K]{store: s, it: it}, q.Limit()), nil
}

func (s *casStore[K]) Truncate(ctx context.Context) error {
	if err := s.session.Query(s.stmts.truncate).WithContext(ctx).Exec(); err != nil {
		return storeErrf(BackendCassandra, s.schema, "TRUNCATE", nil, err)
	}
	return nil
}

func (s *casStore[K]) Close() error {
	s.session.Close()
	return nil
}

type casRows[K Key] struct {
	store *casStore[K]
	it    *gocql.Iter
}

func (r *casRows[K]) next(ctx context.Context) (K, *gora.Record, bool, error) {
	var zero K
	dest, cols := r.store.stmts.scanDest(true)
	var keyRaw []byte
	var deleted bool
	dest[0], dest[1] = &keyRaw, &deleted
	if !r.it.Scan(dest...) {
		return zero, nil, false, nil
	}
	key, err := decodeKey[K](keyRaw)
	if err != nil {
		return zero, nil, false, storeErrf(BackendCassandra, r.store.schema, "SCAN", hexstr(keyRaw), err)
	}
	rec, err := r.store.decodeRow(deleted, cols)
	if err != nil {
		return zero, nil, false, storeErrf(BackendCassandra, r.store.schema, "SCAN", key, err)
	}
	return key, rec, true, nil
}

func (r *casRows[K]) close() error {
	return r.it.Close()
}

// casStatements holds the CQL of one schema's table.
type casStatements struct {
	table         string
	columns       []string
	createTable   string
	selectRow     string
	selectDeleted string
	deleteRow     string
	truncate      string
}

func newCasStatements(keyspace, table string, schema *gora.Schema) casStatements {
	st := casStatements{table: keyspace + "." + table}
	for _, name := range schema.FieldNames() {
		st.columns = append(st.columns, quoteIdent(name))
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "CREATE TABLE IF NOT EXISTS %s (p int, k blob, deleted boolean", st.table)
	for _, c := range st.columns {
		fmt.Fprintf(&buf, ", %s blob", c)
	}
	buf.WriteString(", PRIMARY KEY ((p), k))")
	st.createTable = buf.String()

	st.selectRow = fmt.Sprintf("SELECT deleted, %s FROM %s WHERE p = 0 AND k = ?", strings.Join(st.columns, ", "), st.table)
	st.selectDeleted = fmt.Sprintf("SELECT deleted FROM %s WHERE p = 0 AND k = ?", st.table)

	buf.Reset()
	fmt.Fprintf(&buf, "UPDATE %s SET deleted = true", st.table)
	for _, c := range st.columns {
		fmt.Fprintf(&buf, ", %s = null", c)
	}
	buf.WriteString(" WHERE p = 0 AND k = ?")
	st.deleteRow = buf.String()

	st.truncate = "TRUNCATE " + st.table
	return st
}

func (st *casStatements) update(fields []int) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "UPDATE %s SET deleted = false", st.table)
	for _, i := range fields {
		fmt.Fprintf(&buf, ", %s = ?", st.columns[i])
	}
	buf.WriteString(" WHERE p = 0 AND k = ?")
	return buf.String()
}

func (st *casStatements) scan(hasStart, hasEnd bool, limit int) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "SELECT k, deleted, %s FROM %s WHERE p = 0", strings.Join(st.columns, ", "), st.table)
	if hasStart {
		buf.WriteString(" AND k >= ?")
	}
	if hasEnd {
		buf.WriteString(" AND k <= ?")
	}
	if limit > 0 {
		fmt.Fprintf(&buf, " LIMIT %d", limit)
	}
	return buf.String()
}

// scanDest returns Scan destinations for the field columns, leaving room
// for the key and deleted columns in front.
func (st *casStatements) scanDest(withKey bool) ([]any, [][]byte) {
	lead := 1
	if withKey {
		lead = 2
	}
	cols := make([][]byte, len(st.columns))
	dest := make([]any, lead+len(cols))
	for i := range cols {
		dest[lead+i] = &cols[i]
	}
	return dest, cols
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
