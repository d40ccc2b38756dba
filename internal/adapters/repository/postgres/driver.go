// Package postgres provides a gateway.Store backed by PostgreSQL through a
// bounded pgxpool connection pool. SQL is generated from the collection
// schemas; every operation is a single statement, so each call is atomic
// on its own implicit transaction.
package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"plinth/internal/domain/schema"
	"plinth/internal/gateway"
	"plinth/pkg/metrics"
)

const defaultAcquireTimeout = 5 * time.Second

// Accepts reports whether url looks like a PostgreSQL connection string.
func Accepts(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// Store implements gateway.Store against PostgreSQL.
type Store struct {
	pool           *pgxpool.Pool
	collections    map[string]schema.Collection
	maxConns       int32
	acquireTimeout time.Duration
}

var _ gateway.Store = (*Store)(nil)

// Connect parses url, applies options and opens the pool. The pool is the
// only shared resource between concurrent requests; acquisition inside each
// operation is bounded by the configured acquire timeout.
func Connect(ctx context.Context, url string, opts ...Option) (*Store, error) {
	const op = "postgres.connect"

	s := &Store{
		collections:    make(map[string]schema.Collection),
		acquireTimeout: defaultAcquireTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, gateway.WrapKind(op, gateway.ErrValidation, err)
	}
	if s.maxConns > 0 {
		cfg.MaxConns = s.maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, gateway.WrapKind(op, gateway.ErrTransient, err)
	}
	s.pool = pool
	return s, nil
}

// Migrate creates missing tables and indexes for every known collection.
func (s *Store) Migrate(ctx context.Context) error {
	const op = "postgres.migrate"
	for _, c := range s.collections {
		stmts := append([]string{c.CreateTableSQL()}, c.CreateIndexSQL()...)
		for _, stmt := range stmts {
			if _, err := s.pool.Exec(ctx, stmt); err != nil {
				return translate(op, err)
			}
		}
	}
	return nil
}

// opCtx bounds one operation, including pool acquisition.
func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.acquireTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.acquireTimeout)
}

func (s *Store) collection(op, name string) (schema.Collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return schema.Collection{}, gateway.WrapKind(op, gateway.ErrValidation,
			fmt.Errorf("unknown collection %q", name))
	}
	return c, nil
}

func (s *Store) Find(ctx context.Context, collection, key string) (gateway.Record, error) {
	const op = "postgres.find"
	defer observe(op, collection, time.Now())

	c, err := s.collection(op, collection)
	if err != nil {
		return gateway.Record{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		selectList(c), schema.QuoteIdent(c.Name), schema.QuoteIdent(c.Key))
	rec, err := scanRecord(c, s.pool.QueryRow(ctx, sql, key))
	if err != nil {
		return gateway.Record{}, translate(op, err)
	}
	return rec, nil
}

func (s *Store) Insert(ctx context.Context, collection string, rec gateway.Record) error {
	const op = "postgres.insert"
	defer observe(op, collection, time.Now())

	c, err := s.collection(op, collection)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cols := []string{schema.QuoteIdent(c.Key)}
	args := []any{rec.Key}
	placeholders := []string{"$1"}
	for _, col := range c.Columns {
		val, ok := rec.Fields[col.Name]
		if !ok {
			continue
		}
		bound, err := bindValue(col, val)
		if err != nil {
			return gateway.WrapKind(op, gateway.ErrValidation, err)
		}
		args = append(args, bound)
		cols = append(cols, schema.QuoteIdent(col.Name))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		schema.QuoteIdent(c.Name), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return translate(op, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, key string, patch map[string]any) (gateway.Record, error) {
	const op = "postgres.update"
	defer observe(op, collection, time.Now())

	c, err := s.collection(op, collection)
	if err != nil {
		return gateway.Record{}, err
	}
	if len(patch) == 0 {
		// Nothing to change; equivalent to a read, but still 404 on absence.
		return s.Find(ctx, collection, key)
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	names := make([]string, 0, len(patch))
	for name := range patch {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	args := []any{key}
	for _, name := range names {
		col, ok := c.Column(name)
		if !ok {
			return gateway.Record{}, gateway.WrapKind(op, gateway.ErrValidation,
				fmt.Errorf("unknown field %q", name))
		}
		bound, err := bindValue(col, patch[name])
		if err != nil {
			return gateway.Record{}, gateway.WrapKind(op, gateway.ErrValidation, err)
		}
		args = append(args, bound)
		sets = append(sets, fmt.Sprintf("%s = $%d", schema.QuoteIdent(name), len(args)))
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1 RETURNING %s",
		schema.QuoteIdent(c.Name), strings.Join(sets, ", "),
		schema.QuoteIdent(c.Key), selectList(c))
	rec, err := scanRecord(c, s.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		return gateway.Record{}, translate(op, err)
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, collection, key string) error {
	const op = "postgres.delete"
	defer observe(op, collection, time.Now())

	c, err := s.collection(op, collection)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		schema.QuoteIdent(c.Name), schema.QuoteIdent(c.Key))
	// Zero rows affected is fine: delete is idempotent.
	if _, err := s.pool.Exec(ctx, sql, key); err != nil {
		return translate(op, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string, limit int) ([]gateway.Record, error) {
	const op = "postgres.list"
	defer observe(op, collection, time.Now())

	c, err := s.collection(op, collection)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	sql := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC",
		selectList(c), schema.QuoteIdent(c.Name), schema.QuoteIdent(c.Key))
	args := []any{}
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	out := []gateway.Record{}
	for rows.Next() {
		rec, err := scanRecord(c, rows)
		if err != nil {
			return nil, translate(op, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return translate("postgres.ping", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

// UpdatePoolMetrics pushes current pool gauges; main runs this on a ticker.
func (s *Store) UpdatePoolMetrics() {
	stat := s.pool.Stat()
	metrics.UpdatePoolConns(int(stat.TotalConns()), int(stat.IdleConns()))
}

func selectList(c schema.Collection) string {
	cols := []string{schema.QuoteIdent(c.Key)}
	for _, col := range c.Columns {
		cols = append(cols, schema.QuoteIdent(col.Name))
	}
	return strings.Join(cols, ", ")
}

// scanRecord scans one row laid out as selectList into a Record.
func scanRecord(c schema.Collection, row pgx.Row) (gateway.Record, error) {
	dests := make([]any, 1+len(c.Columns))
	var key string
	dests[0] = &key
	vals := make([]any, len(c.Columns))
	for i := range c.Columns {
		dests[i+1] = &vals[i]
	}
	if err := row.Scan(dests...); err != nil {
		return gateway.Record{}, err
	}

	fields := make(map[string]any, len(c.Columns))
	for i, col := range c.Columns {
		fields[col.Name] = fieldValue(vals[i])
	}
	return gateway.Record{Key: key, Fields: fields}, nil
}

// fieldValue normalizes scanned values to JSON-friendly shapes.
func fieldValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(t)
	default:
		return v
	}
}

// bindValue converts a JSON-decoded field value into what pgx expects for
// the column type.
func bindValue(col schema.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.Type {
	case schema.Integer:
		if f, ok := v.(float64); ok {
			return int64(f), nil
		}
		return v, nil
	case schema.Timestamp:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %q: expected RFC3339 string", col.Name)
		}
		ts, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", col.Name, err)
		}
		return ts, nil
	default:
		return v, nil
	}
}

func observe(op, collection string, start time.Time) {
	metrics.RecordStoreOp(op, collection)
	metrics.RecordStoreOpDuration(op, time.Since(start).Seconds())
}
