// Package sqlstore implements storage.DataStore over database/sql. The
// sqlite and postgres packages open the connection, run migrations and
// hand it here with their placeholder dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"sportstore/internal/storage"
)

// Dialect captures the differences between the supported databases.
type Dialect struct {
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// EncodeTime converts a time before binding it.
	EncodeTime func(t time.Time) any
}

// Store implements storage.DataStore and storage.Batcher.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// New wraps an open database.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func quote(ident string) string {
	return `"` + ident + `"`
}

func (s *Store) encode(v any) any {
	if t, ok := v.(time.Time); ok {
		return s.dialect.EncodeTime(t.UTC())
	}
	return v
}

func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if _, err := storage.Columns(collection); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quote(collection)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func (s *Store) List(ctx context.Context, collection string, q storage.Query) ([]storage.Record, error) {
	if err := storage.CheckQuery(collection, q); err != nil {
		return nil, err
	}
	cols, _ := storage.Columns(collection)

	var b strings.Builder
	args := make([]any, 0, len(q.Filters))
	b.WriteString("SELECT ")
	b.WriteString(columnList(cols))
	b.WriteString(" FROM ")
	b.WriteString(quote(collection))
	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, s.encode(f.Value))
		b.WriteString(quote(f.Field) + " = " + s.dialect.Placeholder(len(args)))
	}
	order := q.OrderBy
	if len(order) == 0 {
		order = []storage.Order{{Field: "created_at"}, {Field: "id"}}
	}
	for i, o := range order {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(quote(o.Field))
		if o.Desc {
			b.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		b.WriteString(fmt.Sprintf(" LIMIT %d", q.Limit))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()
	recs, err := scanRecords(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return recs, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (storage.Record, error) {
	cols, err := storage.Columns(collection)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + columnList(cols) + " FROM " + quote(collection) + " WHERE " + quote("id") + " = " + s.dialect.Placeholder(1)
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", collection, id, err)
	}
	defer rows.Close()
	recs, err := scanRecords(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", collection, id, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s %s: %w", collection, id, storage.ErrNotFound)
	}
	return recs[0], nil
}

func (s *Store) Insert(ctx context.Context, collection string, rec storage.Record) (storage.Record, error) {
	row, err := storage.PrepareInsert(collection, rec, s.now())
	if err != nil {
		return nil, err
	}
	keys := sortedKeys(row)
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = quote(k)
		placeholders[i] = s.dialect.Placeholder(i + 1)
		args[i] = s.encode(row[k])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(collection), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert %s: %w", collection, err)
	}
	return row, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields storage.Record) error {
	if err := storage.CheckFields(collection, fields); err != nil {
		return err
	}
	return s.update(ctx, s.db, collection, id, fields)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) update(ctx context.Context, ex execer, collection, id string, fields storage.Record) error {
	keys := sortedKeys(fields)
	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		if k == "id" {
			continue
		}
		args = append(args, s.encode(fields[k]))
		sets = append(sets, quote(k)+" = "+s.dialect.Placeholder(len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		quote(collection), strings.Join(sets, ", "), quote("id"), s.dialect.Placeholder(len(args)))
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", collection, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %s: %w", collection, id, storage.ErrNotFound)
	}
	return nil
}

// UpdateBatch applies every update in one transaction.
func (s *Store) UpdateBatch(ctx context.Context, collection string, updates []storage.RowUpdate) error {
	for _, u := range updates {
		if err := storage.CheckFields(collection, u.Fields); err != nil {
			return err
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch on %s: %w", collection, err)
	}
	for _, u := range updates {
		if err := s.update(ctx, tx, collection, u.ID, u.Fields); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch on %s: %w", collection, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := storage.Columns(collection); err != nil {
		return err
	}
	query := "DELETE FROM " + quote(collection) + " WHERE " + quote("id") + " = " + s.dialect.Placeholder(1)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", collection, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %s: %w", collection, id, storage.ErrNotFound)
	}
	return nil
}

func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	return strings.Join(quoted, ", ")
}

func scanRecords(rows *sql.Rows, cols []string) ([]storage.Record, error) {
	var recs []storage.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(storage.Record, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				rec[c] = string(b)
				continue
			}
			rec[c] = values[i]
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return recs, nil
}

func sortedKeys(rec storage.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
