// Package memory provides an in-process DataStore. It backs the tests and
// the degraded mode the servers fall back to when the configured backend
// cannot be reached.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sportstore/internal/storage"
)

// Store keeps every collection in insertion order.
type Store struct {
	mu    sync.RWMutex
	rows  map[string][]storage.Record
	now   func() time.Time
	fails map[string]error // injected failures, keyed by "op:collection"
}

// New returns an empty store.
func New() *Store {
	return &Store{
		rows:  make(map[string][]storage.Record),
		now:   time.Now,
		fails: make(map[string]error),
	}
}

// FailOn makes every later call of op ("count", "list", "get", "insert",
// "update", "delete") on collection return err. A nil err clears it.
func (s *Store) FailOn(op, collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := op + ":" + collection
	if err == nil {
		delete(s.fails, key)
		return
	}
	s.fails[key] = err
}

func (s *Store) failure(op, collection string) error {
	if err, ok := s.fails[op+":"+collection]; ok {
		return fmt.Errorf("%s %s: %w", op, collection, err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if _, err := storage.Columns(collection); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("count", collection); err != nil {
		return 0, err
	}
	return len(s.rows[collection]), nil
}

func (s *Store) List(ctx context.Context, collection string, q storage.Query) ([]storage.Record, error) {
	if err := storage.CheckQuery(collection, q); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("list", collection); err != nil {
		return nil, err
	}
	matched := storage.Apply(s.rows[collection], q)
	out := make([]storage.Record, len(matched))
	for i, rec := range matched {
		out[i] = clone(rec)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (storage.Record, error) {
	if _, err := storage.Columns(collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("get", collection); err != nil {
		return nil, err
	}
	i := s.index(collection, id)
	if i < 0 {
		return nil, fmt.Errorf("%s %s: %w", collection, id, storage.ErrNotFound)
	}
	return clone(s.rows[collection][i]), nil
}

func (s *Store) Insert(ctx context.Context, collection string, rec storage.Record) (storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("insert", collection); err != nil {
		return nil, err
	}
	row, err := storage.PrepareInsert(collection, rec, s.now())
	if err != nil {
		return nil, err
	}
	if s.index(collection, row.ID()) >= 0 {
		return nil, fmt.Errorf("insert %s: duplicate id %s", collection, row.ID())
	}
	s.rows[collection] = append(s.rows[collection], row)
	return clone(row), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields storage.Record) error {
	if err := storage.CheckFields(collection, fields); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("update", collection); err != nil {
		return err
	}
	return s.update(collection, id, fields)
}

func (s *Store) update(collection, id string, fields storage.Record) error {
	i := s.index(collection, id)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", collection, id, storage.ErrNotFound)
	}
	row := s.rows[collection][i]
	for k, v := range fields {
		if k == "id" {
			continue
		}
		row[k] = v
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := storage.Columns(collection); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("delete", collection); err != nil {
		return err
	}
	i := s.index(collection, id)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", collection, id, storage.ErrNotFound)
	}
	rows := s.rows[collection]
	s.rows[collection] = append(rows[:i:i], rows[i+1:]...)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) index(collection, id string) int {
	for i, rec := range s.rows[collection] {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}

func clone(rec storage.Record) storage.Record {
	out := make(storage.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
