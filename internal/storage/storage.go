package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownCollection is returned for collection names outside Schema.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Record is one row of a collection, keyed by column name.
type Record map[string]any

// ID returns the record's id column as a string.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Filter is an equality constraint on a single field.
type Filter struct {
	Field string
	Value any
}

// Order sorts a listing by one field.
type Order struct {
	Field string
	Desc  bool
}

// Query narrows and sorts a List call. The zero value lists everything in
// store order.
type Query struct {
	Filters []Filter
	OrderBy []Order
	Limit   int // 0 means no limit
}

// Where returns a copy of q with an extra equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// Sort returns a copy of q with an extra ordering field.
func (q Query) Sort(field string, desc bool) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), Order{Field: field, Desc: desc})
	return q
}

// DataStore defines the table operations the application needs from its
// backend. Every component receives one explicitly so tests can swap in
// the memory store.
type DataStore interface {
	// Count returns the number of records in the collection.
	Count(ctx context.Context, collection string) (int, error)

	// List returns the records matching q.
	List(ctx context.Context, collection string, q Query) ([]Record, error)

	// Get returns one record by id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Record, error)

	// Insert stores a new record. A missing id or created_at is generated;
	// the stored record is returned.
	Insert(ctx context.Context, collection string, rec Record) (Record, error)

	// Update merges fields into the record with the given id.
	Update(ctx context.Context, collection, id string, fields Record) error

	// Delete removes the record with the given id.
	Delete(ctx context.Context, collection, id string) error

	// Close releases backend resources.
	Close() error
}

// RowUpdate is one record update inside a batch.
type RowUpdate struct {
	ID     string
	Fields Record
}

// Batcher is implemented by stores that can apply several updates
// atomically.
type Batcher interface {
	UpdateBatch(ctx context.Context, collection string, updates []RowUpdate) error
}
