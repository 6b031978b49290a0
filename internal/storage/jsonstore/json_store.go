// Package jsonstore implements storage.DataStore on plain JSON files, one
// file per record under <base>/<collection>/<id>.json. It suits local
// development without a database.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sportstore/internal/storage"
	"sportstore/pkg/fsutils"
)

// JSONStore implements the DataStore interface using JSON files.
type JSONStore struct {
	// BasePath is the directory holding one sub directory per collection.
	BasePath string

	mu  sync.RWMutex
	now func() time.Time
}

// NewJSONStore creates a new JSONStore instance.
// It ensures the base storage directory exists.
func NewJSONStore(basePath string) (*JSONStore, error) {
	if err := fsutils.CreateDir(basePath); err != nil {
		return nil, fmt.Errorf("failed to create storage directory '%s': %w", basePath, err)
	}
	return &JSONStore{BasePath: basePath, now: time.Now}, nil
}

// GetBasePath returns the base path of the JSON store.
func (js *JSONStore) GetBasePath() string {
	return js.BasePath
}

func (js *JSONStore) dir(collection string) (string, error) {
	if _, err := storage.Columns(collection); err != nil {
		return "", err
	}
	return filepath.Join(js.BasePath, collection), nil
}

func (js *JSONStore) path(collection, id string) (string, error) {
	dir, err := js.dir(collection)
	if err != nil {
		return "", err
	}
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid record id %q", id)
	}
	return filepath.Join(dir, id+".json"), nil
}

func (js *JSONStore) Count(ctx context.Context, collection string) (int, error) {
	dir, err := js.dir(collection)
	if err != nil {
		return 0, err
	}
	js.mu.RLock()
	defer js.mu.RUnlock()
	names, err := fsutils.ListFiles(dir, ".json")
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

func (js *JSONStore) List(ctx context.Context, collection string, q storage.Query) ([]storage.Record, error) {
	if err := storage.CheckQuery(collection, q); err != nil {
		return nil, err
	}
	js.mu.RLock()
	defer js.mu.RUnlock()
	recs, err := js.readAll(collection)
	if err != nil {
		return nil, err
	}
	// File order is arbitrary, creation time is the natural default.
	if len(q.OrderBy) == 0 {
		q = q.Sort("created_at", false).Sort("id", false)
	}
	return storage.Apply(recs, q), nil
}

func (js *JSONStore) Get(ctx context.Context, collection, id string) (storage.Record, error) {
	js.mu.RLock()
	defer js.mu.RUnlock()
	return js.load(collection, id)
}

func (js *JSONStore) Insert(ctx context.Context, collection string, rec storage.Record) (storage.Record, error) {
	row, err := storage.PrepareInsert(collection, rec, js.now())
	if err != nil {
		return nil, err
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	filePath, err := js.path(collection, row.ID())
	if err != nil {
		return nil, err
	}
	if fsutils.FileExists(filePath) {
		return nil, fmt.Errorf("insert %s: duplicate id %s", collection, row.ID())
	}
	if err := js.save(collection, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (js *JSONStore) Update(ctx context.Context, collection, id string, fields storage.Record) error {
	if err := storage.CheckFields(collection, fields); err != nil {
		return err
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	row, err := js.load(collection, id)
	if err != nil {
		return err
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		row[k] = v
	}
	return js.save(collection, row)
}

// Delete removes the record's JSON file.
func (js *JSONStore) Delete(ctx context.Context, collection, id string) error {
	filePath, err := js.path(collection, id)
	if err != nil {
		return err
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s %s: %w", collection, id, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to delete record file %s: %w", filePath, err)
	}
	return nil
}

// Close is a no-op; every write is already on disk.
func (js *JSONStore) Close() error { return nil }

// save persists one record, creating the collection directory on demand.
func (js *JSONStore) save(collection string, row storage.Record) error {
	filePath, err := js.path(collection, row.ID())
	if err != nil {
		return err
	}
	if err := fsutils.CreateDir(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("failed to create collection directory for %s: %w", collection, err)
	}
	// MarshalIndent keeps the files readable for hand edits.
	data, err := json.MarshalIndent(row, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s record %s: %w", collection, row.ID(), err)
	}
	if err := fsutils.WriteFileAtomic(filePath, data); err != nil {
		return fmt.Errorf("failed to write record file %s: %w", filePath, err)
	}
	return nil
}

// load reads one record from its JSON file.
func (js *JSONStore) load(collection, id string) (storage.Record, error) {
	filePath, err := js.path(collection, id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s %s: %w", collection, id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read record file %s: %w", filePath, err)
	}
	var row storage.Record
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record data from %s: %w", filePath, err)
	}
	normalize(row)
	return row, nil
}

// readAll loads every record of a collection.
func (js *JSONStore) readAll(collection string) ([]storage.Record, error) {
	dir, err := js.dir(collection)
	if err != nil {
		return nil, err
	}
	names, err := fsutils.ListFiles(dir, ".json")
	if err != nil {
		return nil, err
	}
	recs := make([]storage.Record, 0, len(names))
	for _, name := range names {
		rec, err := js.load(collection, strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s during list: %w", name, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// normalize turns JSON strings back into times for the timestamp columns,
// so sorting by them compares instants rather than text.
func normalize(row storage.Record) {
	for _, col := range []string{"created_at", "expires_at"} {
		s, ok := row[col].(string)
		if !ok {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			row[col] = t
		}
	}
}
