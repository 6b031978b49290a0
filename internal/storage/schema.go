package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Schema lists the columns of every collection the application uses.
// Backends reject other collections, and SQL backends only ever put these
// names into statements.
var Schema = map[string][]string{
	"products":       {"id", "name", "description", "price", "image_url", "category_id", "brand_id", "sizes", "featured", "active", "created_at"},
	"brands":         {"id", "name", "logo_url", "created_at"},
	"categories":     {"id", "name", "slug", "created_at"},
	"hero_slides":    {"id", "title", "subtitle", "description", "image_url", "image", "order", "active", "created_at"},
	"product_colors": {"id", "product_id", "name", "hex", "image_url", "created_at"},
	"admin_users":    {"id", "email", "password_hash", "created_at"},
	"sessions":       {"id", "user_id", "email", "expires_at", "created_at"},
}

// Columns returns the column list for a collection.
func Columns(collection string) ([]string, error) {
	cols, ok := Schema[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	return cols, nil
}

// HasColumn reports whether the collection defines the column.
func HasColumn(collection, column string) bool {
	for _, c := range Schema[collection] {
		if c == column {
			return true
		}
	}
	return false
}

// CheckFields validates that every key of rec is a column of collection.
func CheckFields(collection string, rec Record) error {
	if _, err := Columns(collection); err != nil {
		return err
	}
	for k := range rec {
		if !HasColumn(collection, k) {
			return fmt.Errorf("collection %s has no column %q", collection, k)
		}
	}
	return nil
}

// CheckQuery validates the field names used by q.
func CheckQuery(collection string, q Query) error {
	if _, err := Columns(collection); err != nil {
		return err
	}
	for _, f := range q.Filters {
		if !HasColumn(collection, f.Field) {
			return fmt.Errorf("collection %s has no column %q", collection, f.Field)
		}
	}
	for _, o := range q.OrderBy {
		if !HasColumn(collection, o.Field) {
			return fmt.Errorf("collection %s has no column %q", collection, o.Field)
		}
	}
	return nil
}

// PrepareInsert copies rec and fills in id and created_at when missing.
func PrepareInsert(collection string, rec Record, now time.Time) (Record, error) {
	if err := CheckFields(collection, rec); err != nil {
		return nil, err
	}
	out := make(Record, len(rec)+2)
	for k, v := range rec {
		out[k] = v
	}
	if id, _ := out["id"].(string); id == "" {
		out["id"] = uuid.NewString()
	}
	if _, ok := out["created_at"]; !ok {
		out["created_at"] = now.UTC()
	}
	return out, nil
}
