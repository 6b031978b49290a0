// Package storagetest holds the behaviour every DataStore implementation
// must share. Backend tests call Run with a constructor.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportstore/internal/storage"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.DataStore) {
	t.Helper()

	t.Run("count on empty collection is zero", func(t *testing.T) {
		store := newStore(t)
		n, err := store.Count(context.Background(), "products")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("insert generates id and created_at", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		rec, err := store.Insert(ctx, "brands", storage.Record{"name": "Nike"})
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID())
		assert.NotNil(t, rec["created_at"])

		got, err := store.Get(ctx, "brands", rec.ID())
		require.NoError(t, err)
		assert.Equal(t, "Nike", got["name"])

		n, err := store.Count(ctx, "brands")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("insert keeps a caller id", func(t *testing.T) {
		store := newStore(t)
		rec, err := store.Insert(context.Background(), "categories", storage.Record{"id": "cat-1", "name": "Shoes", "slug": "shoes"})
		require.NoError(t, err)
		assert.Equal(t, "cat-1", rec.ID())
	})

	t.Run("unknown collection and column are rejected", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.Count(ctx, "orders")
		assert.True(t, errors.Is(err, storage.ErrUnknownCollection))

		_, err = store.Insert(ctx, "brands", storage.Record{"name": "Puma", "color": "red"})
		assert.Error(t, err)

		_, err = store.List(ctx, "brands", storage.Query{}.Where("color", "red"))
		assert.Error(t, err)
	})

	t.Run("update merges fields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		rec, err := store.Insert(ctx, "hero_slides", storage.Record{"title": "Summer", "subtitle": "Sale", "order": 0, "active": true})
		require.NoError(t, err)

		require.NoError(t, store.Update(ctx, "hero_slides", rec.ID(), storage.Record{"title": "Winter"}))

		got, err := store.Get(ctx, "hero_slides", rec.ID())
		require.NoError(t, err)
		assert.Equal(t, "Winter", got["title"])
		assert.Equal(t, "Sale", got["subtitle"])
	})

	t.Run("missing ids report ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.Get(ctx, "brands", "missing")
		assert.True(t, errors.Is(err, storage.ErrNotFound), "get: %v", err)

		err = store.Update(ctx, "brands", "missing", storage.Record{"name": "x"})
		assert.True(t, errors.Is(err, storage.ErrNotFound), "update: %v", err)

		err = store.Delete(ctx, "brands", "missing")
		assert.True(t, errors.Is(err, storage.ErrNotFound), "delete: %v", err)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		rec, err := store.Insert(ctx, "brands", storage.Record{"name": "Adidas"})
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, "brands", rec.ID()))

		n, err := store.Count(ctx, "brands")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("list filters sorts and limits", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		for i, title := range []string{"C", "A", "B"} {
			_, err := store.Insert(ctx, "hero_slides", storage.Record{"title": title, "order": 2 - i, "active": title != "B"})
			require.NoError(t, err)
		}

		recs, err := store.List(ctx, "hero_slides", storage.Query{}.Sort("order", false))
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, []any{"B", "A", "C"}, titles(recs))

		recs, err = store.List(ctx, "hero_slides", storage.Query{}.Sort("title", true))
		require.NoError(t, err)
		assert.Equal(t, []any{"C", "B", "A"}, titles(recs))

		recs, err = store.List(ctx, "hero_slides", storage.Query{}.Where("active", true).Sort("order", false))
		require.NoError(t, err)
		assert.Equal(t, []any{"A", "C"}, titles(recs))

		q := storage.Query{Limit: 2}.Sort("title", false)
		recs, err = store.List(ctx, "hero_slides", q)
		require.NoError(t, err)
		assert.Equal(t, []any{"A", "B"}, titles(recs))
	})

	t.Run("records decode into models", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		rec, err := store.Insert(ctx, "products", storage.Record{
			"name": "Runner", "price": "59.90", "sizes": "40,41,42", "active": true, "featured": false,
		})
		require.NoError(t, err)

		got, err := store.Get(ctx, "products", rec.ID())
		require.NoError(t, err)

		var p struct {
			Name   string   `json:"name"`
			Price  string   `json:"price"`
			Sizes  []string `json:"sizes"`
			Active bool     `json:"active"`
		}
		require.NoError(t, storage.Decode(got, &p))
		assert.Equal(t, "Runner", p.Name)
		assert.Equal(t, "59.90", p.Price)
		assert.Equal(t, []string{"40", "41", "42"}, p.Sizes)
		assert.True(t, p.Active)
	})
}

func titles(recs []storage.Record) []any {
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r["title"]
	}
	return out
}
