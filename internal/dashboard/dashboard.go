// Package dashboard computes the admin summary tiles.
package dashboard

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sportstore/internal/model"
	"sportstore/internal/storage"
)

// DefaultTimeout bounds how long Summary waits for the store.
const DefaultTimeout = 3 * time.Second

// Tile is one summary count.
type Tile struct {
	Collection string `json:"collection"`
	Label      string `json:"label"`
	Count      int    `json:"count"`
	// Failed is set when the count could not be read and reads as 0.
	Failed bool `json:"failed"`
}

// Summary holds the dashboard tiles in display order.
type Summary struct {
	Tiles []Tile `json:"tiles"`
}

// Count returns the count for a collection, or 0 when absent.
func (s Summary) Count(collection string) int {
	for _, t := range s.Tiles {
		if t.Collection == collection {
			return t.Count
		}
	}
	return 0
}

var tiles = []Tile{
	{Collection: model.CollectionProducts, Label: "Productos"},
	{Collection: model.CollectionBrands, Label: "Marcas"},
	{Collection: model.CollectionCategories, Label: "Categorías"},
	{Collection: model.CollectionSlides, Label: "Banners"},
}

// Service reads dashboard counts from a store.
type Service struct {
	store   storage.DataStore
	logger  *slog.Logger
	timeout time.Duration
}

// NewService creates a dashboard service. A zero timeout uses
// DefaultTimeout.
func NewService(store storage.DataStore, logger *slog.Logger, timeout time.Duration) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{store: store, logger: logger, timeout: timeout}
}

// Summary counts every tile concurrently. A count that fails or outlives
// the timeout is logged and reported as 0; Summary itself never fails.
func (s *Service) Summary(ctx context.Context) Summary {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out := Summary{Tiles: append([]Tile(nil), tiles...)}
	// Workers never return an error, so one failing count does not cancel
	// its siblings.
	var g errgroup.Group
	for i := range out.Tiles {
		tile := &out.Tiles[i]
		g.Go(func() error {
			n, err := s.count(ctx, tile.Collection)
			if err != nil {
				s.logger.Warn("Dashboard count failed, showing 0", "collection", tile.Collection, "error", err)
				tile.Failed = true
				return nil
			}
			tile.Count = n
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// count runs one store count, giving up when ctx ends even if the store
// ignores cancellation.
func (s *Service) count(ctx context.Context, collection string) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := s.store.Count(ctx, collection)
		ch <- result{n, err}
	}()
	select {
	case r := <-ch:
		return r.n, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
