// Package slides manages the homepage carousel: slide CRUD with
// append-to-end ordering and adjacent-swap reordering.
package slides

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"sportstore/internal/model"
	"sportstore/internal/storage"
)

// ErrInvalidInput is returned when a slide fails validation.
var ErrInvalidInput = errors.New("invalid slide")

// Direction selects the neighbour a slide is swapped with.
type Direction int

const (
	// Earlier moves a slide one position towards the front.
	Earlier Direction = iota
	// Later moves a slide one position towards the back.
	Later
)

func (d Direction) String() string {
	if d == Earlier {
		return "earlier"
	}
	return "later"
}

// ParseDirection accepts "earlier"/"up" and "later"/"down".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "earlier", "up":
		return Earlier, nil
	case "later", "down":
		return Later, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Input holds the editable fields of a slide.
type Input struct {
	Title       string
	Subtitle    string
	Description string
	ImageURL    string
	Active      bool
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: el título es obligatorio", ErrInvalidInput)
	}
	return nil
}

// Manager provides the slide operations used by the admin, the storefront
// and the CLI.
type Manager struct {
	store  storage.DataStore
	logger *slog.Logger
}

// NewManager creates a new Manager instance.
func NewManager(store storage.DataStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{store: store, logger: logger}
}

// List returns every slide in display order.
func (m *Manager) List(ctx context.Context) ([]model.Slide, error) {
	recs, err := m.store.List(ctx, model.CollectionSlides, storage.Query{})
	if err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	slides, err := storage.DecodeAll[model.Slide](recs)
	if err != nil {
		return nil, fmt.Errorf("decode slides: %w", err)
	}
	SortByOrder(slides)
	return slides, nil
}

// ListActive returns the active slides in display order, for the carousel.
func (m *Manager) ListActive(ctx context.Context) ([]model.Slide, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]model.Slide, 0, len(all))
	for _, s := range all {
		if s.Active {
			active = append(active, s)
		}
	}
	return active, nil
}

// Get loads one slide. A missing id wraps storage.ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (model.Slide, error) {
	rec, err := m.store.Get(ctx, model.CollectionSlides, id)
	if err != nil {
		return model.Slide{}, fmt.Errorf("get slide %s: %w", id, err)
	}
	var s model.Slide
	if err := storage.Decode(rec, &s); err != nil {
		return model.Slide{}, fmt.Errorf("decode slide %s: %w", id, err)
	}
	return s, nil
}

// Create appends a slide: its order key is the collection size before the
// insert.
func (m *Manager) Create(ctx context.Context, in Input) (model.Slide, error) {
	if err := in.validate(); err != nil {
		return model.Slide{}, err
	}
	n, err := m.store.Count(ctx, model.CollectionSlides)
	if err != nil {
		return model.Slide{}, fmt.Errorf("count slides: %w", err)
	}
	s := model.Slide{
		Title:       strings.TrimSpace(in.Title),
		Subtitle:    in.Subtitle,
		Description: in.Description,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Active:      in.Active,
	}
	rec := storage.Record(s.Record())
	rec["order"] = n
	stored, err := m.store.Insert(ctx, model.CollectionSlides, rec)
	if err != nil {
		return model.Slide{}, fmt.Errorf("insert slide: %w", err)
	}
	if err := storage.Decode(stored, &s); err != nil {
		return model.Slide{}, fmt.Errorf("decode slide: %w", err)
	}
	m.logger.Info("Created slide", "slideID", s.ID, "order", s.Order)
	return s, nil
}

// Update replaces the editable fields. The order key is left alone.
func (m *Manager) Update(ctx context.Context, id string, in Input) error {
	if err := in.validate(); err != nil {
		return err
	}
	s := model.Slide{
		Title:       strings.TrimSpace(in.Title),
		Subtitle:    in.Subtitle,
		Description: in.Description,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Active:      in.Active,
	}
	if err := m.store.Update(ctx, model.CollectionSlides, id, s.Record()); err != nil {
		return fmt.Errorf("update slide %s: %w", id, err)
	}
	m.logger.Info("Updated slide", "slideID", id)
	return nil
}

// SetActive shows or hides a slide on the storefront.
func (m *Manager) SetActive(ctx context.Context, id string, active bool) error {
	if err := m.store.Update(ctx, model.CollectionSlides, id, storage.Record{"active": active}); err != nil {
		return fmt.Errorf("set slide %s active=%t: %w", id, active, err)
	}
	m.logger.Info("Toggled slide", "slideID", id, "active", active)
	return nil
}

// Delete removes a slide. Siblings keep their order keys.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, model.CollectionSlides, id); err != nil {
		return fmt.Errorf("delete slide %s: %w", id, err)
	}
	m.logger.Info("Deleted slide", "slideID", id)
	return nil
}

// SortByOrder sorts slides ascending by order key, breaking ties by
// creation time and then id.
func SortByOrder(slides []model.Slide) {
	sort.SliceStable(slides, func(a, b int) bool {
		x, y := slides[a], slides[b]
		if x.Order != y.Order {
			return x.Order < y.Order
		}
		if !x.CreatedAt.Equal(y.CreatedAt) {
			return x.CreatedAt.Before(y.CreatedAt)
		}
		return x.ID < y.ID
	})
}
