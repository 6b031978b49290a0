// Package seed holds the default catalog dataset. It is loaded into a
// fresh store by the CLI and served by the storefront as a fallback when
// the store cannot be read.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"sportstore/internal/model"
	"sportstore/internal/storage"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Dataset is a complete catalog plus carousel.
type Dataset struct {
	Brands     []model.Brand
	Categories []model.Category
	Products   []model.Product
	Colors     []model.ProductColor
	Slides     []model.Slide
}

type fileColor struct {
	Name     string `yaml:"name"`
	Hex      string `yaml:"hex"`
	ImageURL string `yaml:"image_url"`
}

type fileProduct struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Price       string      `yaml:"price"`
	Brand       string      `yaml:"brand"`
	Category    string      `yaml:"category"`
	Sizes       []string    `yaml:"sizes"`
	Featured    bool        `yaml:"featured"`
	ImageURL    string      `yaml:"image_url"`
	Colors      []fileColor `yaml:"colors"`
}

type fileSlide struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	Description string `yaml:"description"`
	ImageURL    string `yaml:"image_url"`
}

type file struct {
	Brands []struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		LogoURL string `yaml:"logo_url"`
	} `yaml:"brands"`
	Categories []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
		Slug string `yaml:"slug"`
	} `yaml:"categories"`
	Products []fileProduct `yaml:"products"`
	Slides   []fileSlide   `yaml:"slides"`
}

// Parse decodes a dataset document. Product brand and category fields name
// ids declared in the same document.
func Parse(data []byte) (Dataset, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Dataset{}, fmt.Errorf("parse dataset: %w", err)
	}

	// Fixed timestamps keep fallback listings stable between requests.
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ds Dataset
	brands := make(map[string]bool)
	for _, b := range f.Brands {
		ds.Brands = append(ds.Brands, model.Brand{ID: b.ID, Name: b.Name, LogoURL: b.LogoURL, CreatedAt: created})
		brands[b.ID] = true
	}
	categories := make(map[string]bool)
	for _, c := range f.Categories {
		slug := c.Slug
		if slug == "" {
			slug = Slug(c.Name)
		}
		ds.Categories = append(ds.Categories, model.Category{ID: c.ID, Name: c.Name, Slug: slug, CreatedAt: created})
		categories[c.ID] = true
	}
	for i, p := range f.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return Dataset{}, fmt.Errorf("product %s: invalid price %q: %w", p.ID, p.Price, err)
		}
		if p.Brand != "" && !brands[p.Brand] {
			return Dataset{}, fmt.Errorf("product %s: unknown brand %q", p.ID, p.Brand)
		}
		if p.Category != "" && !categories[p.Category] {
			return Dataset{}, fmt.Errorf("product %s: unknown category %q", p.ID, p.Category)
		}
		ds.Products = append(ds.Products, model.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			ImageURL:    p.ImageURL,
			CategoryID:  p.Category,
			BrandID:     p.Brand,
			Sizes:       p.Sizes,
			Featured:    p.Featured,
			Active:      true,
			CreatedAt:   created.Add(time.Duration(i) * time.Second),
		})
		for k, c := range p.Colors {
			ds.Colors = append(ds.Colors, model.ProductColor{
				ID:        fmt.Sprintf("%s-color-%d", p.ID, k+1),
				ProductID: p.ID,
				Name:      c.Name,
				Hex:       c.Hex,
				ImageURL:  c.ImageURL,
				CreatedAt: created,
			})
		}
	}
	for i, s := range f.Slides {
		ds.Slides = append(ds.Slides, model.Slide{
			ID:          s.ID,
			Title:       s.Title,
			Subtitle:    s.Subtitle,
			Description: s.Description,
			ImageURL:    s.ImageURL,
			Order:       i,
			Active:      true,
			CreatedAt:   created,
		})
	}
	return ds, nil
}

var defaults = sync.OnceValues(func() (Dataset, error) { return Parse(defaultsYAML) })

// Defaults returns the embedded default dataset. Callers must not modify
// the returned slices.
func Defaults() Dataset {
	ds, err := defaults()
	if err != nil {
		// The document is compiled in; a parse failure is a build defect.
		panic(err)
	}
	return ds
}

// Result reports what Load wrote.
type Result struct {
	Inserted int
	Updated  int
	Skipped  bool
}

// Load writes ds into store. Unless force is set, a store that already has
// products is left untouched. With force, existing records with the same
// ids are overwritten.
func Load(ctx context.Context, store storage.DataStore, ds Dataset, force bool, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var res Result
	if !force {
		n, err := store.Count(ctx, model.CollectionProducts)
		if err != nil {
			return res, fmt.Errorf("count products: %w", err)
		}
		if n > 0 {
			logger.Info("Catalog already populated, skipping seed", "products", n)
			res.Skipped = true
			return res, nil
		}
	}

	put := func(collection, id string, fields map[string]any, created time.Time) error {
		rec := storage.Record(fields)
		_, err := store.Get(ctx, collection, id)
		switch {
		case err == nil:
			if err := store.Update(ctx, collection, id, rec); err != nil {
				return fmt.Errorf("update %s %s: %w", collection, id, err)
			}
			res.Updated++
			return nil
		case errors.Is(err, storage.ErrNotFound):
			rec["id"] = id
			rec["created_at"] = created
			if _, err := store.Insert(ctx, collection, rec); err != nil {
				return fmt.Errorf("insert %s %s: %w", collection, id, err)
			}
			res.Inserted++
			return nil
		default:
			return fmt.Errorf("get %s %s: %w", collection, id, err)
		}
	}

	for _, b := range ds.Brands {
		if err := put(model.CollectionBrands, b.ID, b.Record(), b.CreatedAt); err != nil {
			return res, err
		}
	}
	for _, c := range ds.Categories {
		if err := put(model.CollectionCategories, c.ID, c.Record(), c.CreatedAt); err != nil {
			return res, err
		}
	}
	for _, p := range ds.Products {
		if err := put(model.CollectionProducts, p.ID, p.Record(), p.CreatedAt); err != nil {
			return res, err
		}
	}
	for _, c := range ds.Colors {
		if err := put(model.CollectionProductColors, c.ID, c.Record(), c.CreatedAt); err != nil {
			return res, err
		}
	}
	for _, s := range ds.Slides {
		fields := s.Record()
		fields["order"] = s.Order
		if err := put(model.CollectionSlides, s.ID, fields, s.CreatedAt); err != nil {
			return res, err
		}
	}
	logger.Info("Seeded catalog", "inserted", res.Inserted, "updated", res.Updated)
	return res, nil
}
