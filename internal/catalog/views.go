package catalog

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"sportstore/internal/model"
	"sportstore/internal/storage"
)

// Listing is one load of everything the storefront grid needs.
type Listing struct {
	Products   []model.ProductView
	Brands     []model.Brand
	Categories []model.Category
	// Fallback is set when the store could not be read and the default
	// dataset was served instead.
	Fallback bool
}

// LoadListing reads the four catalog collections concurrently and joins
// them into product views. A store failure is logged and answered with
// the default dataset, so the storefront always renders.
func (s *Service) LoadListing(ctx context.Context) Listing {
	var (
		products   []model.Product
		brands     []model.Brand
		categories []model.Category
		colors     []model.ProductColor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = s.ListProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		brands, err = s.ListBrands(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.ListCategories(gctx)
		return err
	})
	g.Go(func() error {
		recs, err := s.store.List(gctx, model.CollectionProductColors, storage.Query{}.Sort("created_at", false).Sort("id", false))
		if err != nil {
			return fmt.Errorf("list colors: %w", err)
		}
		colors, err = storage.DecodeAll[model.ProductColor](recs)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Catalog unavailable, serving default dataset", "error", err)
		ds := s.fallback()
		return Listing{
			Products:   Join(ds.Products, ds.Brands, ds.Categories, ds.Colors),
			Brands:     ds.Brands,
			Categories: ds.Categories,
			Fallback:   true,
		}
	}
	return Listing{
		Products:   Join(products, brands, categories, colors),
		Brands:     brands,
		Categories: categories,
	}
}

// ListProductViews returns every product joined with its brand, category
// and colors, or the default dataset's views when the store fails.
func (s *Service) ListProductViews(ctx context.Context) []model.ProductView {
	return s.LoadListing(ctx).Products
}

// GetProductView loads one product with its brand, category and colors.
// When the store is unreachable the default dataset is searched instead.
func (s *Service) GetProductView(ctx context.Context, id string) (model.ProductView, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.ProductView{}, err
		}
		s.logger.Error("Product unavailable, searching default dataset", "productID", id, "error", err)
		ds := s.fallback()
		for _, v := range Join(ds.Products, ds.Brands, ds.Categories, ds.Colors) {
			if v.ID == id {
				return v, nil
			}
		}
		return model.ProductView{}, fmt.Errorf("product %s: %w", id, storage.ErrNotFound)
	}

	view := model.ProductView{Product: p}
	if p.BrandID != "" {
		if b, err := s.GetBrand(ctx, p.BrandID); err == nil {
			view.BrandName = b.Name
		}
	}
	if p.CategoryID != "" {
		if c, err := s.GetCategory(ctx, p.CategoryID); err == nil {
			view.CategorySlug, view.CategoryName = c.Slug, c.Name
		}
	}
	if view.Colors, err = s.ListColors(ctx, id); err != nil {
		s.logger.Warn("Could not load product colors", "productID", id, "error", err)
	}
	return view, nil
}

// Join denormalizes products with their brand, category and colors.
// Missing references leave the joined fields empty.
func Join(products []model.Product, brands []model.Brand, categories []model.Category, colors []model.ProductColor) []model.ProductView {
	brandByID := make(map[string]model.Brand, len(brands))
	for _, b := range brands {
		brandByID[b.ID] = b
	}
	categoryByID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		categoryByID[c.ID] = c
	}
	colorsByProduct := make(map[string][]model.ProductColor)
	for _, c := range colors {
		colorsByProduct[c.ProductID] = append(colorsByProduct[c.ProductID], c)
	}

	views := make([]model.ProductView, 0, len(products))
	for _, p := range products {
		v := model.ProductView{Product: p, Colors: colorsByProduct[p.ID]}
		if b, ok := brandByID[p.BrandID]; ok {
			v.BrandName = b.Name
		}
		if c, ok := categoryByID[p.CategoryID]; ok {
			v.CategorySlug, v.CategoryName = c.Slug, c.Name
		}
		views = append(views, v)
	}
	return views
}

// ActiveOnly drops products hidden from the storefront.
func ActiveOnly(views []model.ProductView) []model.ProductView {
	out := make([]model.ProductView, 0, len(views))
	for _, v := range views {
		if v.Active {
			out = append(out, v)
		}
	}
	return out
}
