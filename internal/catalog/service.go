// Package catalog holds the storefront catalog: typed CRUD over the
// product collections, the joined product views, listing filters and the
// WhatsApp checkout handoff.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"sportstore/internal/model"
	"sportstore/internal/seed"
	"sportstore/internal/storage"
)

// ErrInvalidInput is returned when a form value fails validation. The detail
// after the sentinel is shown to shop staff, so it is written in Spanish.
var ErrInvalidInput = errors.New("invalid input")

// Service provides catalog operations over a DataStore.
type Service struct {
	store    storage.DataStore
	logger   *slog.Logger
	fallback func() seed.Dataset
}

// NewService creates a new Service. Listings fall back to the embedded
// default dataset when the store cannot be read.
func NewService(store storage.DataStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, logger: logger, fallback: seed.Defaults}
}

// ProductInput holds the editable fields of a product.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	CategoryID  string
	BrandID     string
	Sizes       []string
	Featured    bool
	Active      bool
}

// ParsePrice reads a price typed into a form. Both "12.50" and "12,50"
// are accepted.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: el precio %q no es un número", ErrInvalidInput, s)
	}
	return d, nil
}

// ParseSizes splits a comma separated size list, dropping blanks.
func ParseSizes(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Service) checkProduct(ctx context.Context, in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: el nombre del producto es obligatorio", ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: el precio no puede ser negativo", ErrInvalidInput)
	}
	if in.BrandID != "" {
		if err := s.exists(ctx, model.CollectionBrands, in.BrandID); err != nil {
			return err
		}
	}
	if in.CategoryID != "" {
		if err := s.exists(ctx, model.CollectionCategories, in.CategoryID); err != nil {
			return err
		}
	}
	return nil
}

// recordNames name a referenced record in validation messages.
var recordNames = map[string]string{
	model.CollectionBrands:     "la marca",
	model.CollectionCategories: "la categoría",
	model.CollectionProducts:   "el producto",
}

func (s *Service) exists(ctx context.Context, collection, id string) error {
	_, err := s.store.Get(ctx, collection, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: no existe %s %q", ErrInvalidInput, recordNames[collection], id)
	}
	return err
}

func (in ProductInput) product() model.Product {
	return model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		CategoryID:  in.CategoryID,
		BrandID:     in.BrandID,
		Sizes:       in.Sizes,
		Featured:    in.Featured,
		Active:      in.Active,
	}
}

// ListProducts returns every product, newest first.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	recs, err := s.store.List(ctx, model.CollectionProducts, storage.Query{}.Sort("created_at", true))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return storage.DecodeAll[model.Product](recs)
}

// GetProduct loads one product.
func (s *Service) GetProduct(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	if err := s.get(ctx, model.CollectionProducts, id, &p); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (model.Product, error) {
	if err := s.checkProduct(ctx, in); err != nil {
		return model.Product{}, err
	}
	var p model.Product
	if err := s.insert(ctx, model.CollectionProducts, in.product().Record(), &p); err != nil {
		return model.Product{}, err
	}
	s.logger.Info("Created product", "productID", p.ID, "name", p.Name)
	return p, nil
}

// UpdateProduct replaces a product's editable fields.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) error {
	if err := s.checkProduct(ctx, in); err != nil {
		return err
	}
	if err := s.store.Update(ctx, model.CollectionProducts, id, in.product().Record()); err != nil {
		return fmt.Errorf("update product %s: %w", id, err)
	}
	s.logger.Info("Updated product", "productID", id)
	return nil
}

// DeleteProduct removes a product and its colors.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, model.CollectionProducts, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	colors, err := s.ListColors(ctx, id)
	if err != nil {
		s.logger.Warn("Could not list colors of deleted product", "productID", id, "error", err)
		return nil
	}
	for _, c := range colors {
		if err := s.store.Delete(ctx, model.CollectionProductColors, c.ID); err != nil {
			s.logger.Warn("Could not delete color of deleted product", "productID", id, "colorID", c.ID, "error", err)
		}
	}
	s.logger.Info("Deleted product", "productID", id, "colors", len(colors))
	return nil
}

// ListBrands returns every brand by name.
func (s *Service) ListBrands(ctx context.Context) ([]model.Brand, error) {
	recs, err := s.store.List(ctx, model.CollectionBrands, storage.Query{}.Sort("name", false))
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return storage.DecodeAll[model.Brand](recs)
}

// GetBrand loads one brand.
func (s *Service) GetBrand(ctx context.Context, id string) (model.Brand, error) {
	var b model.Brand
	if err := s.get(ctx, model.CollectionBrands, id, &b); err != nil {
		return model.Brand{}, err
	}
	return b, nil
}

func brandFrom(name, logoURL string) (model.Brand, error) {
	b := model.Brand{Name: strings.TrimSpace(name), LogoURL: strings.TrimSpace(logoURL)}
	if b.Name == "" {
		return b, fmt.Errorf("%w: el nombre de la marca es obligatorio", ErrInvalidInput)
	}
	return b, nil
}

// CreateBrand stores a new brand.
func (s *Service) CreateBrand(ctx context.Context, name, logoURL string) (model.Brand, error) {
	b, err := brandFrom(name, logoURL)
	if err != nil {
		return model.Brand{}, err
	}
	if err := s.insert(ctx, model.CollectionBrands, b.Record(), &b); err != nil {
		return model.Brand{}, err
	}
	s.logger.Info("Created brand", "brandID", b.ID, "name", b.Name)
	return b, nil
}

// UpdateBrand renames a brand or changes its logo.
func (s *Service) UpdateBrand(ctx context.Context, id, name, logoURL string) error {
	b, err := brandFrom(name, logoURL)
	if err != nil {
		return err
	}
	if err := s.store.Update(ctx, model.CollectionBrands, id, b.Record()); err != nil {
		return fmt.Errorf("update brand %s: %w", id, err)
	}
	return nil
}

// DeleteBrand removes a brand. Products keep the dangling id and list
// without a brand name.
func (s *Service) DeleteBrand(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, model.CollectionBrands, id); err != nil {
		return fmt.Errorf("delete brand %s: %w", id, err)
	}
	s.logger.Info("Deleted brand", "brandID", id)
	return nil
}

// ListCategories returns every category by name.
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	recs, err := s.store.List(ctx, model.CollectionCategories, storage.Query{}.Sort("name", false))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return storage.DecodeAll[model.Category](recs)
}

// GetCategory loads one category.
func (s *Service) GetCategory(ctx context.Context, id string) (model.Category, error) {
	var c model.Category
	if err := s.get(ctx, model.CollectionCategories, id, &c); err != nil {
		return model.Category{}, err
	}
	return c, nil
}

// categoryFrom validates the form values and derives a slug from the name
// when none is given. selfID is excluded from the uniqueness check.
func (s *Service) categoryFrom(ctx context.Context, selfID, name, slug string) (model.Category, error) {
	c := model.Category{Name: strings.TrimSpace(name), Slug: strings.TrimSpace(slug)}
	if c.Name == "" {
		return c, fmt.Errorf("%w: el nombre de la categoría es obligatorio", ErrInvalidInput)
	}
	if c.Slug == "" {
		c.Slug = seed.Slug(c.Name)
	} else {
		c.Slug = seed.Slug(c.Slug)
	}
	if IsAll(c.Slug) {
		return c, fmt.Errorf("%w: %q es una palabra reservada", ErrInvalidInput, c.Slug)
	}
	recs, err := s.store.List(ctx, model.CollectionCategories, storage.Query{}.Where("slug", c.Slug))
	if err != nil {
		return c, fmt.Errorf("check category slug: %w", err)
	}
	for _, r := range recs {
		if r.ID() != selfID {
			return c, fmt.Errorf("%w: el slug %q ya está en uso", ErrInvalidInput, c.Slug)
		}
	}
	return c, nil
}

// CreateCategory stores a new category.
func (s *Service) CreateCategory(ctx context.Context, name, slug string) (model.Category, error) {
	c, err := s.categoryFrom(ctx, "", name, slug)
	if err != nil {
		return model.Category{}, err
	}
	if err := s.insert(ctx, model.CollectionCategories, c.Record(), &c); err != nil {
		return model.Category{}, err
	}
	s.logger.Info("Created category", "categoryID", c.ID, "slug", c.Slug)
	return c, nil
}

// UpdateCategory renames a category. An empty slug is derived again from
// the name.
func (s *Service) UpdateCategory(ctx context.Context, id, name, slug string) error {
	c, err := s.categoryFrom(ctx, id, name, slug)
	if err != nil {
		return err
	}
	if err := s.store.Update(ctx, model.CollectionCategories, id, c.Record()); err != nil {
		return fmt.Errorf("update category %s: %w", id, err)
	}
	return nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, model.CollectionCategories, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	s.logger.Info("Deleted category", "categoryID", id)
	return nil
}

// ColorInput holds the fields of a new product color.
type ColorInput struct {
	Name     string
	Hex      string
	ImageURL string
}

// ListColors returns the colors of one product in creation order.
func (s *Service) ListColors(ctx context.Context, productID string) ([]model.ProductColor, error) {
	q := storage.Query{}.Where("product_id", productID).Sort("created_at", false).Sort("id", false)
	recs, err := s.store.List(ctx, model.CollectionProductColors, q)
	if err != nil {
		return nil, fmt.Errorf("list colors of %s: %w", productID, err)
	}
	return storage.DecodeAll[model.ProductColor](recs)
}

// AddColor attaches a color variant to a product.
func (s *Service) AddColor(ctx context.Context, productID string, in ColorInput) (model.ProductColor, error) {
	c := model.ProductColor{
		ProductID: productID,
		Name:      strings.TrimSpace(in.Name),
		Hex:       strings.ToLower(strings.TrimSpace(in.Hex)),
		ImageURL:  strings.TrimSpace(in.ImageURL),
	}
	if c.Name == "" {
		return model.ProductColor{}, fmt.Errorf("%w: el nombre del color es obligatorio", ErrInvalidInput)
	}
	if c.Hex != "" && !validHex(c.Hex) {
		return model.ProductColor{}, fmt.Errorf("%w: %q no es un color #rrggbb", ErrInvalidInput, c.Hex)
	}
	if err := s.exists(ctx, model.CollectionProducts, productID); err != nil {
		return model.ProductColor{}, err
	}
	if err := s.insert(ctx, model.CollectionProductColors, c.Record(), &c); err != nil {
		return model.ProductColor{}, err
	}
	return c, nil
}

// DeleteColor removes one color variant.
func (s *Service) DeleteColor(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, model.CollectionProductColors, id); err != nil {
		return fmt.Errorf("delete color %s: %w", id, err)
	}
	return nil
}

func validHex(h string) bool {
	if len(h) != 7 || h[0] != '#' {
		return false
	}
	for _, r := range h[1:] {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

func (s *Service) get(ctx context.Context, collection, id string, out any) error {
	rec, err := s.store.Get(ctx, collection, id)
	if err != nil {
		return fmt.Errorf("get %s %s: %w", collection, id, err)
	}
	if err := storage.Decode(rec, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", collection, id, err)
	}
	return nil
}

func (s *Service) insert(ctx context.Context, collection string, fields map[string]any, out any) error {
	stored, err := s.store.Insert(ctx, collection, fields)
	if err != nil {
		return fmt.Errorf("insert %s: %w", collection, err)
	}
	if err := storage.Decode(stored, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}
