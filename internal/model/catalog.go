package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Collection names used by the catalog.
const (
	CollectionProducts      = "products"
	CollectionBrands        = "brands"
	CollectionCategories    = "categories"
	CollectionProductColors = "product_colors"
)

// Product is one sellable item in the catalog.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	CategoryID  string          `json:"category_id"`
	BrandID     string          `json:"brand_id"`
	Sizes       []string        `json:"sizes"`    // e.g. S, M, L or 38, 39, 40
	Featured    bool            `json:"featured"` // Highlighted on the storefront
	Active      bool            `json:"active"`   // Hidden from the storefront when false
	CreatedAt   time.Time       `json:"created_at"`
}

// Record flattens the product into store columns. Sizes are kept as a
// comma separated list and the price as its decimal string.
func (p Product) Record() map[string]any {
	return map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.StringFixed(2),
		"image_url":   p.ImageURL,
		"category_id": p.CategoryID,
		"brand_id":    p.BrandID,
		"sizes":       strings.Join(p.Sizes, ","),
		"featured":    p.Featured,
		"active":      p.Active,
	}
}

// Brand is a product manufacturer.
type Brand struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LogoURL   string    `json:"logo_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (b Brand) Record() map[string]any {
	return map[string]any{
		"name":     b.Name,
		"logo_url": b.LogoURL,
	}
}

// Category groups products. Slug is what the storefront filter matches on.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

func (c Category) Record() map[string]any {
	return map[string]any{
		"name": c.Name,
		"slug": c.Slug,
	}
}

// ProductColor is one color variant of a product.
type ProductColor struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Hex       string    `json:"hex"` // "#1a1a1a"
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (c ProductColor) Record() map[string]any {
	return map[string]any{
		"product_id": c.ProductID,
		"name":       c.Name,
		"hex":        c.Hex,
		"image_url":  c.ImageURL,
	}
}

// ProductView is a product denormalized with its brand, category and
// colors, the shape the storefront lists and filters.
type ProductView struct {
	Product
	BrandName    string         `json:"brand"`
	CategorySlug string         `json:"category"`
	CategoryName string         `json:"category_name"`
	Colors       []ProductColor `json:"colors"`
}
