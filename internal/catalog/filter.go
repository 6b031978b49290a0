package catalog

import (
	"strings"

	"golang.org/x/text/cases"

	"sportstore/internal/model"
)

// Criteria are the storefront listing filters. Category matches a category
// slug, Brand a brand name and Search is a free text term.
type Criteria struct {
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Search   string `json:"q"`
}

// IsAll reports whether a selector value means "no constraint".
func IsAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all") || strings.EqualFold(v, "todas")
}

// Filter returns the products matching every criterion, in input order.
// The input slice is not modified.
func Filter(products []model.ProductView, c Criteria) []model.ProductView {
	// A Caser keeps state, so each call gets its own.
	fold := cases.Fold()
	category := strings.TrimSpace(c.Category)
	brand := fold.String(strings.TrimSpace(c.Brand))
	term := fold.String(strings.TrimSpace(c.Search))

	out := make([]model.ProductView, 0, len(products))
	for _, p := range products {
		if !IsAll(category) && p.CategorySlug != category {
			continue
		}
		if !IsAll(c.Brand) && fold.String(p.BrandName) != brand {
			continue
		}
		if term != "" &&
			!strings.Contains(fold.String(p.Name), term) &&
			!strings.Contains(fold.String(p.Description), term) &&
			!strings.Contains(fold.String(p.BrandName), term) {
			continue
		}
		out = append(out, p)
	}
	return out
}
