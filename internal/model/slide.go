package model

import "time"

// CollectionSlides holds the homepage carousel.
const CollectionSlides = "hero_slides"

// Slide represents one homepage carousel entry.
type Slide struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	LegacyImage string    `json:"image"` // Older rows only carry this field, see Image()
	Order       int       `json:"order"` // Display rank key, ascending left to right
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Image returns the slide's image reference, preferring image_url.
func (s Slide) Image() string {
	if s.ImageURL != "" {
		return s.ImageURL
	}
	return s.LegacyImage
}

// Record returns the editable columns. The order key is written only on
// create and by reordering.
func (s Slide) Record() map[string]any {
	return map[string]any{
		"title":       s.Title,
		"subtitle":    s.Subtitle,
		"description": s.Description,
		"image_url":   s.Image(),
		"active":      s.Active,
	}
}
