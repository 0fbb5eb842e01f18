package domain

import (
	"strings"
	"time"
)

// Book is a catalog entry. AverageRating and ReviewCount are derived from
// the book's reviews and are never set directly by clients.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre"`
	Description   string    `json:"description"`
	AverageRating float64   `json:"averageRating"`
	ReviewCount   int       `json:"reviewCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Normalize trims surrounding whitespace from the text fields.
func (b *Book) Normalize() {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.Genre = strings.TrimSpace(b.Genre)
}

// ApplyRating sets the derived rating fields from a rating summary. The
// review count is only touched when refreshCount is set.
func (b *Book) ApplyRating(s RatingSummary, refreshCount bool) {
	b.AverageRating = s.Average
	if refreshCount {
		b.ReviewCount = s.Count
	}
}
