package domain

import (
	"time"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a single user's rating of a book. A user has at most one
// review per book.
type Review struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book"`
	UserID    string    `json:"user"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReviewPatch carries the optional fields of a review update.
type ReviewPatch struct {
	Rating  *int
	Comment *string
}

// Apply copies the present patch fields onto r.
func (p ReviewPatch) Apply(r *Review) {
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.Comment != nil {
		r.Comment = *p.Comment
	}
}

// RatingSummary is the aggregate of a book's reviews.
type RatingSummary struct {
	Average float64
	Count   int
}

// Summarize returns the arithmetic mean and count of the reviews' ratings.
// An empty set yields a zero summary.
func Summarize(reviews []Review) RatingSummary {
	if len(reviews) == 0 {
		return RatingSummary{}
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return RatingSummary{
		Average: float64(sum) / float64(len(reviews)),
		Count:   len(reviews),
	}
}

// IsValidRating reports whether rating is within MinRating..MaxRating.
func IsValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
