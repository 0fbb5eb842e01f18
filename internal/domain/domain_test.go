package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewsWithRatings(ratings ...int) []Review {
	out := make([]Review, len(ratings))
	for i, r := range ratings {
		out[i] = Review{Rating: r}
	}
	return out
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    RatingSummary
	}{
		{"empty", nil, RatingSummary{}},
		{"single", []int{4}, RatingSummary{Average: 4, Count: 1}},
		{"mean is not rounded", []int{5, 4, 4}, RatingSummary{Average: 13.0 / 3.0, Count: 3}},
		{"all ones", []int{1, 1}, RatingSummary{Average: 1, Count: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(reviewsWithRatings(tt.ratings...)))
		})
	}
}

func TestBook_ApplyRating(t *testing.T) {
	b := Book{AverageRating: 3, ReviewCount: 2}

	b.ApplyRating(RatingSummary{Average: 4.5, Count: 2}, false)
	assert.Equal(t, 4.5, b.AverageRating)
	assert.Equal(t, 2, b.ReviewCount)

	b.ApplyRating(RatingSummary{}, true)
	assert.Zero(t, b.AverageRating)
	assert.Zero(t, b.ReviewCount)
}

func TestBook_Normalize(t *testing.T) {
	b := Book{Title: "  The Hobbit ", Author: "\tJ.R.R. Tolkien\n", Genre: " Fantasy", Description: "  kept  "}
	b.Normalize()

	assert.Equal(t, "The Hobbit", b.Title)
	assert.Equal(t, "J.R.R. Tolkien", b.Author)
	assert.Equal(t, "Fantasy", b.Genre)
	assert.Equal(t, "  kept  ", b.Description)
}

func TestReviewPatch_Apply(t *testing.T) {
	r := Review{Rating: 2, Comment: "meh"}

	ReviewPatch{}.Apply(&r)
	assert.Equal(t, Review{Rating: 2, Comment: "meh"}, r)

	rating := 5
	ReviewPatch{Rating: &rating}.Apply(&r)
	assert.Equal(t, 5, r.Rating)
	assert.Equal(t, "meh", r.Comment)

	comment := "changed my mind"
	ReviewPatch{Comment: &comment}.Apply(&r)
	assert.Equal(t, "changed my mind", r.Comment)
}

func TestIsValidRating(t *testing.T) {
	assert.False(t, IsValidRating(0))
	assert.True(t, IsValidRating(1))
	assert.True(t, IsValidRating(5))
	assert.False(t, IsValidRating(6))
}

func TestWireNames(t *testing.T) {
	raw, err := json.Marshal(Review{ID: "r1", BookID: "b1", UserID: "u1", Rating: 3})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"id", "book", "user", "rating", "comment", "createdAt", "updatedAt"} {
		assert.Contains(t, m, key)
	}

	raw, err = json.Marshal(Book{ID: "b1"})
	require.NoError(t, err)
	m = nil
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"averageRating", "reviewCount", "description", "genre"} {
		assert.Contains(t, m, key)
	}
}
