package pagination

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	apperrors "github.com/shelfnotes/bookreview/pkg/errors"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// DefaultParams returns the first page with the default limit.
func DefaultParams() Params {
	return New(DefaultPage, DefaultLimit)
}

// New builds Params for the given page and limit and derives the offset.
func New(page, limit int) Params {
	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// FromRequest extracts page and limit from the query string. Absent values
// take the defaults; values that are not positive integers are rejected with
// an INVALID_PARAMETER error, as is a page whose offset would overflow. Limit
// has no upper bound.
func FromRequest(r *http.Request) (Params, error) {
	q := r.URL.Query()

	page, err := positiveInt(q.Get("page"), DefaultPage, "page")
	if err != nil {
		return Params{}, err
	}
	limit, err := positiveInt(q.Get("limit"), DefaultLimit, "limit")
	if err != nil {
		return Params{}, err
	}
	if page-1 > math.MaxInt/limit {
		return Params{}, apperrors.InvalidParameter("page is out of range for the given limit")
	}

	return New(page, limit), nil
}

func positiveInt(raw string, def int, name string) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, apperrors.InvalidParameter(fmt.Sprintf("%s must be a positive integer", name))
	}
	return v, nil
}

// TotalPages returns ceil(totalCount / limit).
func TotalPages(totalCount, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := totalCount / limit
	if totalCount%limit > 0 {
		pages++
	}
	return pages
}
