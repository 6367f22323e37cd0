package pagination

import (
	"math"
	"strconv"

	"github.com/blogsphere/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page  int
	Limit int
}

// FromContext extracts and validates pagination params from the request.
// Non-numeric or non-positive values fall back to the defaults.
func FromContext(c *gin.Context) Query {
	return New(parseIntOr(c.Query("page"), DefaultPage), parseIntOr(c.Query("limit"), DefaultLimit))
}

// New normalizes page and limit.
func New(page, limit int) Query {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	// (page-1)*limit must stay representable.
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	return Query{Page: page, Limit: limit}
}

// Skip is the number of records preceding the requested page.
// It saturates instead of overflowing for a Query built without New.
func (q Query) Skip() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// Summary builds the pagination metadata for a total match count.
func (q Query) Summary(total int64) response.Pagination {
	return response.Pagination{
		Page:  q.Page,
		Limit: q.Limit,
		Total: total,
		Pages: Pages(total, q.Limit),
	}
}

// Pages returns ceil(total/limit).
func Pages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// SliceLen is the expected number of items on page q for total matches.
func (q Query) SliceLen(total int64) int {
	remaining := total - int64(q.Skip())
	if remaining <= 0 {
		return 0
	}
	if remaining < int64(q.Limit) {
		return int(remaining)
	}
	return q.Limit
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
