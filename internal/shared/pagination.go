package shared

import "math"

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata. A page beyond the last one is
// not an error; callers simply receive an empty result set alongside the
// real totals.
func NewPagination(page, size, total int) Pagination {
	if size <= 0 {
		size = 100
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(size)))
	return Pagination{Page: page, Size: size, Total: total, TotalPages: totalPages}
}
