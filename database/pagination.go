package database

// Pagination is the offset-based page window returned alongside list
// results. Page is 1-indexed.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination clamps page and limit into range: page below 1 becomes 1,
// limit below 1 becomes defaultLimit, limit above maxLimit becomes maxLimit.
func NewPagination(page, limit, defaultLimit, maxLimit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// WithTotal records the row count and derives the page count.
func (p Pagination) WithTotal(total int64) Pagination {
	p.Total = total
	if p.Limit > 0 {
		p.Pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return p
}
