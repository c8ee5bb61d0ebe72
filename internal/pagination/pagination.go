// Package pagination slices in-memory collections into pages.
package pagination

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is one slice of a collection together with its position.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// TotalPages returns ceil(total/limit).
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Paginate returns the requested page of items. limit falls back to DefaultLimit and is
// capped at MaxLimit; page is clamped into [1, TotalPages].
func Paginate[T any](items []T, page, limit int) Page[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	total := len(items)
	pages := TotalPages(total, limit)
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	slice := make([]T, end-start)
	copy(slice, items[start:end])

	return Page[T]{
		Items:      slice,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
	}
}
