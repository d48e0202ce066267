package utils

import "strconv"

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page is a validated page/per_page pair.
type Page struct {
	Page    int
	PerPage int
}

func (p Page) Offset() int { return (p.Page - 1) * p.PerPage }

// ParsePage reads page and per_page query values. Empty values take defaults;
// anything unparsable or out of range reports ok=false.
func ParsePage(pageRaw, perPageRaw string) (Page, bool) {
	p := Page{Page: 1, PerPage: DefaultPerPage}

	if pageRaw != "" {
		n, err := strconv.Atoi(pageRaw)
		if err != nil || n < 1 {
			return Page{}, false
		}
		p.Page = n
	}

	if perPageRaw != "" {
		n, err := strconv.Atoi(perPageRaw)
		if err != nil || n < 1 || n > MaxPerPage {
			return Page{}, false
		}
		p.PerPage = n
	}

	return p, true
}

// TotalPages rounds up; zero items still yields zero pages.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

func ParseIntDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// Paginated is the list envelope returned by every paged endpoint.
type Paginated[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

func NewPaginated[T any](items []T, total int, p Page) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: TotalPages(total, p.PerPage),
	}
}
