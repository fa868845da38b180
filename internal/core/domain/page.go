package domain

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageRequest uses 1-based page numbers.
type PageRequest struct {
	Page  int
	Limit int
}

func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
