package domain

// Pagination describes the server-side paging metadata returned alongside
// list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Page bundles one page of items with its paging metadata.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}
