// Package pagination computes page metadata for offset-paginated listings.
package pagination

import "math"

// Page is one page of a listing together with its metadata. Prev and Next are nil when the
// neighbouring page does not exist.
type Page[T any] struct {
	ItemsList   []T   `json:"itemsList"`
	ItemCount   int64 `json:"itemCount"`
	PerPage     int   `json:"perPage"`
	Page        int   `json:"page"`
	PageCount   int   `json:"pageCount"`
	HasPrevPage bool  `json:"hasPrevPage"`
	HasNextPage bool  `json:"hasNextPage"`
	Prev        *int  `json:"prev"`
	Next        *int  `json:"next"`
	SlNo        int64 `json:"slNo"`
}

// Normalize clamps page and perPage to at least 1, and page to the last page whose offset
// still fits in an int. Such a page is always past the end of any real result set.
func Normalize(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if maxPage := MaxPage(perPage); page > maxPage {
		page = maxPage
	}
	return page, perPage
}

// MaxPage is the highest accepted page. Its offset and slNo both fit in an int.
func MaxPage(perPage int) int {
	if perPage < 1 {
		perPage = 1
	}
	return math.MaxInt / perPage
}

// Offset returns the number of items preceding the given page.
func Offset(page, perPage int) int {
	page, perPage = Normalize(page, perPage)
	return (page - 1) * perPage
}

// New builds a Page from the items of the requested page and the total number of matches.
func New[T any](items []T, itemCount int64, page, perPage int) Page[T] {
	page, perPage = Normalize(page, perPage)
	if items == nil {
		items = []T{}
	}

	pageCount := int((itemCount + int64(perPage) - 1) / int64(perPage))
	p := Page[T]{
		ItemsList:   items,
		ItemCount:   itemCount,
		PerPage:     perPage,
		Page:        page,
		PageCount:   pageCount,
		HasPrevPage: page > 1,
		HasNextPage: page < pageCount,
		SlNo:        int64(Offset(page, perPage)) + 1,
	}
	if p.HasPrevPage {
		prev := page - 1
		p.Prev = &prev
	}
	if p.HasNextPage {
		next := page + 1
		p.Next = &next
	}
	return p
}
