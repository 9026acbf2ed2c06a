package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"storefront/internal/common"
	"storefront/internal/config"
	"storefront/internal/pagination"
	"storefront/internal/repositories"
)

// ListProductsParams are the raw, untrusted listing query parameters. Every field may be empty.
type ListProductsParams struct {
	Page     string `query:"page"`
	PerPage  string `query:"perpage"`
	Sort     string `query:"sort"`
	Title    string `query:"title"`
	Category string `query:"category"`
	SortBy   string `query:"sortBy"`
}

const (
	SortAsc  = "asc"
	SortDesc = "desc"

	defaultSortBy = "price"
)

// sortFields whitelists the sortBy values and maps them to database columns.
var sortFields = map[string]string{
	"price":   "price",
	"date":    "created_at",
	"selling": "total_selling",
}

// ResolveSortField maps sortBy through the whitelist. Unknown or empty values sort by price.
func ResolveSortField(sortBy string) string {
	if field, ok := sortFields[sortBy]; ok {
		return field
	}
	return sortFields[defaultSortBy]
}

// ResolveSortDirection accepts asc or desc and defaults to desc.
func ResolveSortDirection(sort string) string {
	if sort == SortAsc {
		return SortAsc
	}
	return SortDesc
}

// CatalogQueryBuilder turns listing parameters into a partial filter and list options.
type CatalogQueryBuilder struct {
	categories     CategoryResolver
	defaultPerPage int
	maxPerPage     int
}

// NewCatalogQueryBuilder creates a CatalogQueryBuilder.
func NewCatalogQueryBuilder(categories CategoryResolver, cfg config.Catalog) *CatalogQueryBuilder {
	return &CatalogQueryBuilder{
		categories:     categories,
		defaultPerPage: cfg.DefaultPerPage,
		maxPerPage:     cfg.MaxPerPage,
	}
}

// Build resolves the category slug first; an unknown slug returns a not-found error so no
// product query is ever issued for it. Absent parameters add no constraint to the filter.
func (b *CatalogQueryBuilder) Build(ctx context.Context, params ListProductsParams) (repositories.CatalogFilter, repositories.ListOptions, error) {
	filter := repositories.CatalogFilter{IsDeleted: false}

	if params.Category != "" {
		categoryID, err := b.categories.ResolveSlug(ctx, params.Category)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return repositories.CatalogFilter{}, repositories.ListOptions{},
					common.NewError(common.ErrNotFound, "Server not found any resources.")
			}
			return repositories.CatalogFilter{}, repositories.ListOptions{}, err
		}
		filter.CategoryID = &categoryID
	}
	if params.Title != "" {
		title := params.Title
		filter.Title = &title
	}

	perPage := parsePositive(params.PerPage, b.defaultPerPage)
	if b.maxPerPage > 0 && perPage > b.maxPerPage {
		perPage = b.maxPerPage
	}
	page := parsePositive(params.Page, 1)
	if maxPage := pagination.MaxPage(perPage); page > maxPage {
		page = maxPage
	}
	opts := repositories.ListOptions{
		Page:      page,
		PerPage:   perPage,
		SortField: ResolveSortField(params.SortBy),
		SortDesc:  ResolveSortDirection(params.Sort) == SortDesc,
		Omit:      []string{"is_deleted"},
	}
	return filter, opts, nil
}

// parsePositive saturates values too large for an int instead of discarding them, so an
// absurd page number still lands past the last page.
func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return n
	}
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
