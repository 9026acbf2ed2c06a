package repositories

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/pagination"
)

// CatalogFilter is a partial product filter. A nil pointer means the constraint is absent and
// must not take part in the query at all.
type CatalogFilter struct {
	CategoryID *string
	Title      *string // case-insensitive substring
	IsDeleted  bool
}

// ListOptions controls ordering, paging and projection of a catalog query.
type ListOptions struct {
	Page      int
	PerPage   int
	SortField string // database column, already whitelisted
	SortDesc  bool
	Omit      []string // columns never selected
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Product, error)
	Paginate(ctx context.Context, filter CatalogFilter, opts ListOptions) (pagination.Page[models.Product], error)
}
