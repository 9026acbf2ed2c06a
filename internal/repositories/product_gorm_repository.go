package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/pagination"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a single product by its ID, soft-deleted ones included.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound(id)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Update applies a partial set of column updates to one product and returns the stored result.
// When fields touch the stock counters, the UPDATE only matches rows where the resulting remain
// does not exceed the resulting quantity, so the invariant holds against concurrent patches.
func (r *GORMProductRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return productNotFound(id)
			}
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		guard, ok := stockGuard(fields)
		if !ok {
			return errStockExceeded
		}
		res := tx.Model(&product).Scopes(guard).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			return err
		}
		// zero rows means the guard failed, or (on mysql) nothing changed
		if after := stockAfter(product.Stock, fields); res.RowsAffected == 0 && after.Remain > after.Quantity {
			return errStockExceeded
		}
		return nil
	})
	if err != nil {
		var appErr *common.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return &product, nil
}

// Paginate counts every product matching filter and loads the requested page.
func (r *GORMProductRepository) Paginate(ctx context.Context, filter CatalogFilter, opts ListOptions) (pagination.Page[models.Product], error) {
	page, perPage := pagination.Normalize(opts.Page, opts.PerPage)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(catalogScope(filter)).Count(&total).Error; err != nil {
		return pagination.Page[models.Product]{}, fmt.Errorf("failed to count products: %w", err)
	}

	products := make([]models.Product, 0, perPage)
	q := r.db.WithContext(ctx).Scopes(catalogScope(filter))
	if len(opts.Omit) > 0 {
		q = q.Omit(opts.Omit...)
	}
	if opts.SortField != "" {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: opts.SortField}, Desc: opts.SortDesc})
	}
	err := q.Order("id").
		Offset(pagination.Offset(page, perPage)).
		Limit(perPage).
		Find(&products).Error
	if err != nil {
		return pagination.Page[models.Product]{}, fmt.Errorf("failed to list products: %w", err)
	}
	return pagination.New(products, total, page, perPage), nil
}

var errStockExceeded = common.NewError(common.ErrValidation, "stock.remain must not exceed stock.quantity")

// stockGuard returns the condition the new stock values must meet. ok is false when both
// counters are set and already violate it.
func stockGuard(fields map[string]interface{}) (scope func(*gorm.DB) *gorm.DB, ok bool) {
	quantity, hasQuantity := fields["stock_quantity"]
	remain, hasRemain := fields["stock_remain"]
	switch {
	case hasQuantity && hasRemain:
		q, qok := quantity.(int)
		rm, rok := remain.(int)
		if qok && rok && rm > q {
			return nil, false
		}
		return func(db *gorm.DB) *gorm.DB { return db }, true
	case hasQuantity:
		return func(db *gorm.DB) *gorm.DB { return db.Where("stock_remain <= ?", quantity) }, true
	case hasRemain:
		return func(db *gorm.DB) *gorm.DB { return db.Where("stock_quantity >= ?", remain) }, true
	}
	return func(db *gorm.DB) *gorm.DB { return db }, true
}

func stockAfter(stored models.Stock, fields map[string]interface{}) models.Stock {
	if q, ok := fields["stock_quantity"].(int); ok {
		stored.Quantity = q
	}
	if rm, ok := fields["stock_remain"].(int); ok {
		stored.Remain = rm
	}
	return stored
}

func catalogScope(filter CatalogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("is_deleted = ?", filter.IsDeleted)
		if filter.CategoryID != nil {
			db = db.Where("category_id = ?", *filter.CategoryID)
		}
		if filter.Title != nil {
			db = db.Where("LOWER(title) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(*filter.Title))+"%")
		}
		return db
	}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func productNotFound(id string) error {
	return common.NewError(common.ErrNotFound, fmt.Sprintf("Product with ID %s not found", id))
}
