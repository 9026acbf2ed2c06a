package services

import (
	"context"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/pagination"
	"storefront/internal/repositories"
)

// StockInput is the writable part of a product's stock on creation.
type StockInput struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// CreateProductRequest is the product creation body. Slug, remain, total_selling and
// isDeleted are derived and cannot be set by the client.
type CreateProductRequest struct {
	Category     string     `json:"category" validate:"required"`
	Title        string     `json:"title" validate:"required,max=255"`
	SortDesc     string     `json:"sortDesc" validate:"required"`
	LongDesc     string     `json:"longDesc"`
	Stock        StockInput `json:"stock"`
	Color        []string   `json:"color" validate:"dive,required"`
	Price        float64    `json:"price" validate:"gte=0"`
	SalePrice    *float64   `json:"sale_price" validate:"omitempty,gte=0"`
	ImageURL     string     `json:"image_url" validate:"required,url"`
	GalleryImage []string   `json:"gallery_image" validate:"dive,url"`
}

// StockPatch changes one or both stock counters.
type StockPatch struct {
	Quantity *int `json:"quantity" validate:"omitempty,gte=0"`
	Remain   *int `json:"remain" validate:"omitempty,gte=0"`
}

// ProductPatch is a partial product update keyed by ID. Nil fields are left untouched.
type ProductPatch struct {
	ID           string      `json:"id"`
	Category     *string     `json:"category"`
	Title        *string     `json:"title" validate:"omitempty,min=1,max=255"`
	SortDesc     *string     `json:"sortDesc"`
	LongDesc     *string     `json:"longDesc"`
	Stock        *StockPatch `json:"stock"`
	Color        []string    `json:"color" validate:"omitempty,dive,required"`
	Price        *float64    `json:"price" validate:"omitempty,gte=0"`
	SalePrice    *float64    `json:"sale_price" validate:"omitempty,gte=0"`
	ImageURL     *string     `json:"image_url" validate:"omitempty,url"`
	GalleryImage []string    `json:"gallery_image" validate:"omitempty,dive,url"`
	IsDeleted    *bool       `json:"isDeleted"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	query     *CatalogQueryBuilder
	publisher EventPublisher
	log       *zap.Logger
}

// NewProductService creates a new ProductService. publisher may be nil.
func NewProductService(repo repositories.ProductRepository, query *CatalogQueryBuilder, publisher EventPublisher, log *zap.Logger) *ProductService {
	return &ProductService{
		repo:      repo,
		query:     query,
		publisher: publisher,
		log:       log,
	}
}

// CreateProduct stores a new product. The slug is derived from the title and is not unique;
// the ID stays the authoritative identifier.
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	product := &models.Product{
		CategoryID:   req.Category,
		Title:        req.Title,
		SortDesc:     req.SortDesc,
		LongDesc:     req.LongDesc,
		Stock:        models.Stock{Quantity: req.Stock.Quantity, Remain: req.Stock.Quantity},
		Color:        datatypes.JSONSlice[string](nonNil(req.Color)),
		Slug:         slug.Make(req.Title),
		Price:        req.Price,
		SalePrice:    req.SalePrice,
		ImageURL:     req.ImageURL,
		GalleryImage: datatypes.JSONSlice[string](nonNil(req.GalleryImage)),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	publishEvent(s.log, s.publisher, EventProductCreated, map[string]interface{}{
		"id":       product.ID,
		"slug":     product.Slug,
		"category": product.CategoryID,
		"price":    product.Price,
	})
	return product, nil
}

// UpdateProduct applies patch to the product it names. The slug is kept when the title
// changes so existing links stay valid.
func (s *ProductService) UpdateProduct(ctx context.Context, patch ProductPatch) (*models.Product, error) {
	if patch.ID == "" {
		return nil, common.NewError(common.ErrValidation, "Missing product id")
	}

	fields := make(map[string]interface{})
	if patch.Category != nil {
		fields["category_id"] = *patch.Category
	}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.SortDesc != nil {
		fields["sort_desc"] = *patch.SortDesc
	}
	if patch.LongDesc != nil {
		fields["long_desc"] = *patch.LongDesc
	}
	if patch.Stock != nil {
		// remain <= quantity is enforced by the repository against the stored row
		if patch.Stock.Quantity != nil {
			fields["stock_quantity"] = *patch.Stock.Quantity
		}
		if patch.Stock.Remain != nil {
			fields["stock_remain"] = *patch.Stock.Remain
		}
	}
	if patch.Color != nil {
		fields["color"] = datatypes.JSONSlice[string](patch.Color)
	}
	if patch.Price != nil {
		fields["price"] = *patch.Price
	}
	if patch.SalePrice != nil {
		fields["sale_price"] = *patch.SalePrice
	}
	if patch.ImageURL != nil {
		fields["image_url"] = *patch.ImageURL
	}
	if patch.GalleryImage != nil {
		fields["gallery_image"] = datatypes.JSONSlice[string](patch.GalleryImage)
	}
	if patch.IsDeleted != nil {
		fields["is_deleted"] = *patch.IsDeleted
	}

	product, err := s.repo.Update(ctx, patch.ID, fields)
	if err != nil {
		return nil, err
	}

	publishEvent(s.log, s.publisher, EventProductUpdated, map[string]interface{}{
		"id":        product.ID,
		"isDeleted": product.IsDeleted,
	})
	return product, nil
}

// ListProducts returns one page of non-deleted products. An unknown category or an empty page
// is reported as not found.
func (s *ProductService) ListProducts(ctx context.Context, params ListProductsParams) (pagination.Page[models.Product], error) {
	filter, opts, err := s.query.Build(ctx, params)
	if err != nil {
		return pagination.Page[models.Product]{}, err
	}
	page, err := s.repo.Paginate(ctx, filter, opts)
	if err != nil {
		return pagination.Page[models.Product]{}, err
	}
	if len(page.ItemsList) == 0 {
		return pagination.Page[models.Product]{}, common.NewError(common.ErrNotFound, "The server not found any resources.")
	}
	return page, nil
}

// GetProductByID returns a product unless it does not exist or is soft-deleted.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.IsDeleted {
		return nil, common.NewError(common.ErrNotFound, "Product with ID "+id+" not found")
	}
	return product, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
