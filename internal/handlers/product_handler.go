package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"storefront/internal/common"
	"storefront/internal/middleware"
	"storefront/internal/services"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	products  *services.ProductService
	tokens    *services.TokenService
	adminRole string
	validate  *validator.Validate
}

// NewProductHandler creates a new ProductHandler. Mutations require adminRole.
func NewProductHandler(products *services.ProductService, tokens *services.TokenService, adminRole string) *ProductHandler {
	return &ProductHandler{
		products:  products,
		tokens:    tokens,
		adminRole: adminRole,
		validate:  common.NewValidator(),
	}
}

// RegisterRoutes registers the product routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Post("/", middleware.Protected(h.tokens, h.adminRole), h.HandleCreateProduct)
	productRoutes.Patch("/", middleware.Protected(h.tokens, h.adminRole), h.HandleUpdateProduct)
}

// HandleListProducts returns one page of the catalog. An empty page is a 404.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	var params services.ListProductsParams
	if err := c.QueryParser(&params); err != nil {
		return common.NewError(common.ErrValidation, "Invalid query parameters")
	}

	page, err := h.products.ListProducts(c.UserContext(), params)
	if err != nil {
		return err
	}
	return common.RespondWithJSON(c, fiber.StatusOK, "The product list", page)
}

// HandleGetProduct returns one non-deleted product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.products.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return common.RespondWithJSON(c, fiber.StatusOK, "Get product successfully", product)
}

// HandleCreateProduct validates and stores a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req services.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	if err := common.Validate(h.validate, req); err != nil {
		return err
	}

	product, err := h.products.CreateProduct(c.UserContext(), req)
	if err != nil {
		return err
	}
	return common.RespondWithJSON(c, fiber.StatusCreated, "Product created successfully", product)
}

// HandleUpdateProduct applies a partial update keyed by the id in the body.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var patch services.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody()
	}
	if patch.ID == "" {
		return common.NewError(common.ErrValidation, "Missing product id")
	}
	if err := common.Validate(h.validate, patch); err != nil {
		return err
	}

	product, err := h.products.UpdateProduct(c.UserContext(), patch)
	if err != nil {
		return err
	}
	return common.RespondWithJSON(c, fiber.StatusOK, "Product was updated successfully", product)
}
