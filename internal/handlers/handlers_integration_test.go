package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/common"
	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/models"
	"storefront/internal/pagination"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

type testEnv struct {
	app        *fiber.App
	db         *gorm.DB
	tokens     *services.TokenService
	categoryID string
}

// setupApp sets up a Fiber app for testing with a private in-memory SQLite database and all
// handlers and services.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	authCfg := config.Auth{
		JWTSecret:   "test_jwt_secret",
		TokenTTL:    time.Hour,
		BcryptCost:  bcrypt.MinCost,
		DefaultRole: services.RoleCustomer,
		AdminRole:   services.RoleAdmin,
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Category{}, &models.Product{}))

	// Initialize Repositories
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)

	phones := &models.Category{Name: "Phones", Slug: "phones"}
	require.NoError(t, categoryRepo.Create(context.Background(), phones))

	// Initialize Services
	log := zap.NewNop()
	tokens := services.NewTokenService(authCfg)
	categories := services.NewCategoryService(categoryRepo, nil, 0, log)
	query := services.NewCatalogQueryBuilder(categories, config.Catalog{DefaultPerPage: 10, MaxPerPage: 100})
	productService := services.NewProductService(productRepo, query, nil, log)
	accountService := services.NewAccountService(userRepo, services.NewPasswordHasher(authCfg.BcryptCost), tokens, nil, authCfg, log)

	// Initialize Handlers
	app := fiber.New(fiber.Config{ErrorHandler: common.ErrorHandler(log)})
	handlers.NewAccountHandler(accountService, tokens, nil).RegisterRoutes(app)
	handlers.NewProductHandler(productService, tokens, authCfg.AdminRole).RegisterRoutes(app)

	return &testEnv{app: app, db: db, tokens: tokens, categoryID: phones.ID}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

type tokenResponse struct {
	Msg   string `json:"msg"`
	Token string `json:"token"`
}

type envelope[T any] struct {
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

func signupBody(username, email string) map[string]string {
	return map[string]string{
		"fullname": "Test User",
		"username": username,
		"email":    email,
		"password": "password123",
	}
}

// adminToken signs up a user, promotes it in storage and logs it in again.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	status, _ := e.request(t, http.MethodPost, "/account", signupBody("admin", "admin@example.com"), "")
	require.Equal(t, http.StatusCreated, status)
	require.NoError(t, e.db.Model(&models.User{}).Where("username = ?", "admin").Update("role", services.RoleAdmin).Error)

	status, raw := e.request(t, http.MethodPost, "/account/login", map[string]string{"username": "admin", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, status)
	return decode[tokenResponse](t, raw).Token
}

func TestAccountSignup(t *testing.T) {
	env := setupApp(t)

	status, raw := env.request(t, http.MethodPost, "/account", signupBody("testuser", "test@example.com"), "")
	require.Equal(t, http.StatusCreated, status, string(raw))
	resp := decode[tokenResponse](t, raw)
	assert.Equal(t, "User create successfully", resp.Msg)

	claims, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.Username)
	assert.Equal(t, services.RoleCustomer, claims.Role)

	// the same email is rejected before the username is looked at
	status, raw = env.request(t, http.MethodPost, "/account", signupBody("testuser", "test@example.com"), "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already exist, please try another one!", decode[common.Envelope](t, raw).Msg)

	status, raw = env.request(t, http.MethodPost, "/account", signupBody("testuser", "other@example.com"), "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username already exist, please try another one!", decode[common.Envelope](t, raw).Msg)

	status, raw = env.request(t, http.MethodPost, "/account", map[string]string{"username": "nobody"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required keys", decode[common.Envelope](t, raw).Msg)
}

func TestAccountLoginAndProfile(t *testing.T) {
	env := setupApp(t)
	status, _ := env.request(t, http.MethodPost, "/account", signupBody("testuser", "test@example.com"), "")
	require.Equal(t, http.StatusCreated, status)

	status, _ = env.request(t, http.MethodPost, "/account/login", map[string]string{"username": "testuser", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw := env.request(t, http.MethodPost, "/account/login", map[string]string{"username": "testuser", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, status)
	token := decode[tokenResponse](t, raw).Token

	status, _ = env.request(t, http.MethodGet, "/account/testuser", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw = env.request(t, http.MethodGet, "/account/testuser", nil, token)
	require.Equal(t, http.StatusOK, status)
	profile := decode[envelope[map[string]interface{}]](t, raw)
	assert.Equal(t, "Get user successfully", profile.Msg)
	assert.Equal(t, "test@example.com", profile.Data["email"])
	assert.NotContains(t, profile.Data, "password")

	status, _ = env.request(t, http.MethodGet, "/account/ghost", nil, token)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = env.request(t, http.MethodPatch, "/account", map[string]string{"fullname": "Renamed User"}, token)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "Renamed User", decode[envelope[models.User]](t, raw).Data.Fullname)
}

func TestAccountProfileIsPrivate(t *testing.T) {
	env := setupApp(t)
	status, _ := env.request(t, http.MethodPost, "/account", signupBody("victim", "victim@example.com"), "")
	require.Equal(t, http.StatusCreated, status)
	status, raw := env.request(t, http.MethodPost, "/account", signupBody("other", "other@example.com"), "")
	require.Equal(t, http.StatusCreated, status)
	otherToken := decode[tokenResponse](t, raw).Token

	status, raw = env.request(t, http.MethodGet, "/account/victim", nil, otherToken)
	assert.Equal(t, http.StatusForbidden, status)
	assert.NotContains(t, string(raw), "victim@example.com")

	status, raw = env.request(t, http.MethodGet, "/account/other", nil, otherToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "other@example.com", decode[envelope[models.User]](t, raw).Data.Email)
}

func TestProductEndpointsWithoutAuth(t *testing.T) {
	env := setupApp(t)

	status, _ := env.request(t, http.MethodPost, "/products", map[string]interface{}{"title": "Unauthorized"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.request(t, http.MethodPatch, "/products", map[string]interface{}{"id": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw := env.request(t, http.MethodPost, "/account", signupBody("customer", "customer@example.com"), "")
	require.Equal(t, http.StatusCreated, status)
	customerToken := decode[tokenResponse](t, raw).Token

	status, _ = env.request(t, http.MethodPost, "/products", map[string]interface{}{"title": "Forbidden"}, customerToken)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestProductLifecycle(t *testing.T) {
	env := setupApp(t)
	token := env.adminToken(t)

	status, raw := env.request(t, http.MethodGet, "/products", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "The server not found any resources.", decode[common.Envelope](t, raw).Msg)

	newProduct := map[string]interface{}{
		"category":  env.categoryID,
		"title":     "Galaxy S24 Ultra",
		"sortDesc":  "Flagship phone",
		"stock":     map[string]int{"quantity": 20},
		"color":     []string{"black", "violet"},
		"price":     1199.99,
		"image_url": "https://cdn.example.com/s24.png",
	}
	status, raw = env.request(t, http.MethodPost, "/products", newProduct, token)
	require.Equal(t, http.StatusCreated, status, string(raw))
	created := decode[envelope[models.Product]](t, raw).Data
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "galaxy-s24-ultra", created.Slug)
	assert.Equal(t, 20, created.Stock.Remain)
	assert.Equal(t, []string{"black", "violet"}, []string(created.Color))

	status, raw = env.request(t, http.MethodGet, "/products?category=phones&title=galaxy&sortBy=bogus", nil, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	page := decode[envelope[pagination.Page[models.Product]]](t, raw)
	assert.Equal(t, "The product list", page.Msg)
	require.Len(t, page.Data.ItemsList, 1)
	assert.Equal(t, created.ID, page.Data.ItemsList[0].ID)
	assert.Equal(t, int64(1), page.Data.ItemCount)
	assert.Equal(t, 1, page.Data.PageCount)
	assert.Nil(t, page.Data.Next)

	status, _ = env.request(t, http.MethodGet, "/products?page=2", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	for _, page := range []string{"9223372036854775807", "99999999999999999999"} {
		status, raw = env.request(t, http.MethodGet, "/products?perpage=10&page="+page, nil, "")
		assert.Equal(t, http.StatusNotFound, status, "page %s: %s", page, raw)
	}

	status, raw = env.request(t, http.MethodGet, "/products?category=unknown-slug", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Server not found any resources.", decode[common.Envelope](t, raw).Msg)

	status, raw = env.request(t, http.MethodPatch, "/products", map[string]interface{}{"price": 999}, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing product id", decode[common.Envelope](t, raw).Msg)

	status, raw = env.request(t, http.MethodPatch, "/products", map[string]interface{}{
		"id":    created.ID,
		"title": "Galaxy S24 Ultra 512GB",
		"stock": map[string]int{"remain": 15},
	}, token)
	require.Equal(t, http.StatusOK, status, string(raw))
	updated := decode[envelope[models.Product]](t, raw)
	assert.Equal(t, "Product was updated successfully", updated.Msg)
	assert.Equal(t, "Galaxy S24 Ultra 512GB", updated.Data.Title)
	assert.Equal(t, "galaxy-s24-ultra", updated.Data.Slug)
	assert.Equal(t, 15, updated.Data.Stock.Remain)

	status, _ = env.request(t, http.MethodPatch, "/products", map[string]interface{}{
		"id":    created.ID,
		"stock": map[string]int{"remain": 21},
	}, token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.request(t, http.MethodPatch, "/products", map[string]interface{}{"id": "missing", "price": 1}, token)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.request(t, http.MethodGet, "/products/"+created.ID, nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.request(t, http.MethodPatch, "/products", map[string]interface{}{"id": created.ID, "isDeleted": true}, token)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.request(t, http.MethodGet, "/products/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.request(t, http.MethodGet, "/products?category=phones", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}
