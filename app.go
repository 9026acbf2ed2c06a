package main

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"storefront/internal/cache"
	"storefront/internal/common"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"
)

// App is the wired storefront: HTTP server plus the resources it owns.
type App struct {
	Fiber  *fiber.App
	DB     *gorm.DB
	Tokens *services.TokenService

	cache  *cache.Cache
	mq     *rabbitmq.Client
	sentry bool
	log    *zap.Logger
}

// NewApp connects to the configured backends and registers every route. Redis and RabbitMQ
// are optional: when unreachable the app runs without the category cache or events.
func NewApp(cfg *config.Config, log *zap.Logger) (*App, error) {
	ctx := context.Background()

	// --- Database ---
	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	if cfg.DB.Seed {
		database.SeedCategories(ctx, categoryRepo, log)
	}

	a := &App{DB: db, log: log}

	// --- Category cache ---
	if cfg.Redis.Addr != "" {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, category cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = c.Close()
		} else {
			a.cache = c
		}
	}

	// --- Event publisher ---
	var publisher services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue}, log)
		if err != nil {
			log.Warn("rabbitmq unavailable, events disabled", zap.Error(err))
		} else {
			a.mq = mq
			publisher = mq
		}
	}

	// --- Services ---
	a.Tokens = services.NewTokenService(cfg.Auth)
	hasher := services.NewPasswordHasher(cfg.Auth.BcryptCost)
	categoryService := services.NewCategoryService(categoryRepo, a.cache, cfg.Redis.CategoryCacheTTL, log)
	queryBuilder := services.NewCatalogQueryBuilder(categoryService, cfg.Catalog)
	productService := services.NewProductService(productRepo, queryBuilder, publisher, log)
	accountService := services.NewAccountService(userRepo, hasher, a.Tokens, publisher, cfg.Auth, log)

	// --- Handlers ---
	accountHandler := handlers.NewAccountHandler(accountService, a.Tokens,
		middleware.RateLimitPerIP(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst))
	productHandler := handlers.NewProductHandler(productService, a.Tokens, cfg.Auth.AdminRole)

	// --- Fiber ---
	app := fiber.New(fiber.Config{
		ErrorHandler: common.ErrorHandler(log),
	})
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.App.Env,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			log.Warn("sentry init failed", zap.Error(err))
		} else {
			a.sentry = true
			app.Use(sentryfiber.New(sentryfiber.Options{Repanic: true}))
		}
	}
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.AccessLog(log))
	app.Use(middleware.Metrics())

	app.Get("/health", a.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	accountHandler.RegisterRoutes(app)
	productHandler.RegisterRoutes(app)

	a.Fiber = app
	return a, nil
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	dbStatus := "connected"
	if err := database.Ping(c.UserContext(), a.DB, time.Second); err != nil {
		dbStatus = "unreachable"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": dbStatus,
		"cache":    a.cache != nil,
		"events":   a.mq != nil,
	})
}

// StartConsumers starts the background event consumer when RabbitMQ is connected.
func (a *App) StartConsumers() {
	if a.mq == nil {
		return
	}
	if err := a.mq.ConsumeEvents(rabbitmq.LogEventHandler(a.log)); err != nil {
		a.log.Warn("failed to start event consumer", zap.Error(err))
	}
}

// Close releases the broker, cache and database connections.
func (a *App) Close() error {
	var errs []error
	if a.mq != nil {
		errs = append(errs, a.mq.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	if a.sentry {
		sentry.Flush(2 * time.Second)
	}
	return errors.Join(errs...)
}
