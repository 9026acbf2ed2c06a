package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/common"
	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ErrUnsupportedDriver is returned for a DB_DRIVER outside postgres, mysql and sqlite.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Open connects to the configured database. Driver errors for unique violations are
// translated to gorm.ErrDuplicatedKey so repositories can report conflicts.
func Open(cfg config.DB) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dial = postgres.Open(cfg.DSN)
	case "mysql":
		dial = mysql.Open(cfg.DSN)
	case "sqlite":
		dial = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	lvl := logger.Warn
	switch cfg.LogLevel {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         logger.Default.LogMode(lvl),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

// Migrate creates or updates the tables of every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Category{}, &models.Product{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping checks the connection within the given timeout.
func Ping(ctx context.Context, db *gorm.DB, timeout time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// SeedCategories inserts the default categories that are not present yet.
func SeedCategories(ctx context.Context, repo repositories.CategoryRepository, log *zap.Logger) {
	categories := []models.Category{
		{Name: "Phones", Slug: "phones"},
		{Name: "Laptops", Slug: "laptops"},
		{Name: "Accessories", Slug: "accessories"},
	}
	for i := range categories {
		if _, err := repo.GetBySlug(ctx, categories[i].Slug); err == nil {
			continue
		} else if !errors.Is(err, common.ErrNotFound) {
			log.Warn("category lookup failed during seeding", zap.String("slug", categories[i].Slug), zap.Error(err))
			continue
		}
		if err := repo.Create(ctx, &categories[i]); err != nil {
			log.Warn("error seeding category", zap.String("slug", categories[i].Slug), zap.Error(err))
			continue
		}
		log.Info("seeded category", zap.String("slug", categories[i].Slug), zap.String("id", categories[i].ID))
	}
}
