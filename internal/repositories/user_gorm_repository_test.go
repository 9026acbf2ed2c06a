package repositories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

func TestGORMUserRepository_CreateAndLookup(t *testing.T) {
	repo := repositories.NewGORMUserRepository(setupDB(t))
	ctx := context.Background()

	user := &models.User{Fullname: "Test User", Username: "testuser", Email: "test@example.com", Password: "hash", Role: "customer"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	byEmail, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byName, err := repo.GetByUsername(ctx, "testuser")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGORMUserRepository_UniqueIndexesReportConflict(t *testing.T) {
	repo := repositories.NewGORMUserRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.User{Username: "first", Email: "same@example.com", Password: "hash"}))

	err := repo.Create(ctx, &models.User{Username: "second", Email: "same@example.com", Password: "hash"})
	assert.ErrorIs(t, err, common.ErrConflict)

	err = repo.Create(ctx, &models.User{Username: "first", Email: "other@example.com", Password: "hash"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestGORMCategoryRepository(t *testing.T) {
	repo := repositories.NewGORMCategoryRepository(setupDB(t))
	ctx := context.Background()
	category := &models.Category{Name: "Phones", Slug: "phones"}
	require.NoError(t, repo.Create(ctx, category))

	found, err := repo.GetBySlug(ctx, "phones")
	require.NoError(t, err)
	assert.Equal(t, category.ID, found.ID)

	_, err = repo.GetBySlug(ctx, "Phones")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
