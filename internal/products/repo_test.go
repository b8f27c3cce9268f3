package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tindahanph/storefront-backend/pkg/db/models"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
)

const productsDDL = `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  price NUMERIC NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  sizes TEXT,
  kinds TEXT,
  image TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(productsDDL).Error)
	return db
}

func TestRepository_GetBySlug(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := &models.Product{
		ID:    uuid.New(),
		Name:  "Classic Tee",
		Slug:  "classic-tee",
		Price: decimal.RequireFromString("250.00"),
		Stock: 10,
		Sizes: []string{"S", "M", "L"},
	}
	require.NoError(t, repo.Create(ctx, product))

	got, err := repo.GetBySlug(ctx, "classic-tee")
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)
	assert.Equal(t, []string{"S", "M", "L"}, got.Sizes)

	_, err = repo.GetBySlug(ctx, "missing-slug")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRepository_Get(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := &models.Product{
		ID:    uuid.New(),
		Name:  "Classic Tee",
		Slug:  "classic-tee",
		Price: decimal.RequireFromString("250.00"),
	}
	require.NoError(t, repo.Create(ctx, product))

	got, err := repo.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(product.Price))

	_, err = repo.Get(ctx, uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRepository_List(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Product{
			ID:    uuid.New(),
			Name:  "Tee",
			Slug:  fmt.Sprintf("tee-%d", i),
			Price: decimal.RequireFromString("99.00"),
		}))
	}

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}
