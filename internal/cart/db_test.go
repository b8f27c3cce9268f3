package cart

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tindahanph/storefront-backend/pkg/db/models"
)

// sqlite stand-in for gen_random_uuid() so inserts that omit the id still work.
const uuidDefault = `(lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-4' || substr(lower(hex(randomblob(2))), 2) || '-' || substr('89ab', 1 + (abs(random()) % 4), 1) || substr(lower(hex(randomblob(2))), 2) || '-' || lower(hex(randomblob(6))))`

var testDDL = []string{
	`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  price NUMERIC NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  sizes TEXT,
  kinds TEXT,
  image TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  customer_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  selected INTEGER NOT NULL DEFAULT 1,
  size TEXT NOT NULL DEFAULT '',
  kind TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (customer_id, product_id)
);`,
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, ddl := range testDDL {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, price string, stock int, sizes, kinds []string) *models.Product {
	t.Helper()

	id := uuid.New()
	product := models.Product{
		ID:    id,
		Name:  "Classic Tee",
		Slug:  "classic-tee-" + id.String(),
		Price: decimal.RequireFromString(price),
		Stock: stock,
		Sizes: sizes,
		Kinds: kinds,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}
