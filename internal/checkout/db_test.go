package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tindahanph/storefront-backend/pkg/db/models"
	"github.com/tindahanph/storefront-backend/pkg/redis"
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
	`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  reference_number TEXT NOT NULL UNIQUE,
  customer_id TEXT NOT NULL,
  total_amount NUMERIC NOT NULL,
  shipping_amount NUMERIC NOT NULL,
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_reference_number TEXT,
  order_status TEXT NOT NULL DEFAULT 'pending',
  return_refund_status TEXT NOT NULL DEFAULT 'none',
  return_type TEXT,
  shipping_method TEXT NOT NULL DEFAULT 'delivery',
  shipping_address TEXT,
  shipping_address_id TEXT,
  notes TEXT,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_amount NUMERIC NOT NULL,
  total_amount NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
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

type testTx struct {
	db *gorm.DB
}

func (r testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type memKV struct {
	data map[string]string
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}}
}

func (m *memKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	default:
		return fmt.Errorf("unexpected value type %T", value)
	}
	return nil
}

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	raw, ok := m.data[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return raw, nil
}

func (m *memKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memKV) PaymentSessionKey(customerID string) string {
	return "payment_session:" + customerID
}

func seedProduct(t *testing.T, db *gorm.DB, price string, stock int) *models.Product {
	t.Helper()

	id := uuid.New()
	product := models.Product{
		ID:    id,
		Name:  "Classic Tee",
		Slug:  "classic-tee-" + id.String(),
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func seedCartItem(t *testing.T, db *gorm.DB, customerID uuid.UUID, product *models.Product, qty int, selected bool) *models.CartItem {
	t.Helper()

	item := models.CartItem{
		ID:         uuid.New(),
		CustomerID: customerID,
		ProductID:  product.ID,
		Quantity:   qty,
		Price:      product.Price,
		Selected:   selected,
	}
	require.NoError(t, db.Create(&item).Error)
	return &item
}

func productStock(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	return product.Stock
}

func cartCount(t *testing.T, db *gorm.DB, customerID uuid.UUID) int {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("customer_id = ?", customerID).Count(&count).Error)
	return int(count)
}

func orderCount(t *testing.T, db *gorm.DB) int {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	return int(count)
}
