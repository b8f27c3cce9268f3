package returns

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

	"github.com/tindahanph/storefront-backend/internal/inventory"
	"github.com/tindahanph/storefront-backend/internal/orders"
	"github.com/tindahanph/storefront-backend/pkg/db/models"
	"github.com/tindahanph/storefront-backend/pkg/enums"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/logger"
	"github.com/tindahanph/storefront-backend/pkg/pagination"
)

var testDDL = []string{
	`CREATE TABLE IF NOT EXISTS products (
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
);`,
	`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
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
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_amount NUMERIC NOT NULL,
  total_amount NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
}

type testTx struct {
	db *gorm.DB
}

func (r testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type returnsFixture struct {
	svc        Service
	db         *gorm.DB
	repo       orders.Repository
	ledger     inventory.Ledger
	customerID uuid.UUID
}

func newReturnsFixture(t *testing.T) *returnsFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, ddl := range testDDL {
		require.NoError(t, db.Exec(ddl).Error)
	}

	repo := orders.NewRepository(db)
	ledger := inventory.NewLedger(db)
	svc, err := NewService(repo, ledger, testTx{db: db}, logger.New(logger.Options{ServiceName: "returns-test"}))
	require.NoError(t, err)

	return &returnsFixture{
		svc:        svc,
		db:         db,
		repo:       repo,
		ledger:     ledger,
		customerID: uuid.New(),
	}
}

func (fx *returnsFixture) seedOrder(t *testing.T, status enums.OrderStatus, lines ...models.OrderItem) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:                 uuid.New(),
		ReferenceNumber:    orders.NewReferenceNumber(),
		CustomerID:         fx.customerID,
		TotalAmount:        decimal.RequireFromString("645.00"),
		ShippingAmount:     decimal.RequireFromString("145.00"),
		PaymentMethod:      enums.PaymentMethodCOD,
		PaymentStatus:      enums.PaymentStatusPaid,
		OrderStatus:        status,
		ReturnRefundStatus: enums.ReturnRefundStatusNone,
		ShippingMethod:     enums.DeliveryMethodDelivery,
	}
	require.NoError(t, fx.db.Create(order).Error)
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].OrderID = order.ID
		require.NoError(t, fx.db.Create(&lines[i]).Error)
	}
	order.Items = lines
	return order
}

func (fx *returnsFixture) seedProduct(t *testing.T, stock int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	product := models.Product{
		ID:    id,
		Name:  "Classic Tee",
		Slug:  "classic-tee-" + id.String(),
		Price: decimal.RequireFromString("250.00"),
		Stock: stock,
	}
	require.NoError(t, fx.db.Create(&product).Error)
	return id
}

func (fx *returnsFixture) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()

	var product models.Product
	require.NoError(t, fx.db.First(&product, "id = ?", productID).Error)
	return product.Stock
}

func TestSubmit_RequiresDeliveredOrder(t *testing.T) {
	fx := newReturnsFixture(t)
	order := fx.seedOrder(t, enums.OrderStatusShipped)

	_, err := fx.svc.Submit(context.Background(), SubmitInput{
		CustomerID: fx.customerID,
		Reference:  order.ReferenceNumber,
		Reason:     "wrong size",
		Type:       enums.ReturnTypeReturn,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestSubmit_SetsRequestedState(t *testing.T) {
	fx := newReturnsFixture(t)
	order := fx.seedOrder(t, enums.OrderStatusDelivered)

	updated, err := fx.svc.Submit(context.Background(), SubmitInput{
		CustomerID: fx.customerID,
		Reference:  order.ReferenceNumber,
		Reason:     "defective stitching",
		Type:       enums.ReturnTypeRefund,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnRefundStatusRequested, updated.ReturnRefundStatus)
	require.NotNil(t, updated.ReturnType)
	assert.Equal(t, enums.ReturnTypeRefund, *updated.ReturnType)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "defective stitching", *updated.Notes)

	// a second submission on the same order is rejected
	_, err = fx.svc.Submit(context.Background(), SubmitInput{
		CustomerID: fx.customerID,
		Reference:  order.ReferenceNumber,
		Reason:     "changed my mind",
		Type:       enums.ReturnTypeReturn,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestSubmit_ScopedToOwner(t *testing.T) {
	fx := newReturnsFixture(t)
	order := fx.seedOrder(t, enums.OrderStatusDelivered)

	_, err := fx.svc.Submit(context.Background(), SubmitInput{
		CustomerID: uuid.New(),
		Reference:  order.ReferenceNumber,
		Reason:     "wrong size",
		Type:       enums.ReturnTypeReturn,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code(), "foreign orders look like they do not exist")
}

func TestCancel_OnlyPendingRequests(t *testing.T) {
	fx := newReturnsFixture(t)
	ctx := context.Background()
	order := fx.seedOrder(t, enums.OrderStatusDelivered)

	_, err := fx.svc.Cancel(ctx, fx.customerID, order.ReferenceNumber)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = fx.svc.Submit(ctx, SubmitInput{
		CustomerID: fx.customerID,
		Reference:  order.ReferenceNumber,
		Reason:     "wrong size",
		Type:       enums.ReturnTypeReturn,
	})
	require.NoError(t, err)

	cancelled, err := fx.svc.Cancel(ctx, fx.customerID, order.ReferenceNumber)
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnRefundStatusNone, cancelled.ReturnRefundStatus)
	assert.Nil(t, cancelled.ReturnType)
	assert.Nil(t, cancelled.Notes)
}

func TestApproveReturn_CreditsStockOnce(t *testing.T) {
	fx := newReturnsFixture(t)
	ctx := context.Background()

	productID := fx.seedProduct(t, 3)
	order := fx.seedOrder(t, enums.OrderStatusDelivered, models.OrderItem{
		ProductID:   productID,
		Quantity:    2,
		UnitAmount:  decimal.RequireFromString("250.00"),
		TotalAmount: decimal.RequireFromString("500.00"),
	})

	_, err := fx.svc.Submit(ctx, SubmitInput{
		CustomerID: fx.customerID,
		Reference:  order.ReferenceNumber,
		Reason:     "wrong size",
		Type:       enums.ReturnTypeReturn,
	})
	require.NoError(t, err)

	approved, err := fx.svc.ApproveReturn(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnRefundStatusApproved, approved.ReturnRefundStatus)
	assert.Equal(t, enums.OrderStatusReturned, approved.OrderStatus)
	assert.Equal(t, 5, fx.stock(t, productID), "approval credits every line back")

	_, err = fx.svc.ApproveReturn(ctx, order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Equal(t, 5, fx.stock(t, productID), "re-approval must not credit stock twice")
}

func TestApproveRefund_RequiresApprovedReturn(t *testing.T) {
	fx := newReturnsFixture(t)
	ctx := context.Background()

	productID := fx.seedProduct(t, 0)
	order := fx.seedOrder(t, enums.OrderStatusDelivered, models.OrderItem{
		ProductID:   productID,
		Quantity:    1,
		UnitAmount:  decimal.RequireFromString("250.00"),
		TotalAmount: decimal.RequireFromString("250.00"),
	})

	_, err := fx.svc.ApproveRefund(ctx, order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = fx.svc.Submit(ctx, SubmitInput{
		CustomerID: fx.customerID,
		Reference:  order.ReferenceNumber,
		Reason:     "damaged in transit",
		Type:       enums.ReturnTypeRefund,
	})
	require.NoError(t, err)
	_, err = fx.svc.ApproveReturn(ctx, order.ID)
	require.NoError(t, err)

	refunded, err := fx.svc.ApproveRefund(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnRefundStatusRefunded, refunded.ReturnRefundStatus)
}

func TestReject_LeavesStockAlone(t *testing.T) {
	fx := newReturnsFixture(t)
	ctx := context.Background()

	productID := fx.seedProduct(t, 3)
	order := fx.seedOrder(t, enums.OrderStatusDelivered, models.OrderItem{
		ProductID:   productID,
		Quantity:    2,
		UnitAmount:  decimal.RequireFromString("250.00"),
		TotalAmount: decimal.RequireFromString("500.00"),
	})

	_, err := fx.svc.Submit(ctx, SubmitInput{
		CustomerID: fx.customerID,
		Reference:  order.ReferenceNumber,
		Reason:     "wrong size",
		Type:       enums.ReturnTypeReturn,
	})
	require.NoError(t, err)

	rejected, err := fx.svc.Reject(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnRefundStatusRejected, rejected.ReturnRefundStatus)
	assert.Equal(t, enums.OrderStatusDelivered, rejected.OrderStatus)
	assert.Equal(t, 3, fx.stock(t, productID))
}

func TestDestroy_ResetsPendingRequest(t *testing.T) {
	fx := newReturnsFixture(t)
	ctx := context.Background()
	order := fx.seedOrder(t, enums.OrderStatusDelivered)

	_, err := fx.svc.Submit(ctx, SubmitInput{
		CustomerID: fx.customerID,
		Reference:  order.ReferenceNumber,
		Reason:     "wrong size",
		Type:       enums.ReturnTypeReturn,
	})
	require.NoError(t, err)

	reset, err := fx.svc.Destroy(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnRefundStatusNone, reset.ReturnRefundStatus)
	assert.Nil(t, reset.ReturnType)

	_, err = fx.svc.Destroy(ctx, order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestList_OnlyOrdersWithReturnActivity(t *testing.T) {
	fx := newReturnsFixture(t)
	ctx := context.Background()

	fx.seedOrder(t, enums.OrderStatusDelivered)
	requested := fx.seedOrder(t, enums.OrderStatusDelivered)
	_, err := fx.svc.Submit(ctx, SubmitInput{
		CustomerID: fx.customerID,
		Reference:  requested.ReferenceNumber,
		Reason:     "wrong size",
		Type:       enums.ReturnTypeReturn,
	})
	require.NoError(t, err)

	listed, next, err := fx.svc.List(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, requested.ID, listed[0].ID)
	assert.Empty(t, next)
}
