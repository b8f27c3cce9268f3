package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tindahanph/storefront-backend/api/middleware"
	cartsvc "github.com/tindahanph/storefront-backend/internal/cart"
	"github.com/tindahanph/storefront-backend/internal/customers"
	"github.com/tindahanph/storefront-backend/pkg/db/models"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/logger"
	"github.com/tindahanph/storefront-backend/pkg/redis"
)

type fakeCustomersService struct {
	customer *models.Customer
}

func (f *fakeCustomersService) Register(context.Context, customers.RegisterInput) (*models.Customer, string, error) {
	return f.customer, "token", nil
}

func (f *fakeCustomersService) Login(_ context.Context, email, _ string) (*models.Customer, string, error) {
	if f.customer == nil || f.customer.Email != email {
		return nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return f.customer, "token", nil
}

func (f *fakeCustomersService) Get(context.Context, uuid.UUID) (*models.Customer, error) {
	return f.customer, nil
}

func (f *fakeCustomersService) AddAddress(context.Context, customers.AddAddressInput) (*models.CustomerAddress, error) {
	return nil, nil
}

func (f *fakeCustomersService) ListAddresses(context.Context, uuid.UUID) ([]models.CustomerAddress, error) {
	return nil, nil
}

func (f *fakeCustomersService) GetAddress(context.Context, uuid.UUID, uuid.UUID) (*models.CustomerAddress, error) {
	return nil, nil
}

func (f *fakeCustomersService) DefaultAddress(context.Context, uuid.UUID) (*models.CustomerAddress, error) {
	return nil, nil
}

type memGuestKV struct {
	data map[string]string
}

func (m *memGuestKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
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

func (m *memGuestKV) Get(_ context.Context, key string) (string, error) {
	raw, ok := m.data[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return raw, nil
}

func (m *memGuestKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memGuestKV) GuestCartKey(sessionToken string) string {
	return "guest_cart:" + sessionToken
}

type recordingCartService struct {
	added []cartsvc.AddInput
}

func (f *recordingCartService) Add(_ context.Context, input cartsvc.AddInput) (*models.CartItem, error) {
	f.added = append(f.added, input)
	return &models.CartItem{}, nil
}

func (f *recordingCartService) SetQuantity(context.Context, uuid.UUID, uuid.UUID, int) (*models.CartItem, error) {
	return nil, nil
}

func (f *recordingCartService) SetSelected(context.Context, uuid.UUID, uuid.UUID, bool) (*models.CartItem, error) {
	return nil, nil
}

func (f *recordingCartService) SetSelectedAll(context.Context, uuid.UUID, bool) error { return nil }

func (f *recordingCartService) SetVariant(context.Context, cartsvc.SetVariantInput) (*models.CartItem, error) {
	return nil, nil
}

func (f *recordingCartService) Remove(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (f *recordingCartService) Clear(context.Context, uuid.UUID) error { return nil }

func (f *recordingCartService) List(context.Context, uuid.UUID) ([]models.CartItem, error) {
	return nil, nil
}

func TestLogin_MergesGuestCart(t *testing.T) {
	customerID := uuid.New()
	svc := &fakeCustomersService{customer: &models.Customer{
		ID:    customerID,
		Email: "maria@example.com",
	}}

	kv := &memGuestKV{data: map[string]string{}}
	guest, err := cartsvc.NewGuestStore(kv, time.Hour)
	require.NoError(t, err)

	ctx := context.Background()
	productID := uuid.New()
	_, err = guest.Add(ctx, "guest-token", cartsvc.GuestLine{ProductID: productID, Quantity: 2, Size: "M"})
	require.NoError(t, err)

	carts := &recordingCartService{}
	logg := logger.New(logger.Options{ServiceName: "controllers-test"})
	handler := Login(svc, guest, carts, logg)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"maria@example.com","password":"secret-pass"}`))
	req.AddCookie(&http.Cookie{Name: middleware.GuestSessionCookieName, Value: "guest-token"})
	w := httptest.NewRecorder()
	handler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, carts.added, 1)
	assert.Equal(t, customerID, carts.added[0].CustomerID)
	assert.Equal(t, productID, carts.added[0].ProductID)
	assert.Equal(t, 2, carts.added[0].Quantity)
	assert.Equal(t, "M", carts.added[0].Size)
	assert.Empty(t, kv.data, "merged guest cart is cleared")
}

func TestLogin_WithoutGuestCookieSkipsMerge(t *testing.T) {
	svc := &fakeCustomersService{customer: &models.Customer{
		ID:    uuid.New(),
		Email: "maria@example.com",
	}}
	kv := &memGuestKV{data: map[string]string{}}
	guest, err := cartsvc.NewGuestStore(kv, time.Hour)
	require.NoError(t, err)
	carts := &recordingCartService{}
	logg := logger.New(logger.Options{ServiceName: "controllers-test"})
	handler := Login(svc, guest, carts, logg)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"maria@example.com","password":"secret-pass"}`))
	w := httptest.NewRecorder()
	handler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, carts.added)
}

func TestLogin_MergeFailureDoesNotBlockLogin(t *testing.T) {
	svc := &fakeCustomersService{customer: &models.Customer{
		ID:    uuid.New(),
		Email: "maria@example.com",
	}}
	kv := &memGuestKV{data: map[string]string{"guest_cart:guest-token": "{not json"}}
	guest, err := cartsvc.NewGuestStore(kv, time.Hour)
	require.NoError(t, err)
	carts := &recordingCartService{}
	logg := logger.New(logger.Options{ServiceName: "controllers-test"})
	handler := Login(svc, guest, carts, logg)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"maria@example.com","password":"secret-pass"}`))
	req.AddCookie(&http.Cookie{Name: middleware.GuestSessionCookieName, Value: "guest-token"})
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "a broken guest cart must not lock the account out")
}
