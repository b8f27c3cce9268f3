package customers

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tindahanph/storefront-backend/pkg/auth"
	"github.com/tindahanph/storefront-backend/pkg/config"
	"github.com/tindahanph/storefront-backend/pkg/enums"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/logger"
)

// sqlite stand-in for gen_random_uuid() so inserts that omit the id still work.
const uuidDefault = `(lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-4' || substr(lower(hex(randomblob(2))), 2) || '-' || substr('89ab', 1 + (abs(random()) % 4), 1) || substr(lower(hex(randomblob(2))), 2) || '-' || lower(hex(randomblob(6))))`

var testDDL = []string{
	`CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'customer',
  default_address_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS customer_addresses (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  customer_id TEXT NOT NULL,
  label TEXT,
  complete_address TEXT NOT NULL,
  city TEXT NOT NULL,
  province TEXT NOT NULL,
  zip_code TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
}

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret-key",
	Issuer:            "storefront-test",
	ExpirationMinutes: 15,
}

// lightweight argon params keep the test suite fast
var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func newTestService(t *testing.T) Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, ddl := range testDDL {
		require.NoError(t, db.Exec(ddl).Error)
	}

	svc, err := NewService(NewRepository(db), testJWTConfig, testPasswordConfig, logger.New(logger.Options{ServiceName: "customers-test"}))
	require.NoError(t, err)
	return svc
}

func TestRegister_IssuesToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	customer, token, err := svc.Register(ctx, RegisterInput{
		FirstName: "Maria",
		LastName:  "Santos",
		Email:     "  Maria@Example.COM ",
		Phone:     "+639170000000",
		Password:  "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", customer.Email, "emails normalize to lowercase")
	assert.Equal(t, enums.CustomerRoleCustomer, customer.Role)
	assert.NotEqual(t, "correct-horse", customer.PasswordHash)

	claims, err := auth.ParseAccessToken(testJWTConfig, token)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, claims.CustomerID)
	assert.Equal(t, enums.CustomerRoleCustomer, claims.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{
		FirstName: "Maria", LastName: "Santos",
		Email: "maria@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, RegisterInput{
		FirstName: "Other", LastName: "Person",
		Email: "MARIA@example.com", Password: "another-pass",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{Email: "", Password: "long-enough"})
	require.Error(t, err)

	_, _, err = svc.Register(ctx, RegisterInput{Email: "x@example.com", Password: "short"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, RegisterInput{
		FirstName: "Maria", LastName: "Santos",
		Email: "maria@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	customer, token, err := svc.Login(ctx, "Maria@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, customer.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, "maria@example.com", "wrong-password")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	// unknown accounts fail identically to bad passwords
	_, _, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestAddresses(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	customer, _, err := svc.Register(ctx, RegisterInput{
		FirstName: "Maria", LastName: "Santos",
		Email: "maria@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	// nothing saved yet
	def, err := svc.DefaultAddress(ctx, customer.ID)
	require.NoError(t, err)
	assert.Nil(t, def)

	home, err := svc.AddAddress(ctx, AddAddressInput{
		CustomerID:      customer.ID,
		Label:           "Home",
		CompleteAddress: "12 Mabini St",
		City:            "Quezon City",
		Province:        "Metro Manila",
		ZipCode:         "1100",
		MakeDefault:     true,
	})
	require.NoError(t, err)

	def, err = svc.DefaultAddress(ctx, customer.ID)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, home.ID, def.ID)

	listed, err := svc.ListAddresses(ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	// addresses are scoped to their owner
	_, err = svc.GetAddress(ctx, uuid.New(), home.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAddAddress_Validation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.AddAddress(context.Background(), AddAddressInput{
		CustomerID: uuid.New(),
		City:       "Quezon City",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
