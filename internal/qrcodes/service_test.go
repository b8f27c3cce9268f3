package qrcodes

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tindahanph/storefront-backend/pkg/db/models"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
)

const uuidDefault = `(lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-4' || substr(lower(hex(randomblob(2))), 2) || '-' || substr('89ab', 1 + (abs(random()) % 4), 1) || substr(lower(hex(randomblob(2))), 2) || '-' || lower(hex(randomblob(6))))`

const qrCodesDDL = `
CREATE TABLE IF NOT EXISTS qr_codes (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  image TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(qrCodesDDL).Error)
	return db
}

func TestService_RandomSkipsInactive(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	active := &models.QRCode{ID: uuid.New(), Image: "gcash-main.png", Active: true}
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, &models.QRCode{ID: uuid.New(), Image: "retired.png", Active: false}))

	for n := 0; n < 5; n++ {
		got, err := svc.Random(ctx)
		require.NoError(t, err)
		assert.Equal(t, active.ID, got.ID)
	}

	listed, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestService_RandomWithoutActiveCodes(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	_, err = svc.Random(context.Background())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestService_AddActivatesCode(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	code, err := svc.Add(ctx, "gcash-booth.png")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, code.ID)
	assert.True(t, code.Active)

	got, err := svc.Random(ctx)
	require.NoError(t, err)
	assert.Equal(t, code.ID, got.ID)
}

func TestService_AddRequiresImage(t *testing.T) {
	svc, err := NewService(NewRepository(openTestDB(t)))
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), "")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestService_ListActiveFiltersRetiredCodes(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Add(ctx, "counter-a.png")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, &models.QRCode{ID: uuid.New(), Image: "retired.png", Active: false}))

	listed, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, first.ID, listed[0].ID)
}
