package qrcodes

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tindahanph/storefront-backend/pkg/db/models"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
)

// Repository manages persistence for payment QR images.
type Repository interface {
	Create(ctx context.Context, code *models.QRCode) error
	ListActive(ctx context.Context) ([]models.QRCode, error)
	RandomActive(ctx context.Context) (*models.QRCode, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a QR code repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, code *models.QRCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repository) ListActive(ctx context.Context) ([]models.QRCode, error) {
	var codes []models.QRCode
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *repository) RandomActive(ctx context.Context) (*models.QRCode, error) {
	var code models.QRCode
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("RANDOM()").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "no active payment qr code configured")
		}
		return nil, err
	}
	return &code, nil
}

// Service hands out QR images for the manual payment path and lets admins
// maintain the pool.
type Service interface {
	Random(ctx context.Context) (*models.QRCode, error)
	Add(ctx context.Context, image string) (*models.QRCode, error)
	ListActive(ctx context.Context) ([]models.QRCode, error)
}

type service struct {
	repo Repository
}

// NewService wires a QR code service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("qr code repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Random(ctx context.Context) (*models.QRCode, error) {
	return s.repo.RandomActive(ctx)
}

func (s *service) Add(ctx context.Context, image string) (*models.QRCode, error) {
	if image == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	code := &models.QRCode{Image: image, Active: true}
	if err := s.repo.Create(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.QRCode, error) {
	return s.repo.ListActive(ctx)
}
