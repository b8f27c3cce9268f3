package customers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tindahanph/storefront-backend/pkg/db/models"
)

// ErrNotFound signals a missing customer or address row.
var ErrNotFound = errors.New("customer not found")

// Repository manages persistence for customers and their addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) error
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	Save(ctx context.Context, customer *models.Customer) error
	CreateAddress(ctx context.Context, address *models.CustomerAddress) error
	GetAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.CustomerAddress, error)
	ListAddresses(ctx context.Context, customerID uuid.UUID) ([]models.CustomerAddress, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a customer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repository) Save(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *repository) CreateAddress(ctx context.Context, address *models.CustomerAddress) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *repository) GetAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.CustomerAddress, error) {
	var address models.CustomerAddress
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND id = ?", customerID, addressID).
		First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &address, nil
}

func (r *repository) ListAddresses(ctx context.Context, customerID uuid.UUID) ([]models.CustomerAddress, error) {
	var addresses []models.CustomerAddress
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}
