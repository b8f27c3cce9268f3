package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tindahanph/storefront-backend/pkg/auth"
	"github.com/tindahanph/storefront-backend/pkg/config"
	"github.com/tindahanph/storefront-backend/pkg/db/models"
	"github.com/tindahanph/storefront-backend/pkg/enums"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/logger"
	"github.com/tindahanph/storefront-backend/pkg/security"
)

// Service covers account registration, login, and address management.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Customer, string, error)
	Login(ctx context.Context, email, password string) (*models.Customer, string, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	AddAddress(ctx context.Context, input AddAddressInput) (*models.CustomerAddress, error)
	ListAddresses(ctx context.Context, customerID uuid.UUID) ([]models.CustomerAddress, error)
	GetAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.CustomerAddress, error)
	DefaultAddress(ctx context.Context, customerID uuid.UUID) (*models.CustomerAddress, error)
}

// RegisterInput carries a new account request.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
}

// AddAddressInput carries a new delivery address.
type AddAddressInput struct {
	CustomerID      uuid.UUID
	Label           string
	CompleteAddress string
	City            string
	Province        string
	ZipCode         string
	MakeDefault     bool
}

type service struct {
	repo        Repository
	jwtConfig   config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService wires a customer service with the provided dependencies.
func NewService(repo Repository, jwtConfig config.JWTConfig, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		jwtConfig:   jwtConfig,
		passwordCfg: passwordCfg,
		logg:        logg,
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Customer, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	customer := &models.Customer{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Role:         enums.CustomerRoleCustomer,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, "", err
	}

	token, err := s.mint(customer)
	if err != nil {
		return nil, "", err
	}

	ctx = s.logg.WithCustomerID(ctx, customer.ID.String())
	s.logg.Info(ctx, "customer registered")
	return customer, token, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.Customer, string, error) {
	customer, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, "", err
	}

	ok, err := security.VerifyPassword(password, customer.PasswordHash)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.mint(customer)
	if err != nil {
		return nil, "", err
	}
	return customer, token, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, err
	}
	return customer, nil
}

func (s *service) AddAddress(ctx context.Context, input AddAddressInput) (*models.CustomerAddress, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.CompleteAddress == "" || input.City == "" || input.Province == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "complete address, city, and province are required")
	}

	address := &models.CustomerAddress{
		CustomerID:      input.CustomerID,
		Label:           input.Label,
		CompleteAddress: input.CompleteAddress,
		City:            input.City,
		Province:        input.Province,
		ZipCode:         input.ZipCode,
	}
	if err := s.repo.CreateAddress(ctx, address); err != nil {
		return nil, err
	}

	if input.MakeDefault {
		customer, err := s.repo.Get(ctx, input.CustomerID)
		if err != nil {
			return nil, err
		}
		customer.DefaultAddressID = &address.ID
		if err := s.repo.Save(ctx, customer); err != nil {
			return nil, err
		}
	}
	return address, nil
}

func (s *service) ListAddresses(ctx context.Context, customerID uuid.UUID) ([]models.CustomerAddress, error) {
	return s.repo.ListAddresses(ctx, customerID)
}

func (s *service) GetAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.CustomerAddress, error) {
	address, err := s.repo.GetAddress(ctx, customerID, addressID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, err
	}
	return address, nil
}

// DefaultAddress returns the customer's default address, or nil when none is set.
func (s *service) DefaultAddress(ctx context.Context, customerID uuid.UUID) (*models.CustomerAddress, error) {
	customer, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.DefaultAddressID == nil {
		return nil, nil
	}
	return s.GetAddress(ctx, customerID, *customer.DefaultAddressID)
}

func (s *service) mint(customer *models.Customer) (string, error) {
	token, err := auth.MintAccessToken(s.jwtConfig, s.now(), auth.AccessTokenPayload{
		CustomerID: customer.ID,
		Role:       customer.Role,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return token, nil
}
