package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tindahanph/storefront-backend/pkg/db/models"
	"github.com/tindahanph/storefront-backend/pkg/enums"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/pagination"
)

// Service exposes order reads for customers and fulfillment transitions for admins.
type Service interface {
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	GetForCustomer(ctx context.Context, customerID uuid.UUID, reference string) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Delete(ctx context.Context, reference string) error
}

// UpdateStatusInput carries one admin fulfillment transition.
type UpdateStatusInput struct {
	Reference string
	Status    enums.OrderStatus
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires an order service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if customerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return s.repo.ListByCustomer(ctx, customerID, params)
}

func (s *service) GetForCustomer(ctx context.Context, customerID uuid.UUID, reference string) (*models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	order, err := s.repo.GetOwnedByReference(ctx, customerID, reference)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

// fulfillmentTransitions maps each status to the statuses it may move to.
// Cancelled, delivered, and returned are terminal for fulfillment purposes.
var fulfillmentTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.Status))
	}
	if input.Status == enums.OrderStatusReturned {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "returned is set by the return workflow")
	}

	order, err := s.repo.GetByReference(ctx, input.Reference)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}

	if order.OrderStatus == input.Status {
		return order, nil
	}
	if !transitionAllowed(order.OrderStatus, input.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.OrderStatus, input.Status))
	}

	order.OrderStatus = input.Status
	if input.Status == enums.OrderStatusDelivered {
		now := s.now()
		order.DeliveredAt = &now
	}
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Delete removes an order outright. Reserved for admin cleanup of orders
// that never left the pending state; shipped history stays immutable.
func (s *service) Delete(ctx context.Context, reference string) error {
	order, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return err
	}
	if order.OrderStatus != enums.OrderStatusPending && order.OrderStatus != enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot delete a %s order", order.OrderStatus))
	}
	return s.repo.Delete(ctx, order.ID)
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, allowed := range fulfillmentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
