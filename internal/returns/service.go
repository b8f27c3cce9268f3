package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tindahanph/storefront-backend/internal/inventory"
	"github.com/tindahanph/storefront-backend/internal/orders"
	"github.com/tindahanph/storefront-backend/pkg/db/models"
	"github.com/tindahanph/storefront-backend/pkg/enums"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/logger"
	"github.com/tindahanph/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the return/refund workflow. Customers submit and cancel
// requests on their own delivered orders; admins resolve them. Approval
// credits stock back exactly once per order.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Order, error)
	Cancel(ctx context.Context, customerID uuid.UUID, reference string) (*models.Order, error)
	ApproveReturn(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ApproveRefund(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Reject(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Destroy(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params) ([]models.Order, string, error)
}

// SubmitInput carries a customer's return or refund request.
type SubmitInput struct {
	CustomerID uuid.UUID
	Reference  string
	Reason     string
	Type       enums.ReturnType
}

type service struct {
	repo   orders.Repository
	ledger inventory.Ledger
	tx     txRunner
	logg   *logger.Logger
}

// NewService wires a return workflow service with its dependencies.
func NewService(repo orders.Repository, ledger inventory.Ledger, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, ledger: ledger, tx: tx, logg: logg}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid return type %q", input.Type))
	}

	order, err := s.getOwned(ctx, input.CustomerID, input.Reference)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be returned")
	}
	if order.ReturnRefundStatus != enums.ReturnRefundStatusNone {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a return request already exists for this order")
	}

	order.ReturnRefundStatus = enums.ReturnRefundStatusRequested
	order.ReturnType = &input.Type
	order.Notes = &input.Reason
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderRef(ctx, order.ReferenceNumber)
	s.logg.Info(ctx, "return requested")
	return order, nil
}

func (s *service) Cancel(ctx context.Context, customerID uuid.UUID, reference string) (*models.Order, error) {
	order, err := s.getOwned(ctx, customerID, reference)
	if err != nil {
		return nil, err
	}
	if order.ReturnRefundStatus != enums.ReturnRefundStatusRequested {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending return request to cancel")
	}

	order.ReturnRefundStatus = enums.ReturnRefundStatusNone
	order.ReturnType = nil
	order.Notes = nil
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ApproveReturn moves requested to approved, marks the order returned, and
// credits stock back for every line. The requested-only guard makes the stock
// credit happen at most once; re-approving an approved order is a conflict.
func (s *service) ApproveReturn(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ReturnRefundStatus != enums.ReturnRefundStatusRequested {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "return request is not pending approval")
	}

	order.ReturnRefundStatus = enums.ReturnRefundStatusApproved
	order.OrderStatus = enums.OrderStatusReturned

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Save(ctx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := s.ledger.WithTx(tx).Increment(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "return approval failed")
	}

	ctx = s.logg.WithOrderRef(ctx, order.ReferenceNumber)
	s.logg.Info(ctx, "return approved, stock credited")
	return order, nil
}

// ApproveRefund marks an approved return as financially settled. Money
// movement happens outside this system.
func (s *service) ApproveRefund(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ReturnRefundStatus != enums.ReturnRefundStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only approved returns can be refunded")
	}

	order.ReturnRefundStatus = enums.ReturnRefundStatusRefunded
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Reject(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ReturnRefundStatus != enums.ReturnRefundStatusRequested {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "return request is not pending approval")
	}

	order.ReturnRefundStatus = enums.ReturnRefundStatusRejected
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Destroy resets a pending request back to none without touching the order
// itself. Kept as a separate admin action from customer cancellation.
func (s *service) Destroy(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ReturnRefundStatus != enums.ReturnRefundStatusRequested {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending return request to remove")
	}

	order.ReturnRefundStatus = enums.ReturnRefundStatusNone
	order.ReturnType = nil
	order.Notes = nil
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	return s.repo.ListByReturnStatus(ctx, []enums.ReturnRefundStatus{
		enums.ReturnRefundStatusRequested,
		enums.ReturnRefundStatusApproved,
		enums.ReturnRefundStatusRejected,
		enums.ReturnRefundStatusRefunded,
	}, params)
}

func (s *service) get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) getOwned(ctx context.Context, customerID uuid.UUID, reference string) (*models.Order, error) {
	order, err := s.repo.GetOwnedByReference(ctx, customerID, reference)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}
