package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tindahanph/storefront-backend/internal/cart"
	"github.com/tindahanph/storefront-backend/internal/inventory"
	"github.com/tindahanph/storefront-backend/internal/orders"
	"github.com/tindahanph/storefront-backend/pkg/config"
	"github.com/tindahanph/storefront-backend/pkg/db/models"
	"github.com/tindahanph/storefront-backend/pkg/enums"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/logger"
	"github.com/tindahanph/storefront-backend/pkg/metrics"
	"github.com/tindahanph/storefront-backend/pkg/paymongo"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentGateway creates e-wallet payment sources. Any failure aborts the
// checkout attempt with no mutation; the customer resubmits.
type PaymentGateway interface {
	CreateSource(ctx context.Context, params paymongo.CreateSourceParams) (*paymongo.Source, error)
}

// QRPicker selects a display-only QR image for the manual reference path.
type QRPicker interface {
	Random(ctx context.Context) (*models.QRCode, error)
}

// AddressResolver looks up delivery addresses scoped to their owner.
type AddressResolver interface {
	GetAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.CustomerAddress, error)
	DefaultAddress(ctx context.Context, customerID uuid.UUID) (*models.CustomerAddress, error)
}

// CustomerGetter provides the billing identity sent to the gateway.
type CustomerGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// Service is the checkout orchestrator. Review computes totals, Pay opens a
// gateway redirect or the manual QR path, Success finalizes a gateway
// payment, ProcessCOD finalizes synchronously, and ConfirmPayment settles
// the manual path.
type Service interface {
	Review(ctx context.Context, input ReviewInput) (*ReviewResult, error)
	Pay(ctx context.Context, input PayInput) (*PayResult, error)
	Success(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
	ProcessCOD(ctx context.Context, input CODInput) (*models.Order, error)
	ShowQR(ctx context.Context, customerID uuid.UUID) (*PayResult, error)
	ConfirmPayment(ctx context.Context, input ConfirmInput) (*models.Order, error)
}

// ReviewInput identifies the customer and delivery choice under review.
type ReviewInput struct {
	CustomerID     uuid.UUID
	DeliveryMethod enums.DeliveryMethod
	AddressID      *uuid.UUID
}

// ReviewResult is the checkout summary shown before payment.
type ReviewResult struct {
	Items          []models.CartItem
	Address        *models.CustomerAddress
	Subtotal       decimal.Decimal
	ShippingAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// PayInput submits a reviewed checkout for payment.
type PayInput struct {
	CustomerID     uuid.UUID
	DeliveryMethod enums.DeliveryMethod
	AddressID      *uuid.UUID
	PaymentOption  enums.PaymentOption
	Notes          *string
}

// PayResult is either a gateway redirect or the manual QR view.
type PayResult struct {
	CheckoutURL string
	Order       *models.Order
	QRCode      *models.QRCode
}

// CODInput submits a synchronous cash or cash-on-delivery checkout.
type CODInput struct {
	CustomerID     uuid.UUID
	DeliveryMethod enums.DeliveryMethod
	PaymentMethod  enums.PaymentMethod
	AddressID      *uuid.UUID
	Notes          *string
}

// ConfirmInput settles a manual QR order with the customer's reference code.
type ConfirmInput struct {
	CustomerID uuid.UUID
	OrderID    uuid.UUID
	PaymentRef string
}

var paymentRefPattern = regexp.MustCompile(`^\d{4}$`)

type service struct {
	cartRepo  cart.Repository
	orderRepo orders.Repository
	ledger    inventory.Ledger
	tx        txRunner
	gateway   PaymentGateway
	sessions  *SessionStore
	qr        QRPicker
	addresses AddressResolver
	customers CustomerGetter
	cfg       config.CheckoutConfig
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the checkout orchestrator with its collaborators.
func NewService(
	cartRepo cart.Repository,
	orderRepo orders.Repository,
	ledger inventory.Ledger,
	tx txRunner,
	gateway PaymentGateway,
	sessions *SessionStore,
	qr QRPicker,
	addresses AddressResolver,
	customers CustomerGetter,
	cfg config.CheckoutConfig,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if qr == nil {
		return nil, fmt.Errorf("qr picker required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address resolver required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer getter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		ledger:    ledger,
		tx:        tx,
		gateway:   gateway,
		sessions:  sessions,
		qr:        qr,
		addresses: addresses,
		customers: customers,
		cfg:       cfg,
		metrics:   checkoutMetrics,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) Review(ctx context.Context, input ReviewInput) (*ReviewResult, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if !input.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid delivery method %q", input.DeliveryMethod))
	}

	items, err := s.cartRepo.ListSelected(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no selected items")
	}

	var address *models.CustomerAddress
	if input.DeliveryMethod == enums.DeliveryMethodDelivery {
		address, err = s.resolveAddress(ctx, input.CustomerID, input.AddressID)
		if err != nil {
			return nil, err
		}
	}

	subtotal := cart.Subtotal(items)
	shipping := s.shippingFor(input.DeliveryMethod)
	return &ReviewResult{
		Items:          items,
		Address:        address,
		Subtotal:       subtotal,
		ShippingAmount: shipping,
		TotalAmount:    subtotal.Add(shipping),
	}, nil
}

func (s *service) Pay(ctx context.Context, input PayInput) (*PayResult, error) {
	if !input.PaymentOption.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment option %q", input.PaymentOption))
	}

	review, err := s.Review(ctx, ReviewInput{
		CustomerID:     input.CustomerID,
		DeliveryMethod: input.DeliveryMethod,
		AddressID:      input.AddressID,
	})
	if err != nil {
		return nil, err
	}

	switch input.PaymentOption {
	case enums.PaymentOptionGCash:
		return s.payViaGateway(ctx, input, review)
	case enums.PaymentOptionQRCode:
		return s.payViaQR(ctx, input, review)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment option %q", input.PaymentOption))
	}
}

func (s *service) payViaGateway(ctx context.Context, input PayInput, review *ReviewResult) (*PayResult, error) {
	customer, err := s.customers.Get(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	billing := paymongo.Billing{
		Name:  customer.FirstName + " " + customer.LastName,
		Email: customer.Email,
		Phone: customer.Phone,
	}
	if review.Address != nil {
		billing.Address = paymongo.BillingAddress{
			Line1:      review.Address.CompleteAddress,
			City:       review.Address.City,
			State:      review.Address.Province,
			PostalCode: review.Address.ZipCode,
			Country:    "PH",
		}
	}

	source, err := s.gateway.CreateSource(ctx, paymongo.CreateSourceParams{
		AmountCents:     review.TotalAmount.Mul(decimal.NewFromInt(100)).IntPart(),
		Billing:         billing,
		SuccessRedirect: s.cfg.SuccessRedirect,
		FailedRedirect:  s.cfg.FailedRedirect,
	})
	if err != nil {
		s.metrics.IncGatewayFailure()
		return nil, err
	}

	session := &PendingPaymentSession{
		SourceID:       source.ID,
		Lines:          sessionLines(review.Items),
		Subtotal:       review.Subtotal,
		ShippingAmount: review.ShippingAmount,
		TotalAmount:    review.TotalAmount,
		DeliveryMethod: input.DeliveryMethod,
		Notes:          input.Notes,
		CreatedAt:      s.now(),
	}
	if review.Address != nil {
		session.ShippingAddressID = &review.Address.ID
		oneline := review.Address.Oneline()
		session.ShippingAddress = &oneline
	}
	if err := s.sessions.Save(ctx, input.CustomerID, session); err != nil {
		return nil, err
	}

	ctx = s.logg.WithCustomerID(ctx, input.CustomerID.String())
	s.logg.Info(ctx, "gateway checkout submitted")
	return &PayResult{CheckoutURL: source.CheckoutURL}, nil
}

func (s *service) payViaQR(ctx context.Context, input PayInput, review *ReviewResult) (*PayResult, error) {
	start := s.now()

	// a resubmission while an unpaid QR order exists re-shows that order
	// instead of placing (and decrementing stock for) a second one
	if existing, err := s.pendingQROrder(ctx, input.CustomerID); err != nil {
		return nil, err
	} else if existing != nil {
		qrCode, err := s.qr.Random(ctx)
		if err != nil {
			return nil, err
		}
		return &PayResult{Order: existing, QRCode: qrCode}, nil
	}

	// picked before the transaction so an empty pool cannot strand a
	// placed order behind an error response
	qrCode, err := s.qr.Random(ctx)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(input.CustomerID, review, input.DeliveryMethod, enums.PaymentMethodGCash, enums.PaymentStatusPending, input.Notes)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.decrementStock(ctx, tx, review.Items)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order placement failed")
	}

	session := &PendingPaymentSession{
		OrderID:        &order.ID,
		Lines:          sessionLines(review.Items),
		Subtotal:       review.Subtotal,
		ShippingAmount: review.ShippingAmount,
		TotalAmount:    review.TotalAmount,
		DeliveryMethod: input.DeliveryMethod,
		Notes:          input.Notes,
		CreatedAt:      s.now(),
	}
	if err := s.sessions.Save(ctx, input.CustomerID, session); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("qr payment session not saved: %v", err))
	}

	s.metrics.IncOrderPlaced(string(enums.PaymentMethodGCash))
	s.metrics.ObserveDuration("qr", s.now().Sub(start))
	ctx = s.logg.WithOrderRef(ctx, order.ReferenceNumber)
	s.logg.Info(ctx, "qr order placed, awaiting reference confirmation")
	return &PayResult{Order: order, QRCode: qrCode}, nil
}

// pendingQROrder returns the customer's unpaid QR order recorded in the
// payment session, or nil when there is none. Sessions pointing at settled
// or vanished orders are discarded.
func (s *service) pendingQROrder(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {
	session, err := s.sessions.Peek(ctx, customerID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeSessionExpired {
			return nil, nil
		}
		return nil, err
	}
	if session.OrderID == nil {
		return nil, nil
	}

	order, err := s.orderRepo.GetByID(ctx, *session.OrderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return nil, s.sessions.Discard(ctx, customerID)
		}
		return nil, err
	}
	if order.CustomerID != customerID || order.PaymentStatus != enums.PaymentStatusPending {
		return nil, s.sessions.Discard(ctx, customerID)
	}
	return order, nil
}

func (s *service) ShowQR(ctx context.Context, customerID uuid.UUID) (*PayResult, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	order, err := s.pendingQROrder(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeSessionExpired, "no pending qr order")
	}

	qrCode, err := s.qr.Random(ctx)
	if err != nil {
		return nil, err
	}
	return &PayResult{Order: order, QRCode: qrCode}, nil
}

func (s *service) Success(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	start := s.now()

	session, err := s.sessions.Consume(ctx, customerID)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ReferenceNumber:        orders.NewReferenceNumber(),
		CustomerID:             customerID,
		TotalAmount:            session.TotalAmount,
		ShippingAmount:         session.ShippingAmount,
		PaymentMethod:          enums.PaymentMethodGCash,
		PaymentStatus:          enums.PaymentStatusPaid,
		PaymentReferenceNumber: &session.SourceID,
		OrderStatus:            enums.OrderStatusPending,
		ReturnRefundStatus:     enums.ReturnRefundStatusNone,
		ShippingMethod:         session.DeliveryMethod,
		ShippingAddress:        session.ShippingAddress,
		ShippingAddressID:      session.ShippingAddressID,
		Notes:                  session.Notes,
	}
	cartItemIDs := make([]uuid.UUID, 0, len(session.Lines))
	for _, line := range session.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			UnitAmount:  line.UnitAmount,
			TotalAmount: line.UnitAmount.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
		cartItemIDs = append(cartItemIDs, line.CartItemID)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		for _, line := range session.Lines {
			if err := s.ledger.WithTx(tx).Decrement(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return s.cartRepo.WithTx(tx).DeleteByIDs(ctx, customerID, cartItemIDs)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order placement failed")
	}

	s.metrics.IncOrderPlaced(string(enums.PaymentMethodGCash))
	s.metrics.ObserveDuration("gateway_success", s.now().Sub(start))
	ctx = s.logg.WithOrderRef(ctx, order.ReferenceNumber)
	s.logg.Info(ctx, "gateway order finalized")
	return order, nil
}

func (s *service) ProcessCOD(ctx context.Context, input CODInput) (*models.Order, error) {
	if input.PaymentMethod != enums.PaymentMethodCash && input.PaymentMethod != enums.PaymentMethodCOD {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid cod payment method %q", input.PaymentMethod))
	}
	start := s.now()

	review, err := s.Review(ctx, ReviewInput{
		CustomerID:     input.CustomerID,
		DeliveryMethod: input.DeliveryMethod,
		AddressID:      input.AddressID,
	})
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(input.CustomerID, review, input.DeliveryMethod, input.PaymentMethod, enums.PaymentStatusPending, input.Notes)
	cartItemIDs := make([]uuid.UUID, 0, len(review.Items))
	for _, item := range review.Items {
		cartItemIDs = append(cartItemIDs, item.ID)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		if err := s.decrementStock(ctx, tx, review.Items); err != nil {
			return err
		}
		return s.cartRepo.WithTx(tx).DeleteByIDs(ctx, input.CustomerID, cartItemIDs)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order placement failed")
	}

	s.metrics.IncOrderPlaced(string(input.PaymentMethod))
	s.metrics.ObserveDuration("cod", s.now().Sub(start))
	ctx = s.logg.WithOrderRef(ctx, order.ReferenceNumber)
	s.logg.Info(ctx, "cod order placed")
	return order, nil
}

func (s *service) ConfirmPayment(ctx context.Context, input ConfirmInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if !paymentRefPattern.MatchString(input.PaymentRef) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference must be a 4-digit number")
	}

	order, err := s.orderRepo.GetByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	if order.CustomerID != input.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}

	order.PaymentStatus = enums.PaymentStatusPaid
	order.PaymentReferenceNumber = &input.PaymentRef

	// the session snapshot pins which cart lines the order consumed; lines
	// added after submission stay in the cart
	var sessionLineIDs []uuid.UUID
	sessionMatches := false
	if session, peekErr := s.sessions.Peek(ctx, input.CustomerID); peekErr == nil &&
		session.OrderID != nil && *session.OrderID == order.ID {
		sessionMatches = true
		for _, line := range session.Lines {
			sessionLineIDs = append(sessionLineIDs, line.CartItemID)
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Save(ctx, order); err != nil {
			return err
		}
		if len(sessionLineIDs) > 0 {
			return s.cartRepo.WithTx(tx).DeleteByIDs(ctx, input.CustomerID, sessionLineIDs)
		}
		return s.cartRepo.WithTx(tx).DeleteSelected(ctx, input.CustomerID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "payment confirmation failed")
	}

	if sessionMatches {
		if err := s.sessions.Discard(ctx, input.CustomerID); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("settled qr session not discarded: %v", err))
		}
	}

	ctx = s.logg.WithOrderRef(ctx, order.ReferenceNumber)
	s.logg.Info(ctx, "qr payment confirmed")
	return order, nil
}

func (s *service) buildOrder(
	customerID uuid.UUID,
	review *ReviewResult,
	deliveryMethod enums.DeliveryMethod,
	paymentMethod enums.PaymentMethod,
	paymentStatus enums.PaymentStatus,
	notes *string,
) *models.Order {
	order := &models.Order{
		ReferenceNumber:    orders.NewReferenceNumber(),
		CustomerID:         customerID,
		TotalAmount:        review.TotalAmount,
		ShippingAmount:     review.ShippingAmount,
		PaymentMethod:      paymentMethod,
		PaymentStatus:      paymentStatus,
		OrderStatus:        enums.OrderStatusPending,
		ReturnRefundStatus: enums.ReturnRefundStatusNone,
		ShippingMethod:     deliveryMethod,
		Notes:              notes,
	}
	if review.Address != nil {
		order.ShippingAddressID = &review.Address.ID
		oneline := review.Address.Oneline()
		order.ShippingAddress = &oneline
	}
	for _, item := range review.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitAmount:  item.Price,
			TotalAmount: item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return order
}

func (s *service) decrementStock(ctx context.Context, tx *gorm.DB, items []models.CartItem) error {
	for _, item := range items {
		if err := s.ledger.WithTx(tx).Decrement(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) resolveAddress(ctx context.Context, customerID uuid.UUID, addressID *uuid.UUID) (*models.CustomerAddress, error) {
	if addressID != nil {
		return s.addresses.GetAddress(ctx, customerID, *addressID)
	}
	address, err := s.addresses.DefaultAddress(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery requires a shipping address")
	}
	return address, nil
}

func (s *service) shippingFor(method enums.DeliveryMethod) decimal.Decimal {
	if method == enums.DeliveryMethodPickup {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.cfg.ShippingFlat))
}

func sessionLines(items []models.CartItem) []SessionLine {
	lines := make([]SessionLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, SessionLine{
			CartItemID: item.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitAmount: item.Price,
		})
	}
	return lines
}
