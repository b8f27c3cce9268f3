package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tindahanph/storefront-backend/pkg/enums"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/redis"
)

// SessionLine snapshots one selected cart line at checkout submission.
type SessionLine struct {
	CartItemID uuid.UUID       `json:"cart_item_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitAmount decimal.Decimal `json:"unit_amount"`
}

// PendingPaymentSession holds the reviewed checkout snapshot while payment is
// in flight. The gateway path consumes it exactly once on the success
// callback; the manual QR path keeps it around, carrying the pending order
// id, until the reference is confirmed.
type PendingPaymentSession struct {
	SourceID          string               `json:"source_id,omitempty"`
	OrderID           *uuid.UUID           `json:"order_id,omitempty"`
	Lines             []SessionLine        `json:"lines"`
	Subtotal          decimal.Decimal      `json:"subtotal"`
	ShippingAmount    decimal.Decimal      `json:"shipping_amount"`
	TotalAmount       decimal.Decimal      `json:"total_amount"`
	DeliveryMethod    enums.DeliveryMethod `json:"delivery_method"`
	ShippingAddressID *uuid.UUID           `json:"shipping_address_id,omitempty"`
	ShippingAddress   *string              `json:"shipping_address,omitempty"`
	Notes             *string              `json:"notes,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

type sessionKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	PaymentSessionKey(customerID string) string
}

// SessionStore persists pending payment sessions with a TTL. One session per
// customer; a resubmitted checkout overwrites the previous snapshot.
type SessionStore struct {
	kv  sessionKV
	ttl time.Duration
}

// NewSessionStore wires a pending session store over the provided key-value client.
func NewSessionStore(kv sessionKV, ttl time.Duration) (*SessionStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive")
	}
	return &SessionStore{kv: kv, ttl: ttl}, nil
}

// Save stores the session snapshot under the customer's key.
func (s *SessionStore) Save(ctx context.Context, customerID uuid.UUID, session *PendingPaymentSession) error {
	if customerID == uuid.Nil {
		return fmt.Errorf("customer id is required")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode payment session: %w", err)
	}
	return s.kv.Set(ctx, s.kv.PaymentSessionKey(customerID.String()), payload, s.ttl)
}

// Consume loads and deletes the customer's session. A missing or expired
// session surfaces as a session-expired error with no side effects.
func (s *SessionStore) Consume(ctx context.Context, customerID uuid.UUID) (*PendingPaymentSession, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("customer id is required")
	}
	key := s.kv.PaymentSessionKey(customerID.String())
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeSessionExpired, "payment session expired")
		}
		return nil, err
	}
	var session PendingPaymentSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode payment session: %w", err)
	}
	if err := s.kv.Del(ctx, key); err != nil {
		return nil, err
	}
	return &session, nil
}

// Peek loads the customer's session without deleting it. A missing or
// expired session surfaces as a session-expired error.
func (s *SessionStore) Peek(ctx context.Context, customerID uuid.UUID) (*PendingPaymentSession, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("customer id is required")
	}
	raw, err := s.kv.Get(ctx, s.kv.PaymentSessionKey(customerID.String()))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeSessionExpired, "payment session expired")
		}
		return nil, err
	}
	var session PendingPaymentSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode payment session: %w", err)
	}
	return &session, nil
}

// Discard drops the customer's session without reading it.
func (s *SessionStore) Discard(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return fmt.Errorf("customer id is required")
	}
	return s.kv.Del(ctx, s.kv.PaymentSessionKey(customerID.String()))
}
