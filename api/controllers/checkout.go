package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tindahanph/storefront-backend/api/responses"
	"github.com/tindahanph/storefront-backend/api/validators"
	checkoutsvc "github.com/tindahanph/storefront-backend/internal/checkout"
	"github.com/tindahanph/storefront-backend/pkg/db/models"
	"github.com/tindahanph/storefront-backend/pkg/enums"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/logger"
)

type checkoutPayRequest struct {
	AddressID      *string `json:"address_id" validate:"omitempty,uuid4"`
	DeliveryMethod string  `json:"delivery_method" validate:"required,oneof=delivery pickup"`
	PaymentOption  string  `json:"payment_option" validate:"required,oneof=gcash qr_code"`
	Notes          *string `json:"notes" validate:"omitempty,max=500"`
}

type checkoutCODRequest struct {
	AddressID      *string `json:"address_id" validate:"omitempty,uuid4"`
	DeliveryMethod string  `json:"delivery_method" validate:"required,oneof=delivery pickup"`
	PaymentMethod  string  `json:"payment_method" validate:"required,oneof=cash cod"`
	Notes          *string `json:"notes" validate:"omitempty,max=500"`
}

type reviewView struct {
	Items          []cartItemView `json:"items"`
	Address        *addressView   `json:"address,omitempty"`
	Subtotal       string         `json:"subtotal"`
	ShippingAmount string         `json:"shipping_amount"`
	TotalAmount    string         `json:"total_amount"`
}

type orderView struct {
	ID                     string          `json:"id"`
	ReferenceNumber        string          `json:"reference_number"`
	TotalAmount            string          `json:"total_amount"`
	ShippingAmount         string          `json:"shipping_amount"`
	PaymentMethod          string          `json:"payment_method"`
	PaymentStatus          string          `json:"payment_status"`
	PaymentReferenceNumber *string         `json:"payment_reference_number,omitempty"`
	OrderStatus            string          `json:"order_status"`
	ReturnRefundStatus     string          `json:"return_refund_status"`
	ShippingMethod         string          `json:"shipping_method"`
	ShippingAddress        *string         `json:"shipping_address,omitempty"`
	Notes                  *string         `json:"notes,omitempty"`
	DeliveredAt            *string         `json:"delivered_at,omitempty"`
	Items                  []orderItemView `json:"items"`
	CreatedAt              string          `json:"created_at"`
}

type orderItemView struct {
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
	UnitAmount  string `json:"unit_amount"`
	TotalAmount string `json:"total_amount"`
}

func newOrderView(order *models.Order) orderView {
	view := orderView{
		ID:                     order.ID.String(),
		ReferenceNumber:        order.ReferenceNumber,
		TotalAmount:            order.TotalAmount.StringFixed(2),
		ShippingAmount:         order.ShippingAmount.StringFixed(2),
		PaymentMethod:          string(order.PaymentMethod),
		PaymentStatus:          string(order.PaymentStatus),
		PaymentReferenceNumber: order.PaymentReferenceNumber,
		OrderStatus:            string(order.OrderStatus),
		ReturnRefundStatus:     string(order.ReturnRefundStatus),
		ShippingMethod:         string(order.ShippingMethod),
		ShippingAddress:        order.ShippingAddress,
		Notes:                  order.Notes,
		CreatedAt:              order.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if order.DeliveredAt != nil {
		delivered := order.DeliveredAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		view.DeliveredAt = &delivered
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, orderItemView{
			ProductID:   item.ProductID.String(),
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount.StringFixed(2),
			TotalAmount: item.TotalAmount.StringFixed(2),
		})
	}
	return view
}

func CheckoutReview(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method := enums.DeliveryMethod(strings.TrimSpace(r.URL.Query().Get("delivery_method")))
		if method == "" {
			method = enums.DeliveryMethodDelivery
		}

		var addressID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("address_id")); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id"))
				return
			}
			addressID = &parsed
		}

		review, err := svc.Review(r.Context(), checkoutsvc.ReviewInput{
			CustomerID:     customerID,
			DeliveryMethod: method,
			AddressID:      addressID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := reviewView{
			Items:          newCartItemViews(review.Items),
			Subtotal:       review.Subtotal.StringFixed(2),
			ShippingAmount: review.ShippingAmount.StringFixed(2),
			TotalAmount:    review.TotalAmount.StringFixed(2),
		}
		if review.Address != nil {
			address := newAddressView(review.Address)
			view.Address = &address
		}
		responses.WriteSuccess(w, view)
	}
}

func CheckoutPay(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutPayRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := parseOptionalUUID(payload.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Pay(r.Context(), checkoutsvc.PayInput{
			CustomerID:     customerID,
			DeliveryMethod: enums.DeliveryMethod(payload.DeliveryMethod),
			AddressID:      addressID,
			PaymentOption:  enums.PaymentOption(payload.PaymentOption),
			Notes:          payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.CheckoutURL != "" {
			responses.WriteSuccess(w, map[string]string{"checkout_url": result.CheckoutURL})
			return
		}

		order := newOrderView(result.Order)
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order":         order,
			"qr_code_image": result.QRCode.Image,
		})
	}
}

// CheckoutQR re-serves the pending QR order and a display code, so losing
// the page after submission does not force a second order.
func CheckoutQR(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ShowQR(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"order":         newOrderView(result.Order),
			"qr_code_image": result.QRCode.Image,
		})
	}
}

func CheckoutSuccess(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Success(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(order))
	}
}

func CheckoutCOD(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutCODRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := parseOptionalUUID(payload.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ProcessCOD(r.Context(), checkoutsvc.CODInput{
			CustomerID:     customerID,
			DeliveryMethod: enums.DeliveryMethod(payload.DeliveryMethod),
			PaymentMethod:  enums.PaymentMethod(payload.PaymentMethod),
			AddressID:      addressID,
			Notes:          payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(order))
	}
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid uuid")
	}
	return &parsed, nil
}
