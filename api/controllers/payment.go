package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tindahanph/storefront-backend/api/responses"
	"github.com/tindahanph/storefront-backend/api/validators"
	checkoutsvc "github.com/tindahanph/storefront-backend/internal/checkout"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/logger"
)

type paymentConfirmRequest struct {
	OrderID    string `json:"order_id" validate:"required,uuid4"`
	PaymentRef string `json:"payment_ref" validate:"required,len=4,numeric"`
}

// PaymentConfirm settles a QR order once the customer submits the 4-digit
// reference from their payment app. Malformed references never reach the order.
func PaymentConfirm(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentConfirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.ConfirmPayment(r.Context(), checkoutsvc.ConfirmInput{
			CustomerID: customerID,
			OrderID:    orderID,
			PaymentRef: payload.PaymentRef,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}
