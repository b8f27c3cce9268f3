package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tindahanph/storefront-backend/api/responses"
	"github.com/tindahanph/storefront-backend/api/validators"
	orderssvc "github.com/tindahanph/storefront-backend/internal/orders"
	"github.com/tindahanph/storefront-backend/pkg/enums"
	"github.com/tindahanph/storefront-backend/pkg/logger"
)

type orderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

// AdminOrderUpdateStatus moves an order along the fulfillment lifecycle.
// The returned status is reserved for the return workflow and rejected here.
func AdminOrderUpdateStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderssvc.UpdateStatusInput{
			Reference: chi.URLParam(r, "reference"),
			Status:    enums.OrderStatus(payload.Status),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// AdminOrderDelete removes a pending or cancelled order outright.
func AdminOrderDelete(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "reference")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
