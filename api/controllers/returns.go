package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tindahanph/storefront-backend/api/responses"
	"github.com/tindahanph/storefront-backend/api/validators"
	returnssvc "github.com/tindahanph/storefront-backend/internal/returns"
	"github.com/tindahanph/storefront-backend/pkg/enums"
	"github.com/tindahanph/storefront-backend/pkg/logger"
)

type returnSubmitRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
	Type   string `json:"type" validate:"required,oneof=return refund"`
}

func ReturnSubmit(svc returnssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload returnSubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Submit(r.Context(), returnssvc.SubmitInput{
			CustomerID: customerID,
			Reference:  chi.URLParam(r, "reference"),
			Reason:     payload.Reason,
			Type:       enums.ReturnType(payload.Type),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

func ReturnCancel(svc returnssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), customerID, chi.URLParam(r, "reference"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}
