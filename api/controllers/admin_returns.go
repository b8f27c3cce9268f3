package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tindahanph/storefront-backend/api/responses"
	"github.com/tindahanph/storefront-backend/api/validators"
	returnssvc "github.com/tindahanph/storefront-backend/internal/returns"
	"github.com/tindahanph/storefront-backend/pkg/db/models"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/logger"
	"github.com/tindahanph/storefront-backend/pkg/pagination"
)

func AdminReturnsList(svc returnssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListView(rows, next))
	}
}

func AdminApproveReturn(svc returnssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return adminReturnAction(svc.ApproveReturn, logg)
}

func AdminApproveRefund(svc returnssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return adminReturnAction(svc.ApproveRefund, logg)
}

func AdminRejectReturn(svc returnssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return adminReturnAction(svc.Reject, logg)
}

func AdminDestroyReturn(svc returnssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return adminReturnAction(svc.Destroy, logg)
}

func adminReturnAction(action func(ctx context.Context, orderID uuid.UUID) (*models.Order, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := action(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}
