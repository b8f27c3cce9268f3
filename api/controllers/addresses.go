package controllers

import (
	"net/http"

	"github.com/tindahanph/storefront-backend/api/responses"
	"github.com/tindahanph/storefront-backend/api/validators"
	"github.com/tindahanph/storefront-backend/internal/customers"
	"github.com/tindahanph/storefront-backend/pkg/db/models"
	"github.com/tindahanph/storefront-backend/pkg/logger"
)

type addressCreateRequest struct {
	Label           string `json:"label" validate:"max=50"`
	CompleteAddress string `json:"complete_address" validate:"required,max=500"`
	City            string `json:"city" validate:"required,max=100"`
	Province        string `json:"province" validate:"required,max=100"`
	ZipCode         string `json:"zip_code" validate:"required,max=10"`
	MakeDefault     bool   `json:"make_default"`
}

type addressView struct {
	ID              string `json:"id"`
	Label           string `json:"label,omitempty"`
	CompleteAddress string `json:"complete_address"`
	City            string `json:"city"`
	Province        string `json:"province"`
	ZipCode         string `json:"zip_code"`
}

func newAddressView(address *models.CustomerAddress) addressView {
	return addressView{
		ID:              address.ID.String(),
		Label:           address.Label,
		CompleteAddress: address.CompleteAddress,
		City:            address.City,
		Province:        address.Province,
		ZipCode:         address.ZipCode,
	}
}

func AddressCreate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addressCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address, err := svc.AddAddress(r.Context(), customers.AddAddressInput{
			CustomerID:      customerID,
			Label:           payload.Label,
			CompleteAddress: payload.CompleteAddress,
			City:            payload.City,
			Province:        payload.Province,
			ZipCode:         payload.ZipCode,
			MakeDefault:     payload.MakeDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newAddressView(address))
	}
}

func AddressList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addresses, err := svc.ListAddresses(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]addressView, 0, len(addresses))
		for i := range addresses {
			views = append(views, newAddressView(&addresses[i]))
		}
		responses.WriteSuccess(w, views)
	}
}
