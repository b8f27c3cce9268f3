package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tindahanph/storefront-backend/api/responses"
	"github.com/tindahanph/storefront-backend/api/validators"
	"github.com/tindahanph/storefront-backend/internal/products"
	"github.com/tindahanph/storefront-backend/internal/qrcodes"
	"github.com/tindahanph/storefront-backend/pkg/db/models"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/logger"
)

type productCreateRequest struct {
	Name  string   `json:"name" validate:"required,max=200"`
	Slug  string   `json:"slug" validate:"required,max=200"`
	Price string   `json:"price" validate:"required"`
	Stock int      `json:"stock" validate:"min=0"`
	Sizes []string `json:"sizes" validate:"omitempty,dive,max=50"`
	Kinds []string `json:"kinds" validate:"omitempty,dive,max=50"`
	Image *string  `json:"image" validate:"omitempty,max=500"`
}

type qrCodeCreateRequest struct {
	Image string `json:"image" validate:"required,max=500"`
}

type qrCodeView struct {
	ID     string `json:"id"`
	Image  string `json:"image"`
	Active bool   `json:"active"`
}

func newQRCodeView(code *models.QRCode) qrCodeView {
	return qrCodeView{
		ID:     code.ID.String(),
		Image:  code.Image,
		Active: code.Active,
	}
}

func AdminProductCreate(repo products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		price, err := decimal.NewFromString(payload.Price)
		if err != nil || price.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price must be a non-negative decimal"))
			return
		}

		product := &models.Product{
			Name:  payload.Name,
			Slug:  payload.Slug,
			Price: price,
			Stock: payload.Stock,
			Sizes: payload.Sizes,
			Kinds: payload.Kinds,
			Image: payload.Image,
		}
		if err := repo.Create(r.Context(), product); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductView(product))
	}
}

func AdminQRCodeCreate(svc qrcodes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload qrCodeCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.Add(r.Context(), payload.Image)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newQRCodeView(code))
	}
}

func AdminQRCodesList(svc qrcodes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codes, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]qrCodeView, 0, len(codes))
		for i := range codes {
			views = append(views, newQRCodeView(&codes[i]))
		}
		responses.WriteSuccess(w, views)
	}
}
