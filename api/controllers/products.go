package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tindahanph/storefront-backend/api/responses"
	"github.com/tindahanph/storefront-backend/internal/products"
	"github.com/tindahanph/storefront-backend/pkg/db/models"
	"github.com/tindahanph/storefront-backend/pkg/logger"
)

type productView struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Slug  string   `json:"slug"`
	Price string   `json:"price"`
	Stock int      `json:"stock"`
	Sizes []string `json:"sizes,omitempty"`
	Kinds []string `json:"kinds,omitempty"`
	Image *string  `json:"image,omitempty"`
}

func newProductView(product *models.Product) productView {
	return productView{
		ID:    product.ID.String(),
		Name:  product.Name,
		Slug:  product.Slug,
		Price: product.Price.StringFixed(2),
		Stock: product.Stock,
		Sizes: product.Sizes,
		Kinds: product.Kinds,
		Image: product.Image,
	}
}

func ProductsList(repo products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]productView, 0, len(rows))
		for i := range rows {
			views = append(views, newProductView(&rows[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

func ProductDetail(repo products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := repo.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductView(product))
	}
}
