package controllers

import (
	"fmt"
	"net/http"

	"github.com/tindahanph/storefront-backend/api/middleware"
	"github.com/tindahanph/storefront-backend/api/responses"
	"github.com/tindahanph/storefront-backend/api/validators"
	cartsvc "github.com/tindahanph/storefront-backend/internal/cart"
	"github.com/tindahanph/storefront-backend/internal/customers"
	"github.com/tindahanph/storefront-backend/pkg/db/models"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/logger"
)

type registerRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"max=30"`
	Password  string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Customer customerView `json:"customer"`
	Token    string       `json:"token"`
}

type customerView struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
}

func newCustomerView(customer *models.Customer) customerView {
	return customerView{
		ID:        customer.ID.String(),
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Email:     customer.Email,
		Phone:     customer.Phone,
		Role:      string(customer.Role),
	}
}

func Register(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, token, err := svc.Register(r.Context(), customers.RegisterInput{
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Email:     payload.Email,
			Phone:     payload.Phone,
			Password:  payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, authResponse{
			Customer: newCustomerView(customer),
			Token:    token,
		})
	}
}

// Login authenticates a customer and, when the request carries a guest
// session cookie, folds that session's cart into the customer's cart.
func Login(svc customers.Service, guest *cartsvc.GuestStore, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, token, err := svc.Login(r.Context(), payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// a merge failure keeps the guest cart in redis for the next
		// attempt; it never blocks the login itself
		if guestToken := middleware.GuestSessionFromCookie(r); guestToken != "" && guest != nil && carts != nil {
			if err := guest.Merge(r.Context(), guestToken, customer.ID, carts); err != nil {
				logg.Warn(r.Context(), fmt.Sprintf("guest cart merge failed: %v", err))
			}
		}

		responses.WriteSuccess(w, authResponse{
			Customer: newCustomerView(customer),
			Token:    token,
		})
	}
}
