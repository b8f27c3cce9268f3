package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tindahanph/storefront-backend/api/middleware"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
)

func customerIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.CustomerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	customerID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid customer id")
	}
	return customerID, nil
}
