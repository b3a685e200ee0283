package controllers

import (
	"context"
	"net/http"

	"github.com/lokapasar/checkout/api/responses"
	"github.com/lokapasar/checkout/pkg/commerce"
	pkgerrors "github.com/lokapasar/checkout/pkg/errors"
	"github.com/lokapasar/checkout/pkg/logger"
)

type addressReader interface {
	ListAddresses(ctx context.Context) ([]commerce.Address, error)
}

// AddressList proxies the buyer's saved addresses for the address picker.
func AddressList(addresses addressReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if addresses == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address client unavailable"))
			return
		}
		list, err := addresses.ListAddresses(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
