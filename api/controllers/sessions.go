package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lokapasar/checkout/api/responses"
	"github.com/lokapasar/checkout/api/validators"
	checkoutsvc "github.com/lokapasar/checkout/internal/checkout"
	"github.com/lokapasar/checkout/pkg/commerce"
	"github.com/lokapasar/checkout/pkg/enums"
	pkgerrors "github.com/lokapasar/checkout/pkg/errors"
	"github.com/lokapasar/checkout/pkg/logger"
	"github.com/lokapasar/checkout/pkg/money"
)

// SessionCreate opens a checkout session over a purchase draft.
func SessionCreate(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload sessionCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CreateSession(r.Context(), payload.PurchaseCode, payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newSessionResponse(session))
	}
}

// SessionFetch returns the current session snapshot.
func SessionFetch(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := svc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

// SessionSelectAddress changes a group's destination address.
func SessionSelectAddress(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload selectAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.SelectAddress(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "sellerID"), payload.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

// SessionRequestQuote fetches fresh shipping options for a group.
func SessionRequestQuote(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := svc.RequestQuote(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "sellerID"))
		if err != nil {
			// The group-level failure state is already stored; the session
			// snapshot would only mask the error code here.
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

// SessionSelectShipping picks one of the fetched options.
func SessionSelectShipping(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload selectShippingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.SelectShipping(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "sellerID"), payload.Label)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

// SessionSetNotes updates the seller notes for a group.
func SessionSetNotes(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setNotesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.SetNotes(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "sellerID"), payload.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

// SessionSubmit submits every store group as one multi-checkout.
func SessionSubmit(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		invoiceCode, session, err := svc.Submit(r.Context(), chi.URLParam(r, "sessionID"), method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, submitResponse{
			InvoiceCode: invoiceCode,
			Session:     newSessionResponse(session),
		})
	}
}

// SessionTeardown removes the session.
func SessionTeardown(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Teardown(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type sessionCreateRequest struct {
	PurchaseCode string                 `json:"purchase_code" validate:"required"`
	Items        []checkoutsvc.LineItem `json:"items" validate:"required,min=1,dive"`
}

type selectAddressRequest struct {
	AddressID string `json:"address_id" validate:"required"`
}

type selectShippingRequest struct {
	Label string `json:"label" validate:"required"`
}

type setNotesRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}

type submitRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

type submitResponse struct {
	InvoiceCode string          `json:"invoice_code"`
	Session     sessionResponse `json:"session"`
}

type sessionResponse struct {
	ID           string               `json:"id"`
	PurchaseCode string               `json:"purchase_code"`
	Groups       []storeGroupResponse `json:"groups"`
	Totals       totalsResponse       `json:"totals"`
	Ready        bool                 `json:"ready_for_checkout"`
	InvoiceCode  string               `json:"invoice_code,omitempty"`
}

type storeGroupResponse struct {
	SellerID        string                 `json:"seller_id"`
	SellerName      string                 `json:"seller_name"`
	Items           []checkoutsvc.LineItem `json:"items"`
	SubtotalIDR     int64                  `json:"subtotal"`
	SubtotalDisplay string                 `json:"subtotal_display"`
	AddressID       string                 `json:"address_id,omitempty"`
	Options         []shippingOptionDTO    `json:"shipping_options"`
	SelectedService string                 `json:"selected_service,omitempty"`
	ShippingCostIDR int64                  `json:"shipping_cost"`
	Notes           string                 `json:"notes,omitempty"`
	QuoteInFlight   bool                   `json:"quote_in_flight"`
	QuoteError      string                 `json:"quote_error,omitempty"`
}

type shippingOptionDTO struct {
	Label       string `json:"label"`
	DisplayName string `json:"display_name"`
	CostIDR     int64  `json:"cost"`
	CostDisplay string `json:"cost_display"`
	ETD         string `json:"etd"`
}

type totalsResponse struct {
	GoodsSubtotalIDR  int64  `json:"goods_subtotal"`
	ShippingTotalIDR  int64  `json:"shipping_total"`
	AdminFeeIDR       int64  `json:"admin_fee"`
	GrandTotalIDR     int64  `json:"grand_total"`
	GrandTotalDisplay string `json:"grand_total_display"`
}

func newSessionResponse(session *checkoutsvc.Session) sessionResponse {
	if session == nil {
		return sessionResponse{}
	}
	groups := make([]storeGroupResponse, 0, len(session.Groups))
	for _, group := range session.Groups {
		groups = append(groups, storeGroupResponse{
			SellerID:        group.SellerID,
			SellerName:      group.SellerName,
			Items:           group.Items,
			SubtotalIDR:     group.SubtotalIDR,
			SubtotalDisplay: money.FormatIDR(group.SubtotalIDR),
			AddressID:       group.AddressID,
			Options:         newShippingOptionDTOs(group.Options),
			SelectedService: group.SelectedService,
			ShippingCostIDR: group.ShippingCostIDR,
			Notes:           group.Notes,
			QuoteInFlight:   group.QuoteInFlight,
			QuoteError:      group.QuoteError,
		})
	}
	totals := session.Totals()
	return sessionResponse{
		ID:           session.ID,
		PurchaseCode: session.PurchaseCode,
		Groups:       groups,
		Totals: totalsResponse{
			GoodsSubtotalIDR:  totals.GoodsSubtotalIDR,
			ShippingTotalIDR:  totals.ShippingTotalIDR,
			AdminFeeIDR:       totals.AdminFeeIDR,
			GrandTotalIDR:     totals.GrandTotalIDR,
			GrandTotalDisplay: money.FormatIDR(totals.GrandTotalIDR),
		},
		Ready:       session.ReadyForCheckout(),
		InvoiceCode: session.InvoiceCode,
	}
}

func newShippingOptionDTOs(options []commerce.ShippingOption) []shippingOptionDTO {
	out := make([]shippingOptionDTO, 0, len(options))
	for _, option := range options {
		out = append(out, shippingOptionDTO{
			Label:       option.Label(),
			DisplayName: option.DisplayName,
			CostIDR:     option.CostIDR,
			CostDisplay: money.FormatIDR(option.CostIDR),
			ETD:         option.ETD,
		})
	}
	return out
}
