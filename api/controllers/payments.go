package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lokapasar/checkout/api/responses"
	"github.com/lokapasar/checkout/api/validators"
	"github.com/lokapasar/checkout/internal/payment"
	"github.com/lokapasar/checkout/pkg/commerce"
	pkgerrors "github.com/lokapasar/checkout/pkg/errors"
	"github.com/lokapasar/checkout/pkg/logger"
	"github.com/lokapasar/checkout/pkg/money"
)

type invoiceReader interface {
	GetInvoice(ctx context.Context, code string) (*commerce.Invoice, error)
}

// PaymentFetch returns the invoice snapshot plus the live watched status and
// the payment countdown.
func PaymentFetch(invoices invoiceReader, manager *payment.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if invoices == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice client unavailable"))
			return
		}
		code := chi.URLParam(r, "invoiceCode")
		invoice, err := invoices.GetInvoice(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := invoice.Status
		if manager != nil {
			if watched, ok := manager.StatusFor(code); ok {
				status = watched
			}
		}

		responses.WriteSuccess(w, paymentResponse{
			InvoiceCode:       invoice.Code,
			PurchaseCode:      invoice.PurchaseCode,
			SubtotalIDR:       invoice.SubtotalIDR,
			ShippingIDR:       invoice.ShippingIDR,
			AdminFeeIDR:       invoice.AdminFeeIDR,
			GrandTotalIDR:     invoice.GrandTotalIDR,
			GrandTotalDisplay: money.FormatIDR(invoice.GrandTotalIDR),
			PaymentMethod:     invoice.PaymentMethod.String(),
			Status:            status.String(),
			Terminal:          status.IsTerminal(),
			Deadline:          invoice.Deadline,
			Countdown:         payment.Remaining(invoice.Deadline, time.Now()),
		})
	}
}

// PaymentWatch starts (or reuses) the status watcher for the invoice.
func PaymentWatch(manager *payment.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment watcher unavailable"))
			return
		}
		code := chi.URLParam(r, "invoiceCode")
		watcher, err := manager.Watch(code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "start payment watcher"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, watchResponse{
			InvoiceCode: code,
			Status:      watcher.Status().String(),
			Finished:    watcher.Finished(),
		})
	}
}

// PaymentSnap acquires a snap session for the gateway widget.
func PaymentSnap(bridge *payment.Bridge, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if bridge == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment bridge unavailable"))
			return
		}
		session, err := bridge.Begin(r.Context(), chi.URLParam(r, "invoiceCode"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapResponse{
			Token:       session.Token,
			RedirectURL: session.RedirectURL,
			Snap:        bridge.SnapConfig(),
		})
	}
}

// PaymentWidgetOutcome applies a gateway widget callback to the watcher.
func PaymentWidgetOutcome(bridge *payment.Bridge, manager *payment.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if bridge == nil || manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment bridge unavailable"))
			return
		}
		var payload widgetOutcomeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code := chi.URLParam(r, "invoiceCode")
		watcher, err := manager.Watch(code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "start payment watcher"))
			return
		}
		if err := bridge.HandleWidgetOutcome(r.Context(), code, payment.WidgetOutcome(payload.Outcome), watcher); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, watchResponse{
			InvoiceCode: code,
			Status:      watcher.Status().String(),
			Finished:    watcher.Finished(),
		})
	}
}

type paymentResponse struct {
	InvoiceCode       string    `json:"invoice_code"`
	PurchaseCode      string    `json:"purchase_code"`
	SubtotalIDR       int64     `json:"subtotal"`
	ShippingIDR       int64     `json:"shipping_total"`
	AdminFeeIDR       int64     `json:"admin_fee"`
	GrandTotalIDR     int64     `json:"grand_total"`
	GrandTotalDisplay string    `json:"grand_total_display"`
	PaymentMethod     string    `json:"payment_method"`
	Status            string    `json:"status"`
	Terminal          bool      `json:"terminal"`
	Deadline          time.Time `json:"deadline"`
	Countdown         string    `json:"countdown"`
}

type watchResponse struct {
	InvoiceCode string `json:"invoice_code"`
	Status      string `json:"status"`
	Finished    bool   `json:"finished"`
}

type snapResponse struct {
	Token       string             `json:"snap_token"`
	RedirectURL string             `json:"redirect_url,omitempty"`
	Snap        payment.SnapConfig `json:"snap"`
}

type widgetOutcomeRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=success pending error closed"`
}
