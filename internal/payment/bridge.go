package payment

import (
	"context"
	"fmt"

	"github.com/lokapasar/checkout/pkg/commerce"
	"github.com/lokapasar/checkout/pkg/config"
	pkgerrors "github.com/lokapasar/checkout/pkg/errors"
	"github.com/lokapasar/checkout/pkg/logger"
)

// WidgetOutcome is the result reported by the embedded payment widget.
type WidgetOutcome string

const (
	WidgetSuccess WidgetOutcome = "success"
	WidgetPending WidgetOutcome = "pending"
	WidgetError   WidgetOutcome = "error"
	WidgetClosed  WidgetOutcome = "closed"
)

// IsValid reports whether the value is a known WidgetOutcome.
func (o WidgetOutcome) IsValid() bool {
	switch o {
	case WidgetSuccess, WidgetPending, WidgetError, WidgetClosed:
		return true
	default:
		return false
	}
}

type snapClient interface {
	ProcessPayment(ctx context.Context, code string) (*commerce.SnapSession, error)
}

type paymentWatcher interface {
	MarkPaidLocally()
	Nudge()
}

// SnapConfig is what the page embedding the widget needs: the gateway script
// location and the public client key.
type SnapConfig struct {
	ScriptURL string `json:"script_url"`
	ClientKey string `json:"client_key"`
}

// BridgeParams configure the gateway bridge.
type BridgeParams struct {
	Logger  *logger.Logger
	Gateway snapClient
	Payment config.PaymentConfig
}

// Bridge mediates between the invoice and the snap payment gateway: it
// acquires the one-time widget token and translates widget callbacks into
// watcher actions. The widget's own verdict is never trusted as final; every
// outcome triggers a server-side reconciliation.
type Bridge struct {
	logg    *logger.Logger
	gateway snapClient
	cfg     config.PaymentConfig
}

// NewBridge builds the gateway bridge.
func NewBridge(params BridgeParams) (*Bridge, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	return &Bridge{
		logg:    params.Logger,
		gateway: params.Gateway,
		cfg:     params.Payment,
	}, nil
}

// SnapConfig returns the widget embedding parameters.
func (b *Bridge) SnapConfig() SnapConfig {
	return SnapConfig{
		ScriptURL: b.cfg.SnapScriptURL,
		ClientKey: b.cfg.SnapClientKey,
	}
}

// Begin acquires a snap session for the invoice. The request is made exactly
// once; a gateway failure surfaces to the caller so the buyer can fall back
// to another payment method instead of waiting on silent retries.
func (b *Bridge) Begin(ctx context.Context, invoiceCode string) (*commerce.SnapSession, error) {
	if invoiceCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice code is required")
	}
	session, err := b.gateway.ProcessPayment(ctx, invoiceCode)
	if err != nil {
		b.logg.Error(b.logg.WithInvoiceCode(ctx, invoiceCode), "snap session acquisition failed", err)
		return nil, err
	}
	b.logg.Info(b.logg.WithInvoiceCode(ctx, invoiceCode), "snap session acquired")
	return session, nil
}

// HandleWidgetOutcome applies a widget callback to the invoice's watcher.
// Success flips the local view to paid and asks the server to confirm; every
// other outcome only asks for an immediate reconciliation.
func (b *Bridge) HandleWidgetOutcome(ctx context.Context, invoiceCode string, outcome WidgetOutcome, watcher paymentWatcher) error {
	if !outcome.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown widget outcome").
			WithDetails(map[string]string{"outcome": string(outcome)})
	}
	if watcher == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "no watcher for invoice")
	}
	logCtx := b.logg.WithField(b.logg.WithInvoiceCode(ctx, invoiceCode), "outcome", string(outcome))
	if outcome == WidgetSuccess {
		watcher.MarkPaidLocally()
	}
	watcher.Nudge()
	b.logg.Info(logCtx, "widget outcome applied")
	return nil
}
