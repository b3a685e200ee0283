package commerce

import (
	"time"

	"github.com/lokapasar/checkout/pkg/enums"
)

// Address is a buyer's saved destination, read-only for checkout.
type Address struct {
	ID            string `json:"id"`
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	AddressLine   string `json:"address_line"`
	PostalCode    string `json:"postal_code"`
	IsPrimary     bool   `json:"is_primary"`
	Province      string `json:"province"`
	Regency       string `json:"regency"`
	District      string `json:"district"`
}

// ShippingOption is one normalized shipping quote. Immutable once fetched.
type ShippingOption struct {
	CourierCode string `json:"courier_code"`
	Service     string `json:"service"`
	DisplayName string `json:"display_name"`
	CostIDR     int64  `json:"cost"`
	ETD         string `json:"etd"`
}

// Label renders the courier-service pair used in checkout submissions.
func (o ShippingOption) Label() string {
	return o.CourierCode + "-" + o.Service
}

// QuoteItem identifies one line in a shipping quote request.
type QuoteItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ShippingQuoteRequest asks the rate API for options covering one seller's items.
type ShippingQuoteRequest struct {
	SellerID  string      `json:"seller_id"`
	AddressID string      `json:"address_id"`
	Items     []QuoteItem `json:"items"`
}

// StoreCheckout is the per-seller portion of a multi-checkout submission.
type StoreCheckout struct {
	SellerID      string `json:"seller_id"`
	AddressID     string `json:"address_id"`
	ShippingLabel string `json:"shipping_label"`
	ShippingCost  int64  `json:"shipping_cost"`
	Notes         string `json:"notes"`
}

// MultiCheckoutRequest submits every seller group atomically.
type MultiCheckoutRequest struct {
	Stores        []StoreCheckout     `json:"stores"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}

// Invoice is the payment-bearing record created at checkout submission.
type Invoice struct {
	Code                   string              `json:"code"`
	PurchaseCode           string              `json:"purchase_code"`
	SubtotalIDR            int64               `json:"subtotal"`
	ShippingIDR            int64               `json:"shipping_total"`
	AdminFeeIDR            int64               `json:"admin_fee"`
	GrandTotalIDR          int64               `json:"grand_total"`
	PaymentMethod          enums.PaymentMethod `json:"payment_method"`
	Status                 enums.PaymentStatus `json:"status_pembayaran"`
	Deadline               time.Time           `json:"deadline"`
	GatewayTransactionID   *string             `json:"transaction_id"`
	GatewayTransactionType *string             `json:"transaction_type"`
}

// SnapSession is a one-time gateway handoff: an embeddable widget token
// plus a redirect fallback when the widget cannot load.
type SnapSession struct {
	Token       string `json:"snap_token"`
	RedirectURL string `json:"redirect_url"`
}
