package checkout

import (
	"time"

	"github.com/lokapasar/checkout/pkg/commerce"
)

// LineItem is one purchased product row inside a checkout session.
type LineItem struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	UnitPriceIDR int64  `json:"unit_price"`
	Quantity     int    `json:"quantity"`
	SubtotalIDR  int64  `json:"subtotal"`
	SellerID     string `json:"seller_id"`
	SellerName   string `json:"seller_name"`
	ImageURL     string `json:"image_url"`
}

// ComputedSubtotal returns unit price times quantity; the stored subtotal
// must always equal this value.
func (l LineItem) ComputedSubtotal() int64 {
	return l.UnitPriceIDR * int64(l.Quantity)
}

// StoreGroup bundles the line items of one seller plus the buyer's
// destination, shipping selection, and notes for that seller.
type StoreGroup struct {
	SellerID    string     `json:"seller_id"`
	SellerName  string     `json:"seller_name"`
	Items       []LineItem `json:"items"`
	SubtotalIDR int64      `json:"subtotal"`

	AddressID       string                    `json:"address_id,omitempty"`
	Options         []commerce.ShippingOption `json:"shipping_options,omitempty"`
	SelectedService string                    `json:"selected_service,omitempty"`
	ShippingCostIDR int64                     `json:"shipping_cost"`
	Notes           string                    `json:"notes,omitempty"`

	QuoteInFlight bool   `json:"quote_in_flight"`
	QuoteEpoch    uint64 `json:"quote_epoch"`
	QuoteError    string `json:"quote_error,omitempty"`
}

// SelectedOption returns the shipping option matching the current selection.
func (g *StoreGroup) SelectedOption() (commerce.ShippingOption, bool) {
	if g == nil || g.SelectedService == "" {
		return commerce.ShippingOption{}, false
	}
	for _, option := range g.Options {
		if option.Label() == g.SelectedService {
			return option, true
		}
	}
	return commerce.ShippingOption{}, false
}

// Ready reports whether this group alone blocks checkout.
func (g *StoreGroup) Ready() bool {
	return g != nil && g.AddressID != "" && g.SelectedService != "" && !g.QuoteInFlight
}

// Totals aggregates session-level amounts. Grand total is always the sum
// of the other three, recomputed on demand.
type Totals struct {
	GoodsSubtotalIDR int64 `json:"goods_subtotal"`
	ShippingTotalIDR int64 `json:"shipping_total"`
	AdminFeeIDR      int64 `json:"admin_fee"`
	GrandTotalIDR    int64 `json:"grand_total"`
}

// Session is one checkout attempt over a purchase draft. It exists only for
// the duration of the checkout flow.
type Session struct {
	ID           string        `json:"id"`
	PurchaseCode string        `json:"purchase_code"`
	AdminFeeIDR  int64         `json:"admin_fee"`
	Groups       []*StoreGroup `json:"groups"`
	InvoiceCode  string        `json:"invoice_code,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Group finds the seller's group inside the session.
func (s *Session) Group(sellerID string) *StoreGroup {
	if s == nil {
		return nil
	}
	for _, group := range s.Groups {
		if group.SellerID == sellerID {
			return group
		}
	}
	return nil
}

// Totals recomputes the session totals from the current group state.
func (s *Session) Totals() Totals {
	totals := Totals{AdminFeeIDR: s.AdminFeeIDR}
	for _, group := range s.Groups {
		totals.GoodsSubtotalIDR += group.SubtotalIDR
		if group.SelectedService != "" {
			totals.ShippingTotalIDR += group.ShippingCostIDR
		}
	}
	totals.GrandTotalIDR = totals.GoodsSubtotalIDR + totals.ShippingTotalIDR + totals.AdminFeeIDR
	return totals
}

// ReadyForCheckout holds iff every group has an address, a shipping
// selection, and no quote in flight.
func (s *Session) ReadyForCheckout() bool {
	if s == nil || len(s.Groups) == 0 {
		return false
	}
	for _, group := range s.Groups {
		if !group.Ready() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy safe to hand to callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	copied := *s
	copied.Groups = make([]*StoreGroup, len(s.Groups))
	for i, group := range s.Groups {
		g := *group
		g.Items = append([]LineItem(nil), group.Items...)
		g.Options = append([]commerce.ShippingOption(nil), group.Options...)
		copied.Groups[i] = &g
	}
	return &copied
}
