package enums

import (
	"fmt"
	"strings"
)

// PaymentStatus tracks the lifecycle of an invoice's payment.
// The wire values are the upstream API's Indonesian labels.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Menunggu"
	PaymentStatusPaid    PaymentStatus = "Dibayar"
	PaymentStatusExpired PaymentStatus = "Kedaluwarsa"
	PaymentStatusFailed  PaymentStatus = "Gagal"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusExpired,
	PaymentStatusFailed,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (p PaymentStatus) IsTerminal() bool {
	switch p {
	case PaymentStatusPaid, PaymentStatusExpired, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

// ParsePaymentStatus converts raw wire input into a PaymentStatus.
// Matching is case-insensitive and tolerant of surrounding whitespace.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	normalized := strings.TrimSpace(value)
	for _, candidate := range validPaymentStatuses {
		if strings.EqualFold(string(candidate), normalized) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
