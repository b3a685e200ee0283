package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are whole rupiah; the currency has no sub-unit in practice.

// FormatIDR renders an amount as an Indonesian rupiah display string,
// e.g. 1250000 -> "Rp1.250.000".
func FormatIDR(amount int64) string {
	d := decimal.NewFromInt(amount)
	negative := d.IsNegative()
	digits := d.Abs().StringFixed(0)

	var b strings.Builder
	if negative {
		b.WriteString("-")
	}
	b.WriteString("Rp")

	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteString(".")
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteString(".")
		}
	}
	return b.String()
}
