package enums

import "testing"

func TestParsePaymentStatus(t *testing.T) {
	t.Parallel()
	cases := map[string]PaymentStatus{
		"Menunggu":    PaymentStatusPending,
		"menunggu":    PaymentStatusPending,
		" Dibayar ":   PaymentStatusPaid,
		"KEDALUWARSA": PaymentStatusExpired,
		"Gagal":       PaymentStatusFailed,
	}
	for raw, want := range cases {
		got, err := ParsePaymentStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %s want %s", raw, got, want)
		}
	}

	if _, err := ParsePaymentStatus("Sukses"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestPaymentStatusIsTerminal(t *testing.T) {
	t.Parallel()
	if PaymentStatusPending.IsTerminal() {
		t.Fatal("pending is not terminal")
	}
	for _, status := range []PaymentStatus{PaymentStatusPaid, PaymentStatusExpired, PaymentStatusFailed} {
		if !status.IsTerminal() {
			t.Fatalf("%s must be terminal", status)
		}
	}
}

func TestParsePaymentMethod(t *testing.T) {
	t.Parallel()
	method, err := ParsePaymentMethod("payment_gateway")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if method != PaymentMethodGateway {
		t.Fatalf("unexpected method %s", method)
	}
	if _, err := ParsePaymentMethod("cash"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}
