package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/lokapasar/checkout/pkg/config"
	"github.com/lokapasar/checkout/pkg/enums"
	pkgerrors "github.com/lokapasar/checkout/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(config.CommerceConfig{
		BaseURL:        "http://commerce.test/api",
		RequestTimeout: time.Second,
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
	}, nil, WithHTTPClient(&http.Client{Transport: rt}), WithBearerToken("buyer-token"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestCalculateShippingSortsByCost(t *testing.T) {
	t.Parallel()
	var capturedURL string
	var capturedAuth string
	var capturedBody map[string]any

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedAuth = req.Header.Get("Authorization")
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(raw, &capturedBody); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"shipping_options":[
			{"courier_code":"jne","service":"YES","display_name":"JNE Yakin Esok Sampai","cost":22000,"etd":"1 hari"},
			{"courier_code":"jne","service":"REG","display_name":"JNE Reguler","cost":9000,"etd":"2-3 hari"},
			{"courier_code":"sicepat","service":"BEST","display_name":"SiCepat BEST","cost":15000,"etd":"1-2 hari"}
		]}`), nil
	})

	client := newTestClient(t, rt)
	options, err := client.CalculateShipping(context.Background(), ShippingQuoteRequest{
		SellerID:  "seller-1",
		AddressID: "addr-1",
		Items:     []QuoteItem{{ProductID: "prod-1", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("calculate shipping: %v", err)
	}
	if capturedURL != "http://commerce.test/api/shipping/calculate" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedAuth != "Bearer buyer-token" {
		t.Fatalf("unexpected auth header %q", capturedAuth)
	}
	if capturedBody["seller_id"] != "seller-1" {
		t.Fatalf("unexpected request body %v", capturedBody)
	}
	if len(options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(options))
	}
	if options[0].CostIDR != 9000 || options[1].CostIDR != 15000 || options[2].CostIDR != 22000 {
		t.Fatalf("options not sorted ascending: %+v", options)
	}
	if options[0].Label() != "jne-REG" {
		t.Fatalf("unexpected label %q", options[0].Label())
	}
}

func TestCalculateShippingEmptyOptionsIsTypedError(t *testing.T) {
	t.Parallel()
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"shipping_options":[]}`), nil
	})
	client := newTestClient(t, rt)
	_, err := client.CalculateShipping(context.Background(), ShippingQuoteRequest{
		SellerID:  "seller-1",
		AddressID: "addr-1",
		Items:     []QuoteItem{{ProductID: "prod-1", Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected error for empty options")
	}
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected code %s", pkgerrors.CodeOf(err))
	}
}

func TestCalculateShippingValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()
	calls := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	client := newTestClient(t, rt)

	if _, err := client.CalculateShipping(context.Background(), ShippingQuoteRequest{
		AddressID: "addr-1",
		Items:     []QuoteItem{{ProductID: "p", Quantity: 1}},
	}); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing seller, got %v", err)
	}
	if _, err := client.CalculateShipping(context.Background(), ShippingQuoteRequest{
		SellerID:  "seller-1",
		AddressID: "addr-1",
	}); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty items, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no network calls, got %d", calls)
	}
}

func TestCalculateShippingRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	calls := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, fmt.Errorf("connection reset")
		}
		return jsonResponse(http.StatusOK, `{"shipping_options":[{"courier_code":"jne","service":"REG","display_name":"JNE Reguler","cost":9000,"etd":"2-3 hari"}]}`), nil
	})
	client := newTestClient(t, rt)
	options, err := client.CalculateShipping(context.Background(), ShippingQuoteRequest{
		SellerID:  "seller-1",
		AddressID: "addr-1",
		Items:     []QuoteItem{{ProductID: "p", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(options) != 1 {
		t.Fatalf("unexpected options %+v", options)
	}
}

func TestSubmitMultiCheckoutNeverRetries(t *testing.T) {
	t.Parallel()
	calls := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusInternalServerError, `{"error":"boom"}`), nil
	})
	client := newTestClient(t, rt)
	_, err := client.SubmitMultiCheckout(context.Background(), "PUR-1", MultiCheckoutRequest{
		Stores:        []StoreCheckout{{SellerID: "s1", AddressID: "a1", ShippingLabel: "jne-REG", ShippingCost: 9000}},
		PaymentMethod: enums.PaymentMethodGateway,
	})
	if err == nil {
		t.Fatal("expected submission failure")
	}
	if calls != 1 {
		t.Fatalf("submission must be single-shot, got %d calls", calls)
	}
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("unexpected code %s", pkgerrors.CodeOf(err))
	}
}

func TestSubmitMultiCheckoutReturnsInvoiceCode(t *testing.T) {
	t.Parallel()
	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return jsonResponse(http.StatusOK, `{"invoice_code":"INV-42"}`), nil
	})
	client := newTestClient(t, rt)
	code, err := client.SubmitMultiCheckout(context.Background(), "PUR-1", MultiCheckoutRequest{
		Stores:        []StoreCheckout{{SellerID: "s1", AddressID: "a1", ShippingLabel: "jne-REG", ShippingCost: 9000}},
		PaymentMethod: enums.PaymentMethodGateway,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if code != "INV-42" {
		t.Fatalf("unexpected invoice code %q", code)
	}
	if capturedURL != "http://commerce.test/api/purchases/PUR-1/multi-checkout" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
}

func TestGetPaymentStatusParsesWireValue(t *testing.T) {
	t.Parallel()
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/payments/INV-42/status" {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"status_pembayaran":"Menunggu"}`), nil
	})
	client := newTestClient(t, rt)
	status, err := client.GetPaymentStatus(context.Background(), "INV-42")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if status != enums.PaymentStatusPending {
		t.Fatalf("unexpected status %s", status)
	}
}

func TestGetPaymentStatusRejectsUnknownValue(t *testing.T) {
	t.Parallel()
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"status_pembayaran":"Sukses Besar"}`), nil
	})
	client := newTestClient(t, rt)
	if _, err := client.GetPaymentStatus(context.Background(), "INV-42"); err == nil {
		t.Fatal("expected error for unknown wire status")
	}
}

func TestProcessPaymentGatewayUnavailable(t *testing.T) {
	t.Parallel()
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"snap_token":"","redirect_url":""}`), nil
	})
	client := newTestClient(t, rt)
	_, err := client.ProcessPayment(context.Background(), "INV-42")
	if err == nil {
		t.Fatal("expected gateway unavailable error")
	}
	if pkgerrors.CodeOf(err) != pkgerrors.CodeGatewayUnavailable {
		t.Fatalf("unexpected code %s", pkgerrors.CodeOf(err))
	}
}

func TestProcessPaymentReturnsSnapSession(t *testing.T) {
	t.Parallel()
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"snap_token":"tok-123","redirect_url":"https://gateway.test/pay"}`), nil
	})
	client := newTestClient(t, rt)
	session, err := client.ProcessPayment(context.Background(), "INV-42")
	if err != nil {
		t.Fatalf("process payment: %v", err)
	}
	if session.Token != "tok-123" || session.RedirectURL != "https://gateway.test/pay" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestListAddressesAndContextToken(t *testing.T) {
	t.Parallel()
	var capturedAuth string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedAuth = req.Header.Get("Authorization")
		return jsonResponse(http.StatusOK, `[
			{"id":"addr-2","recipient_name":"Siti","is_primary":false,"province":"Jawa Barat"},
			{"id":"addr-1","recipient_name":"Budi","is_primary":true,"province":"DKI Jakarta"}
		]`), nil
	})
	client := newTestClient(t, rt)
	ctx := ContextWithToken(context.Background(), "per-request-token")
	addresses, err := client.ListAddresses(ctx)
	if err != nil {
		t.Fatalf("list addresses: %v", err)
	}
	if capturedAuth != "Bearer per-request-token" {
		t.Fatalf("context token must win, got %q", capturedAuth)
	}
	if len(addresses) != 2 || addresses[1].RecipientName != "Budi" {
		t.Fatalf("unexpected addresses %+v", addresses)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	t.Parallel()
	cases := map[int]pkgerrors.Code{
		http.StatusBadRequest:          pkgerrors.CodeValidation,
		http.StatusUnauthorized:        pkgerrors.CodeUnauthorized,
		http.StatusNotFound:            pkgerrors.CodeNotFound,
		http.StatusConflict:            pkgerrors.CodeStateConflict,
		http.StatusUnprocessableEntity: pkgerrors.CodeStateConflict,
		http.StatusTeapot:              pkgerrors.CodeValidation,
		http.StatusBadGateway:          pkgerrors.CodeDependency,
	}
	for status, want := range cases {
		if got := codeForStatus(status); got != want {
			t.Fatalf("codeForStatus(%d) = %s, want %s", status, got, want)
		}
	}
}
