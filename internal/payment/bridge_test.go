package payment

import (
	"context"
	"testing"

	"github.com/lokapasar/checkout/pkg/commerce"
	"github.com/lokapasar/checkout/pkg/config"
	pkgerrors "github.com/lokapasar/checkout/pkg/errors"
)

type fakeGateway struct {
	session *commerce.SnapSession
	err     error
	calls   int
}

func (f *fakeGateway) ProcessPayment(context.Context, string) (*commerce.SnapSession, error) {
	f.calls++
	return f.session, f.err
}

type recordingWatcher struct {
	markPaid int
	nudges   int
}

func (r *recordingWatcher) MarkPaidLocally() { r.markPaid++ }
func (r *recordingWatcher) Nudge()           { r.nudges++ }

func newTestBridge(t *testing.T, gateway *fakeGateway) *Bridge {
	t.Helper()
	bridge, err := NewBridge(BridgeParams{
		Logger:  testLogger(),
		Gateway: gateway,
		Payment: config.PaymentConfig{
			SnapScriptURL: "https://app.sandbox.midtrans.com/snap/snap.js",
			SnapClientKey: "SB-client-key",
		},
	})
	if err != nil {
		t.Fatalf("new bridge: %v", err)
	}
	return bridge
}

func TestBridgeBeginReturnsSnapSession(t *testing.T) {
	t.Parallel()
	gateway := &fakeGateway{session: &commerce.SnapSession{Token: "snap-token", RedirectURL: "https://pay.example/redir"}}
	bridge := newTestBridge(t, gateway)

	session, err := bridge.Begin(context.Background(), "INV-1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if session.Token != "snap-token" {
		t.Fatalf("unexpected token %q", session.Token)
	}
	if gateway.calls != 1 {
		t.Fatalf("expected a single gateway request, got %d", gateway.calls)
	}
}

func TestBridgeBeginSurfacesGatewayFailure(t *testing.T) {
	t.Parallel()
	gateway := &fakeGateway{err: pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "no token")}
	bridge := newTestBridge(t, gateway)

	_, err := bridge.Begin(context.Background(), "INV-1")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeGatewayUnavailable {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}
	if gateway.calls != 1 {
		t.Fatalf("the token request must not be retried, got %d calls", gateway.calls)
	}
}

func TestBridgeBeginRequiresInvoice(t *testing.T) {
	t.Parallel()
	bridge := newTestBridge(t, &fakeGateway{})
	if _, err := bridge.Begin(context.Background(), ""); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBridgeSnapConfig(t *testing.T) {
	t.Parallel()
	bridge := newTestBridge(t, &fakeGateway{})
	cfg := bridge.SnapConfig()
	if cfg.ScriptURL == "" || cfg.ClientKey != "SB-client-key" {
		t.Fatalf("unexpected snap config %+v", cfg)
	}
}

func TestHandleWidgetOutcome(t *testing.T) {
	t.Parallel()
	bridge := newTestBridge(t, &fakeGateway{})

	cases := []struct {
		outcome  WidgetOutcome
		markPaid int
	}{
		{WidgetSuccess, 1},
		{WidgetPending, 0},
		{WidgetError, 0},
		{WidgetClosed, 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.outcome), func(t *testing.T) {
			t.Parallel()
			watcher := &recordingWatcher{}
			if err := bridge.HandleWidgetOutcome(context.Background(), "INV-1", tc.outcome, watcher); err != nil {
				t.Fatalf("handle outcome: %v", err)
			}
			if watcher.markPaid != tc.markPaid {
				t.Fatalf("markPaid = %d, want %d", watcher.markPaid, tc.markPaid)
			}
			if watcher.nudges != 1 {
				t.Fatalf("every outcome must request a reconciliation, got %d nudges", watcher.nudges)
			}
		})
	}

	if err := bridge.HandleWidgetOutcome(context.Background(), "INV-1", WidgetOutcome("bogus"), &recordingWatcher{}); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown outcome, got %v", err)
	}
	if err := bridge.HandleWidgetOutcome(context.Background(), "INV-1", WidgetSuccess, nil); err == nil {
		t.Fatal("expected error for missing watcher")
	}
}
