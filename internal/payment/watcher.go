package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lokapasar/checkout/pkg/enums"
	"github.com/lokapasar/checkout/pkg/logger"
	"github.com/lokapasar/checkout/pkg/metrics"
)

type statusClient interface {
	GetPaymentStatus(ctx context.Context, code string) (enums.PaymentStatus, error)
}

// WatcherParams configure a payment status watcher for one invoice.
type WatcherParams struct {
	Logger      *logger.Logger
	Statuses    statusClient
	Metrics     *metrics.PaymentPollMetrics
	InvoiceCode string
	Interval    time.Duration

	// OnTerminal fires exactly once, with the first terminal status the
	// server reports. Optional.
	OnTerminal func(status enums.PaymentStatus)
}

// Watcher polls the upstream payment status for a single invoice at a fixed
// interval until a terminal status arrives. Transient failures are logged and
// the next tick tries again; a watcher never gives up on errors alone.
type Watcher struct {
	logg     *logger.Logger
	statuses statusClient
	metrics  *metrics.PaymentPollMetrics
	code     string
	interval time.Duration
	onDone   func(enums.PaymentStatus)

	nudge chan struct{}

	mu          sync.Mutex
	current     enums.PaymentStatus
	provisional bool
	finished    bool
}

// NewWatcher builds a watcher starting from the pending status.
func NewWatcher(params WatcherParams) (*Watcher, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Statuses == nil {
		return nil, fmt.Errorf("status client required")
	}
	if params.InvoiceCode == "" {
		return nil, fmt.Errorf("invoice code required")
	}
	if params.Interval <= 0 {
		params.Interval = 10 * time.Second
	}
	return &Watcher{
		logg:     params.Logger,
		statuses: params.Statuses,
		metrics:  params.Metrics,
		code:     params.InvoiceCode,
		interval: params.Interval,
		onDone:   params.OnTerminal,
		nudge:    make(chan struct{}, 1),
		current:  enums.PaymentStatusPending,
	}, nil
}

// Status returns the watcher's current view of the payment.
func (w *Watcher) Status() enums.PaymentStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Finished reports whether a terminal status has been recorded.
func (w *Watcher) Finished() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finished
}

// Nudge requests an immediate status check outside the regular interval,
// typically after a gateway widget callback. Safe to call at any time; extra
// nudges while one is pending are coalesced.
func (w *Watcher) Nudge() {
	select {
	case w.nudge <- struct{}{}:
	default:
	}
}

// MarkPaidLocally records a provisional paid status from a widget success
// callback. The display flips immediately; the server remains the source of
// truth, so only a terminal status from a later check can replace it.
func (w *Watcher) MarkPaidLocally() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return
	}
	w.current = enums.PaymentStatusPaid
	w.provisional = true
}

// Run polls until a terminal status is observed or the context is cancelled.
// It performs one check immediately on start.
func (w *Watcher) Run(ctx context.Context) error {
	if done := w.check(ctx); done {
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.nudge:
		case <-ticker.C:
		}
		if done := w.check(ctx); done {
			return nil
		}
	}
}

func (w *Watcher) check(ctx context.Context) bool {
	started := time.Now()
	status, err := w.statuses.GetPaymentStatus(ctx, w.code)
	if err != nil {
		w.metrics.ObserveCheck("error", time.Since(started))
		w.logg.Warn(w.logg.WithInvoiceCode(ctx, w.code), "payment status check failed, will retry on next tick")
		return false
	}
	w.metrics.ObserveCheck(status.String(), time.Since(started))

	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return true
	}
	if status.IsTerminal() {
		w.current = status
		w.provisional = false
		w.finished = true
		w.mu.Unlock()
		w.metrics.IncTerminal(status.String())
		w.logg.Info(w.logg.WithInvoiceCode(ctx, w.code), "payment reached terminal status "+status.String())
		if w.onDone != nil {
			w.onDone(status)
		}
		return true
	}
	// A non-terminal server answer must not demote a provisional paid view.
	if !w.provisional {
		w.current = status
	}
	w.mu.Unlock()
	return false
}
