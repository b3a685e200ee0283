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

// ManagerParams configure the watcher manager.
type ManagerParams struct {
	Logger   *logger.Logger
	Statuses statusClient
	Metrics  *metrics.PaymentPollMetrics
	Interval time.Duration
}

// Manager runs at most one status watcher per invoice. Watchers outlive the
// request that started them; a finished watcher stays registered so its
// terminal status remains readable.
type Manager struct {
	logg     *logger.Logger
	statuses statusClient
	metrics  *metrics.PaymentPollMetrics
	interval time.Duration

	mu       sync.Mutex
	watchers map[string]*watcherHandle
	closed   bool
}

type watcherHandle struct {
	watcher *Watcher
	cancel  context.CancelFunc
}

// NewManager builds the watcher manager.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Statuses == nil {
		return nil, fmt.Errorf("status client required")
	}
	if params.Interval <= 0 {
		params.Interval = 10 * time.Second
	}
	return &Manager{
		logg:     params.Logger,
		statuses: params.Statuses,
		metrics:  params.Metrics,
		interval: params.Interval,
		watchers: make(map[string]*watcherHandle),
	}, nil
}

// Watch starts polling the invoice, or returns the watcher already running
// for it. Starting is idempotent per invoice code.
func (m *Manager) Watch(invoiceCode string) (*Watcher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("watcher manager is closed")
	}
	if handle, ok := m.watchers[invoiceCode]; ok {
		return handle.watcher, nil
	}

	watcher, err := NewWatcher(WatcherParams{
		Logger:      m.logg,
		Statuses:    m.statuses,
		Metrics:     m.metrics,
		InvoiceCode: invoiceCode,
		Interval:    m.interval,
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.watchers[invoiceCode] = &watcherHandle{watcher: watcher, cancel: cancel}
	go func() {
		defer cancel()
		_ = watcher.Run(ctx)
	}()
	return watcher, nil
}

// Get returns the watcher for an invoice, if any.
func (m *Manager) Get(invoiceCode string) (*Watcher, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	handle, ok := m.watchers[invoiceCode]
	if !ok {
		return nil, false
	}
	return handle.watcher, true
}

// Stop cancels and forgets the invoice's watcher.
func (m *Manager) Stop(invoiceCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if handle, ok := m.watchers[invoiceCode]; ok {
		handle.cancel()
		delete(m.watchers, invoiceCode)
	}
}

// Close cancels every watcher. Subsequent Watch calls fail.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for code, handle := range m.watchers {
		handle.cancel()
		delete(m.watchers, code)
	}
}

// StatusFor reports the watched status for an invoice, defaulting to pending
// when no watcher exists yet.
func (m *Manager) StatusFor(invoiceCode string) (enums.PaymentStatus, bool) {
	watcher, ok := m.Get(invoiceCode)
	if !ok {
		return enums.PaymentStatusPending, false
	}
	return watcher.Status(), true
}
