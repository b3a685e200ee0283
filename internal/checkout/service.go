package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/checkout/pkg/commerce"
	"github.com/lokapasar/checkout/pkg/enums"
	pkgerrors "github.com/lokapasar/checkout/pkg/errors"
	"github.com/lokapasar/checkout/pkg/logger"
)

type quoteClient interface {
	CalculateShipping(ctx context.Context, req commerce.ShippingQuoteRequest) ([]commerce.ShippingOption, error)
}

type checkoutSubmitter interface {
	SubmitMultiCheckout(ctx context.Context, purchaseCode string, req commerce.MultiCheckoutRequest) (string, error)
}

type addressLister interface {
	ListAddresses(ctx context.Context) ([]commerce.Address, error)
}

// ServiceParams configure the checkout orchestrator.
type ServiceParams struct {
	Logger      *logger.Logger
	Store       SessionStore
	Quotes      quoteClient
	Submitter   checkoutSubmitter
	Addresses   addressLister
	AdminFeeIDR int64
}

// Service owns the checkout session state machine. All group mutation goes
// through its intent-based operations; callers only ever see snapshots.
type Service struct {
	logg      *logger.Logger
	store     SessionStore
	quotes    quoteClient
	submitter checkoutSubmitter
	addresses addressLister
	adminFee  int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if params.Quotes == nil {
		return nil, fmt.Errorf("quote client required")
	}
	if params.Submitter == nil {
		return nil, fmt.Errorf("checkout submitter required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address lister required")
	}
	if params.AdminFeeIDR < 0 {
		return nil, fmt.Errorf("admin fee must not be negative")
	}
	return &Service{
		logg:      params.Logger,
		store:     params.Store,
		quotes:    params.Quotes,
		submitter: params.Submitter,
		addresses: params.Addresses,
		adminFee:  params.AdminFeeIDR,
		locks:     make(map[string]*sync.Mutex),
	}, nil
}

// CreateSession builds the per-seller groups for a purchase draft and seeds
// each group's destination from the buyer's primary address. An address
// listing failure leaves the groups unseeded rather than failing the
// session; the buyer can still pick an address explicitly.
func (s *Service) CreateSession(ctx context.Context, purchaseCode string, items []LineItem) (*Session, error) {
	if purchaseCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase code is required")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}

	now := time.Now().UTC()
	session := &Session{
		ID:           uuid.NewString(),
		PurchaseCode: purchaseCode,
		AdminFeeIDR:  s.adminFee,
		Groups:       BuildStoreGroups(items),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if addresses, err := s.addresses.ListAddresses(ctx); err != nil {
		s.logg.Warn(s.logg.WithSessionID(ctx, session.ID), "address seeding skipped: listing failed")
	} else if seed := defaultAddressID(addresses); seed != "" {
		for _, group := range session.Groups {
			group.AddressID = seed
		}
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithSessionID(ctx, session.ID), "checkout session created")
	return session.Clone(), nil
}

// GetSession returns a snapshot of the session.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	return s.store.Find(ctx, sessionID)
}

// SelectAddress sets a group's destination. Any previous quote for the
// group is invalidated: options are discarded and a new quote must be
// requested. A quote already in flight will be discarded on arrival.
func (s *Service) SelectAddress(ctx context.Context, sessionID, sellerID, addressID string) (*Session, error) {
	if addressID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	return s.mutateGroup(ctx, sessionID, sellerID, func(group *StoreGroup) error {
		if group.AddressID == addressID {
			return nil
		}
		group.AddressID = addressID
		group.QuoteEpoch++
		group.QuoteInFlight = false
		group.Options = nil
		group.SelectedService = ""
		group.ShippingCostIDR = 0
		group.QuoteError = ""
		return nil
	})
}

// SelectShipping picks one of the already-fetched options. No new request
// is made; only the selection and its cost change.
func (s *Service) SelectShipping(ctx context.Context, sessionID, sellerID, label string) (*Session, error) {
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping label is required")
	}
	return s.mutateGroup(ctx, sessionID, sellerID, func(group *StoreGroup) error {
		for _, option := range group.Options {
			if option.Label() == label {
				group.SelectedService = label
				group.ShippingCostIDR = option.CostIDR
				return nil
			}
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping option not available for this group").
			WithDetails(map[string]string{"seller_id": sellerID, "label": label})
	})
}

// SetNotes updates the free-text notes for a group.
func (s *Service) SetNotes(ctx context.Context, sessionID, sellerID, notes string) (*Session, error) {
	return s.mutateGroup(ctx, sessionID, sellerID, func(group *StoreGroup) error {
		group.Notes = notes
		return nil
	})
}

// RequestQuote fetches shipping options for one group. The group is marked
// busy for the duration; a second concurrent request is rejected. A result
// arriving after the group's address changed is discarded.
func (s *Service) RequestQuote(ctx context.Context, sessionID, sellerID string) (*Session, error) {
	lock := s.sessionLock(sessionID)

	lock.Lock()
	session, err := s.store.Find(ctx, sessionID)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	group := session.Group(sellerID)
	if group == nil {
		lock.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store group not found")
	}
	if group.QuoteInFlight {
		lock.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a shipping quote is already in flight for this group")
	}
	if group.AddressID == "" {
		lock.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select a destination address before requesting a quote")
	}

	capturedEpoch := group.QuoteEpoch
	capturedAddress := group.AddressID
	req := commerce.ShippingQuoteRequest{
		SellerID:  sellerID,
		AddressID: capturedAddress,
		Items:     quoteItems(group.Items),
	}
	group.QuoteInFlight = true
	group.QuoteError = ""
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, session); err != nil {
		lock.Unlock()
		return nil, err
	}
	lock.Unlock()

	// Network call happens without the session lock held.
	options, quoteErr := s.quotes.CalculateShipping(ctx, req)

	lock.Lock()
	defer lock.Unlock()
	session, err = s.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	group = session.Group(sellerID)
	if group == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store group not found")
	}
	if group.QuoteEpoch != capturedEpoch || group.AddressID != capturedAddress {
		// The address changed while the quote was in flight; the result no
		// longer matches the group's context and must not be applied.
		s.logg.Warn(s.logg.WithSellerID(s.logg.WithSessionID(ctx, sessionID), sellerID),
			"discarding stale shipping quote result")
		return session.Clone(), nil
	}

	group.QuoteInFlight = false
	if quoteErr != nil {
		group.Options = nil
		group.SelectedService = ""
		group.ShippingCostIDR = 0
		group.QuoteError = pkgerrors.MetadataFor(pkgerrors.CodeOf(quoteErr)).PublicMessage
		session.UpdatedAt = time.Now().UTC()
		if saveErr := s.store.Save(ctx, session); saveErr != nil {
			return nil, saveErr
		}
		return session.Clone(), quoteErr
	}

	group.Options = options
	group.SelectedService = options[0].Label()
	group.ShippingCostIDR = options[0].CostIDR
	group.QuoteError = ""
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

// Submit packages every group and submits the multi-seller checkout
// atomically. On failure the session is left untouched and can be
// resubmitted; on success the invoice code is recorded and returned.
func (s *Service) Submit(ctx context.Context, sessionID string, method enums.PaymentMethod) (string, *Session, error) {
	if !method.IsValid() {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.Find(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}
	if session.InvoiceCode != "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already submitted").
			WithDetails(map[string]string{"invoice_code": session.InvoiceCode})
	}
	if err := validateReady(session); err != nil {
		return "", nil, err
	}

	stores := make([]commerce.StoreCheckout, 0, len(session.Groups))
	for _, group := range session.Groups {
		option, ok := group.SelectedOption()
		if !ok {
			return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "selected shipping option no longer available").
				WithDetails(map[string]string{"seller_id": group.SellerID})
		}
		stores = append(stores, commerce.StoreCheckout{
			SellerID:      group.SellerID,
			AddressID:     group.AddressID,
			ShippingLabel: option.Label(),
			ShippingCost:  option.CostIDR,
			Notes:         group.Notes,
		})
	}

	invoiceCode, err := s.submitter.SubmitMultiCheckout(ctx, session.PurchaseCode, commerce.MultiCheckoutRequest{
		Stores:        stores,
		PaymentMethod: method,
	})
	if err != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "checkout submission failed", err)
		return "", nil, err
	}

	session.InvoiceCode = invoiceCode
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, session); err != nil {
		return "", nil, err
	}
	s.logg.Info(s.logg.WithInvoiceCode(s.logg.WithSessionID(ctx, sessionID), invoiceCode), "checkout submitted")
	return invoiceCode, session.Clone(), nil
}

// Teardown removes the session once the buyer navigates away or completes.
func (s *Service) Teardown(ctx context.Context, sessionID string) error {
	err := s.store.Delete(ctx, sessionID)
	s.mu.Lock()
	delete(s.locks, sessionID)
	s.mu.Unlock()
	return err
}

func (s *Service) mutateGroup(ctx context.Context, sessionID, sellerID string, fn func(group *StoreGroup) error) (*Session, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	group := session.Group(sellerID)
	if group == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store group not found")
	}
	if err := fn(group); err != nil {
		return nil, err
	}
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

func (s *Service) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

func defaultAddressID(addresses []commerce.Address) string {
	for _, address := range addresses {
		if address.IsPrimary {
			return address.ID
		}
	}
	if len(addresses) > 0 {
		return addresses[0].ID
	}
	return ""
}

func quoteItems(items []LineItem) []commerce.QuoteItem {
	out := make([]commerce.QuoteItem, len(items))
	for i, item := range items {
		out[i] = commerce.QuoteItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return out
}
