package checkout

import (
	"fmt"

	"go.uber.org/multierr"

	pkgerrors "github.com/lokapasar/checkout/pkg/errors"
)

// validateReady collects every condition blocking submission so the buyer
// sees all of them at once rather than one per attempt.
func validateReady(session *Session) error {
	if session == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "session is required")
	}
	if len(session.Groups) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "session has no store groups")
	}

	var errs error
	for _, group := range session.Groups {
		if group.AddressID == "" {
			errs = multierr.Append(errs, fmt.Errorf("seller %s: no destination address selected", group.SellerID))
		}
		if group.QuoteInFlight {
			errs = multierr.Append(errs, fmt.Errorf("seller %s: shipping quote still in flight", group.SellerID))
			continue
		}
		if group.SelectedService == "" {
			errs = multierr.Append(errs, fmt.Errorf("seller %s: no shipping option selected", group.SellerID))
			continue
		}
		if _, ok := group.SelectedOption(); !ok {
			errs = multierr.Append(errs, fmt.Errorf("seller %s: selected shipping option no longer available", group.SellerID))
		}
	}
	if errs == nil {
		return nil
	}

	details := make([]string, 0)
	for _, err := range multierr.Errors(errs) {
		details = append(details, err.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "checkout is not ready for submission").
		WithDetails(details)
}
