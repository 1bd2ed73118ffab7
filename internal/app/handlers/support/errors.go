package support

import (
	"errors"

	"locadz/internal/app/apperr"
	"locadz/internal/app/uow"
	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	domainlistings "locadz/internal/domain/listings"
	domainnotifications "locadz/internal/domain/notifications"
	domainpayments "locadz/internal/domain/payments"
	domainpayouts "locadz/internal/domain/payouts"
	domainpricing "locadz/internal/domain/pricing"
	domainrange "locadz/internal/domain/shared/daterange"
	"locadz/internal/domain/shared/money"
)

var notFound = []error{
	domainbooking.ErrBookingNotFound,
	domainlistings.ErrListingNotFound,
	domainpayments.ErrProofNotFound,
	domainnotifications.ErrNotificationNotFound,
}

var conflicts = []error{
	domainbooking.ErrInvalidState,
	domainpayments.ErrAlreadyReviewed,
	domainavailability.ErrOverlappingRange,
	uow.ErrConcurrentUpdate,
}

var invalid = []error{
	domainrange.ErrInvalidRange,
	domainbooking.ErrInvalidGuests,
	domainbooking.ErrGuestRequired,
	domainbooking.ErrCheckInInPast,
	domainbooking.ErrInvalidPaymentMethod,
	domainbooking.ErrInvalidStatus,
	domainlistings.ErrNotBookable,
	domainlistings.ErrOwnListing,
	domainlistings.ErrGuestsLimit,
	domainpayments.ErrInvalidAmount,
	domainpayments.ErrEvidenceRequired,
	domainpayments.ErrMethodNeedsNoProof,
	domainpayments.ErrInvalidStatus,
	domainpayouts.ErrInvalidAmount,
	domainpayouts.ErrInvalidMethod,
	domainpayouts.ErrInvalidStatus,
	domainpayouts.ErrHostRequired,
	domainpricing.ErrInvalidNightlyRate,
	money.ErrCurrencyMismatch,
	money.ErrInvalidCurrency,
}

// Classify tags domain sentinels with an apperr kind. Already classified and
// unknown errors pass through unchanged.
func Classify(err error) error {
	if err == nil || apperr.KindOf(err) != "" {
		return err
	}
	switch {
	case matchesAny(err, notFound):
		return apperr.NotFound(err)
	case matchesAny(err, conflicts):
		return apperr.Conflict(err)
	case matchesAny(err, invalid):
		return apperr.Validation(err)
	}
	return err
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
