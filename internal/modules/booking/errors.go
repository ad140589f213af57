package booking

import (
	"errors"

	"boozstudio/internal/modules/ledger"
)

var (
	ErrMalformedSelection       = errors.New("malformed selection")
	ErrAccountNotFound          = ledger.ErrAccountNotFound
	ErrSessionNotFound          = errors.New("session not found")
	ErrReservationNotFound      = errors.New("reservation not found")
	ErrSessionStarted           = errors.New("session already started")
	ErrAlreadyBooked            = errors.New("account already booked at this time")
	ErrSlotAlreadyTaken         = errors.New("slot already taken")
	ErrClassFull                = errors.New("class is full")
	ErrInvalidSpot              = errors.New("invalid bed number")
	ErrInsufficientBalance      = ledger.ErrInsufficientBalance
	ErrNoActivePlan             = errors.New("no active plan covers this class")
	ErrNotSampleSlot            = errors.New("sample price only applies to the sample class")
	ErrCancellationWindowClosed = errors.New("cancellation window closed")
	ErrAlreadyCancelled         = errors.New("reservation already cancelled")
	ErrPackageInUse             = errors.New("package already used for credit bookings")
	ErrTransactionFailed        = errors.New("transaction failed")
)

// known lists the errors surfaced to callers as they are; anything else becomes ErrTransactionFailed.
var known = []error{
	ErrMalformedSelection,
	ErrAccountNotFound,
	ErrSessionNotFound,
	ErrReservationNotFound,
	ErrSessionStarted,
	ErrAlreadyBooked,
	ErrSlotAlreadyTaken,
	ErrClassFull,
	ErrInvalidSpot,
	ErrInsufficientBalance,
	ErrNoActivePlan,
	ErrNotSampleSlot,
	ErrCancellationWindowClosed,
	ErrAlreadyCancelled,
	ErrPackageInUse,
}

func isKnown(err error) bool {
	for _, k := range known {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
