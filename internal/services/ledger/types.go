package ledger

import (
	"errors"
	"fmt"

	"github.com/fundwire/ledgerd/internal/repos/transfers"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInsufficientFunds   = errors.New("insufficient balance")
	ErrReceiverNotFound    = errors.New("receiver not found")
	ErrSelfTransfer        = errors.New("cannot transfer to self")
	ErrTransientContention = errors.New("transient contention")
)

// Reason returns the caller-facing description for a transfer failure.
// The same string goes into the audit log after the "FAILED: " prefix.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return "Insufficient balance"
	case errors.Is(err, ErrReceiverNotFound):
		return "Receiver not found"
	case errors.Is(err, ErrSelfTransfer):
		return "Cannot transfer to self"
	case errors.Is(err, ErrTransientContention):
		return "Transfer failed, please retry"
	default:
		return "Invalid request"
	}
}

// Result is the consistent post-state of a committed transfer.
type Result struct {
	Transfer        transfers.Transfer
	SenderBalance   int64
	ReceiverBalance int64
}

// ParseAmount converts a decimal string with at most two fractional digits
// into minor units.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed amount", ErrInvalidRequest)
	}

	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: amount supports at most 2 decimal places", ErrInvalidRequest)
	}

	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: amount out of range", ErrInvalidRequest)
	}

	return minor.IntPart(), nil
}

// FormatAmount renders minor units as a fixed two-decimal string.
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
