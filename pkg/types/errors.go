package types

import (
	"errors"
	"fmt"
)

// Configuration errors: the store cannot be reached or lacks mandatory
// columns. Hard failures, never retried by the engine.
var (
	ErrSchemaMissing    = errors.New("mandatory column not found in header row")
	ErrStoreUnavailable = errors.New("tabular store unavailable")
)

// Not-found outcomes. These are normal results, not server faults; the
// HTTP layer maps them to "request succeeded, entity absent" responses.
var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrSerialNotFound = errors.New("serial not found")
	ErrRecordNotFound = errors.New("no order row carries this serial")
)

// Policy violations: expected business-rule rejections.
var (
	ErrAlreadyActivated   = errors.New("order is already activated")
	ErrAlreadyTerminated  = errors.New("order is terminated")
	ErrInsufficientTokens = errors.New("insufficient token balance")
	ErrInvalidAmount      = errors.New("amount must be a positive integer")
)

// InsufficientTokensError reports a rejected consumption together with the
// state the caller needs to explain the rejection.
type InsufficientTokensError struct {
	Balance   int64
	Requested int64
}

func (e *InsufficientTokensError) Error() string {
	return fmt.Sprintf("insufficient token balance: have %d, requested %d", e.Balance, e.Requested)
}

func (e *InsufficientTokensError) Unwrap() error { return ErrInsufficientTokens }

// PartialUpdateError reports a multi-cell update whose second write failed
// after the first succeeded. The record is in a partially-applied state and
// needs manual reconciliation; reporting success here would corrupt the
// state machine's guarantees.
type PartialUpdateError struct {
	// Op is the engine operation that was interrupted ("claim", "consume").
	Op string
	// Applied names the sub-write that did succeed.
	Applied string
	// Err is the store error that stopped the second write.
	Err error
}

func (e *PartialUpdateError) Error() string {
	return fmt.Sprintf("partial %s update: %s written, remaining write failed: %v", e.Op, e.Applied, e.Err)
}

func (e *PartialUpdateError) Unwrap() error { return e.Err }
