package types

import (
	"strconv"
	"strings"
)

// Flag cell encoding. The store keeps booleans as the literal "TRUE";
// anything else, including an absent cell, decodes to false.
const (
	FlagTrue  = "TRUE"
	FlagFalse = "FALSE"
)

// LicenseRecord is the resolved view of one order row: the cells the
// ledger cares about plus the row position and schema needed to write
// changes back without re-resolving.
type LicenseRecord struct {
	// OrderID is the external order reference, as stored (possibly with a
	// leading '#'). Compare via NormalizeOrderID.
	OrderID string

	// SerialID is the device/account identifier. Exact-match only.
	SerialID string

	// TokenBalance is the prepaid usage balance. Non-negative in steady
	// state; a non-numeric cell decodes to 0.
	TokenBalance int64

	// Activated reports whether the order's one-time claim has happened.
	Activated bool

	// Terminated reports the sticky terminal state. Once true the record
	// accepts no further activation, consumption, or credit.
	Terminated bool

	// Row is the 1-based store row, used for targeted writes. The header
	// occupies row 1, so records always sit at Row >= 2.
	Row int

	// Schema holds the column indices resolved from the header this record
	// was read under.
	Schema Schema
}

// State names derived from the two flags.
const (
	StateUnclaimed  = "unclaimed"
	StateActive     = "active"
	StateTerminated = "terminated"
)

// State returns the record's position in the activation lifecycle.
// Termination wins regardless of the activated flag.
func (r *LicenseRecord) State() string {
	switch {
	case r.Terminated:
		return StateTerminated
	case r.Activated:
		return StateActive
	default:
		return StateUnclaimed
	}
}

// NormalizeOrderID strips surrounding whitespace and a single leading '#'.
// Order identifiers appear in the store both with and without the prefix,
// so both the query and the candidate must go through this before
// comparison.
func NormalizeOrderID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), "#")
}

// ParseFlag decodes a flag cell. Only the exact literal "TRUE" is true.
func ParseFlag(cell string) bool {
	return cell == FlagTrue
}

// FormatFlag encodes a flag for a cell write.
func FormatFlag(v bool) string {
	if v {
		return FlagTrue
	}
	return FlagFalse
}

// ParseBalance decodes a token balance cell. Absent or non-numeric cells
// decode to 0.
func ParseBalance(cell string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// FormatBalance encodes a token balance for a cell write.
func FormatBalance(n int64) string {
	return strconv.FormatInt(n, 10)
}
