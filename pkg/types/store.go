package types

import "context"

// Store is the tabular store boundary: read every row as strings, overwrite
// a single cell, or append a trailing row. Every call is one round trip to
// the backing store and carries the caller's context; implementations apply
// an explicit timeout and surface transport failures wrapped around
// ErrStoreUnavailable.
//
// The store offers no transactions and no conditional writes. A logical
// state change touching two cells is committed as two independent writes;
// the engine reports a PartialUpdateError when the second fails.
type Store interface {
	// ReadRows returns all rows in store order, header first. Slice index i
	// corresponds to store row i+1. Rows may be ragged; absent trailing
	// cells are simply missing from the row.
	ReadRows(ctx context.Context) ([][]string, error)

	// WriteCell overwrites a single cell. row is 1-based (the header is
	// row 1), col is zero-based.
	WriteCell(ctx context.Context, row, col int, value string) error

	// AppendRow adds a row after the last occupied row.
	AppendRow(ctx context.Context, values []string) error

	// Close releases backend resources. Idempotent.
	Close() error
}
