// Package ledger implements the license ledger engine: schema resolution,
// record location, and the claim / consume / validate state machine over a
// tabular store.
package ledger

import (
	"context"
	"fmt"

	"github.com/dukaforge/sheetledger/pkg/types"
)

// loadTable fetches every row once and resolves the header schema once.
// The row slice and schema are reused for all lookups within one operation
// so each operation costs a single read round trip.
func (e *Engine) loadTable(ctx context.Context) ([][]string, types.Schema, error) {
	rows, err := e.store.ReadRows(ctx)
	if err != nil {
		return nil, types.Schema{}, fmt.Errorf("loading table: %w", err)
	}
	if len(rows) == 0 {
		return nil, types.Schema{}, fmt.Errorf("loading table: %w: store has no header row", types.ErrSchemaMissing)
	}
	return rows, types.ResolveSchema(rows[0]), nil
}

// cellAt returns the cell value, tolerating ragged rows and unresolved
// columns.
func cellAt(row []string, col int) string {
	if col == types.ColumnNotFound || col >= len(row) {
		return ""
	}
	return row[col]
}

// recordAt builds the resolved view of the data row at slice index i.
// A record read from a sheet without a token column reports the configured
// grant amount as its balance: the sheet owner has not opted into metering.
func (e *Engine) recordAt(rows [][]string, sch types.Schema, i int) *types.LicenseRecord {
	row := rows[i]
	balance := e.grant
	if sch.HasToken() {
		balance = types.ParseBalance(cellAt(row, sch.Token))
	}
	return &types.LicenseRecord{
		OrderID:      cellAt(row, sch.Order),
		SerialID:     cellAt(row, sch.Serial),
		TokenBalance: balance,
		Activated:    types.ParseFlag(cellAt(row, sch.Activated)),
		Terminated:   types.ParseFlag(cellAt(row, sch.Terminated)),
		Row:          i + 1,
		Schema:       sch,
	}
}

// findByOrder scans data rows in store order for the first row whose order
// cell matches orderID after '#'-normalization on both sides. Not-found is
// a normal outcome, reported via ok.
func (e *Engine) findByOrder(rows [][]string, sch types.Schema, orderID string) (rec *types.LicenseRecord, ok bool) {
	want := types.NormalizeOrderID(orderID)
	for i := 1; i < len(rows); i++ {
		if types.NormalizeOrderID(cellAt(rows[i], sch.Order)) == want {
			return e.recordAt(rows, sch, i), true
		}
	}
	return nil, false
}

// findBySerial scans data rows in store order for the first row whose
// serial cell equals serialID exactly. No normalization.
func (e *Engine) findBySerial(rows [][]string, sch types.Schema, serialID string) (rec *types.LicenseRecord, ok bool) {
	for i := 1; i < len(rows); i++ {
		if cellAt(rows[i], sch.Serial) == serialID {
			return e.recordAt(rows, sch, i), true
		}
	}
	return nil, false
}
