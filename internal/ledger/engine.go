package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dukaforge/sheetledger/pkg/types"
)

// Engine executes the license state machine against a Store. It is safe for
// concurrent use; mutating operations on the same serial are serialized
// within the process by a keyed mutex. The store itself offers no
// transactions, so two-cell updates are two independent writes and a
// failure between them surfaces as a PartialUpdateError.
type Engine struct {
	store types.Store
	grant int64
	log   *zap.Logger
	locks *keyedMutex
}

// NewEngine creates an Engine over the given store. The grant amount comes
// from cfg; the logger must not be nil (use zap.NewNop for silence).
func NewEngine(store types.Store, cfg types.Config, log *zap.Logger) *Engine {
	return &Engine{
		store: store,
		grant: cfg.GrantAmount,
		log:   log,
		locks: newKeyedMutex(),
	}
}

// Claim executes the one-time activation of an order: it grants the fixed
// token amount to the serial tied to the order and marks the order
// activated.
//
// The grant overwrites any existing balance rather than adding to it, and
// it targets the row carrying the serial among the order rows themselves;
// when no row carries the serial the engine reports ErrRecordNotFound
// rather than fabricating state. The balance is written before the
// activated flag so a concurrent reader never observes an activated order
// with a stale balance.
func (e *Engine) Claim(ctx context.Context, orderID, serialID string) (*types.ClaimResult, error) {
	unlock := e.locks.Lock(serialID)
	defer unlock()

	rows, sch, err := e.loadTable(ctx)
	if err != nil {
		return nil, err
	}
	if !sch.HasOrder() {
		return nil, fmt.Errorf("claim: %w: order column", types.ErrSchemaMissing)
	}
	if !sch.HasSerial() {
		return nil, fmt.Errorf("claim: %w: serial column", types.ErrSchemaMissing)
	}

	order, ok := e.findByOrder(rows, sch, orderID)
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	if order.Terminated {
		// Terminated orders are never reactivated, regardless of the
		// activated flag.
		return nil, types.ErrAlreadyTerminated
	}
	if order.Activated {
		return nil, types.ErrAlreadyActivated
	}

	target, ok := e.findBySerial(rows, sch, serialID)
	if !ok {
		return nil, types.ErrRecordNotFound
	}

	previous := target.TokenBalance
	if sch.HasToken() {
		if err := e.store.WriteCell(ctx, target.Row, sch.Token, types.FormatBalance(e.grant)); err != nil {
			return nil, fmt.Errorf("claim: writing balance: %w", err)
		}
	}
	if sch.HasActivated() {
		if err := e.store.WriteCell(ctx, order.Row, sch.Activated, types.FlagTrue); err != nil {
			return nil, &types.PartialUpdateError{Op: "claim", Applied: "token balance", Err: err}
		}
	}

	e.log.Info("order claimed",
		zap.String("order", types.NormalizeOrderID(orderID)),
		zap.String("serial", serialID),
		zap.Int64("granted", e.grant),
		zap.Int64("previous_balance", previous))

	return &types.ClaimResult{
		GrantedTokens:   e.grant,
		NewBalance:      e.grant,
		PreviousBalance: previous,
	}, nil
}

// Consume deducts amount tokens from the serial's balance. Sufficiency is
// checked against the pre-deduction balance, so the balance can land
// exactly on 0 but a consume is never allowed to overdraw it. When the new
// balance reaches or crosses 0 and a terminated column is resolvable, the
// record is terminated; re-exhausting an already terminated record writes
// nothing and reports WasTerminated=false.
func (e *Engine) Consume(ctx context.Context, serialID string, amount int64) (*types.ConsumeResult, error) {
	if amount <= 0 {
		return nil, types.ErrInvalidAmount
	}

	unlock := e.locks.Lock(serialID)
	defer unlock()

	rows, sch, err := e.loadTable(ctx)
	if err != nil {
		return nil, err
	}
	if !sch.HasSerial() {
		return nil, fmt.Errorf("consume: %w: serial column", types.ErrSchemaMissing)
	}
	if !sch.HasToken() {
		// Without a token column there is no balance cell to deduct from.
		return nil, fmt.Errorf("consume: %w: token column", types.ErrSchemaMissing)
	}

	rec, ok := e.findBySerial(rows, sch, serialID)
	if !ok {
		return nil, types.ErrSerialNotFound
	}
	// Insufficiency is checked first: a drained-and-terminated serial
	// reports InsufficientTokens, matching what its caller saw on the
	// consume that drained it. A terminated record that still shows a
	// coverable balance is rejected outright; termination is terminal for
	// consumption.
	if rec.TokenBalance < amount {
		return nil, &types.InsufficientTokensError{Balance: rec.TokenBalance, Requested: amount}
	}
	if rec.Terminated {
		return nil, types.ErrAlreadyTerminated
	}

	newBalance := rec.TokenBalance - amount
	if err := e.store.WriteCell(ctx, rec.Row, sch.Token, types.FormatBalance(newBalance)); err != nil {
		return nil, fmt.Errorf("consume: writing balance: %w", err)
	}

	wasTerminated := false
	if newBalance <= 0 && sch.HasTerminated() {
		if err := e.store.WriteCell(ctx, rec.Row, sch.Terminated, types.FlagTrue); err != nil {
			return nil, &types.PartialUpdateError{Op: "consume", Applied: "token balance", Err: err}
		}
		wasTerminated = true
		e.log.Info("serial terminated on exhaustion", zap.String("serial", serialID))
	}

	return &types.ConsumeResult{
		NewBalance:      newBalance,
		PreviousBalance: rec.TokenBalance,
		WasTerminated:   wasTerminated,
	}, nil
}

// Validate reports whether a serial is currently entitled. An unknown
// serial is a soft outcome, not an error. A non-terminated record with a
// zero balance is invalid, and a terminated record is invalid even with a
// residual positive balance: termination is sticky and wins.
func (e *Engine) Validate(ctx context.Context, serialID string) (*types.ValidateResult, error) {
	rows, sch, err := e.loadTable(ctx)
	if err != nil {
		return nil, err
	}
	if !sch.HasSerial() {
		return nil, fmt.Errorf("validate: %w: serial column", types.ErrSchemaMissing)
	}

	rec, ok := e.findBySerial(rows, sch, serialID)
	if !ok {
		return &types.ValidateResult{Valid: false, TokensRemaining: 0}, nil
	}
	return &types.ValidateResult{
		Valid:           !rec.Terminated && rec.TokenBalance > 0,
		TokensRemaining: rec.TokenBalance,
		Terminated:      rec.Terminated,
	}, nil
}

// AddTokens credits amount tokens to a serial. This is the legacy grant
// path: a serial that has never been seen gets a brand-new trailing row
// carrying the serial and the amount. Terminated records are not credited.
func (e *Engine) AddTokens(ctx context.Context, serialID string, amount int64) (*types.CreditResult, error) {
	if amount <= 0 {
		return nil, types.ErrInvalidAmount
	}

	unlock := e.locks.Lock(serialID)
	defer unlock()

	rows, sch, err := e.loadTable(ctx)
	if err != nil {
		return nil, err
	}
	if !sch.HasSerial() {
		return nil, fmt.Errorf("credit: %w: serial column", types.ErrSchemaMissing)
	}
	if !sch.HasToken() {
		return nil, fmt.Errorf("credit: %w: token column", types.ErrSchemaMissing)
	}

	rec, ok := e.findBySerial(rows, sch, serialID)
	if !ok {
		row := newRowFor(sch, serialID, amount)
		if err := e.store.AppendRow(ctx, row); err != nil {
			return nil, fmt.Errorf("credit: appending row: %w", err)
		}
		e.log.Info("serial first seen, row appended",
			zap.String("serial", serialID), zap.Int64("amount", amount))
		return &types.CreditResult{NewBalance: amount, PreviousBalance: 0, Created: true}, nil
	}
	if rec.Terminated {
		return nil, types.ErrAlreadyTerminated
	}

	newBalance := rec.TokenBalance + amount
	if err := e.store.WriteCell(ctx, rec.Row, sch.Token, types.FormatBalance(newBalance)); err != nil {
		return nil, fmt.Errorf("credit: writing balance: %w", err)
	}
	return &types.CreditResult{
		NewBalance:      newBalance,
		PreviousBalance: rec.TokenBalance,
	}, nil
}

// newRowFor builds a trailing row placing the serial and balance in their
// resolved columns. Cells in columns the schema does not bind stay empty.
func newRowFor(sch types.Schema, serialID string, amount int64) []string {
	width := sch.Serial
	if sch.Token > width {
		width = sch.Token
	}
	row := make([]string, width+1)
	row[sch.Serial] = serialID
	row[sch.Token] = types.FormatBalance(amount)
	return row
}
