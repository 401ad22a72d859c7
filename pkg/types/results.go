package types

// ClaimResult reports a successful one-time activation.
type ClaimResult struct {
	GrantedTokens   int64 `json:"granted_tokens"`
	NewBalance      int64 `json:"new_balance"`
	PreviousBalance int64 `json:"previous_balance"`
}

// ConsumeResult reports a successful token deduction.
type ConsumeResult struct {
	NewBalance      int64 `json:"new_balance"`
	PreviousBalance int64 `json:"previous_balance"`
	// WasTerminated is true only when this consumption drove the balance to
	// exhaustion and wrote the terminated flag. Re-exhausting an already
	// terminated record reports false.
	WasTerminated bool `json:"was_terminated"`
}

// ValidateResult reports whether a serial is currently entitled. A
// terminated record is never valid, regardless of residual balance.
type ValidateResult struct {
	Valid           bool  `json:"valid"`
	TokensRemaining int64 `json:"tokens_remaining"`
	Terminated      bool  `json:"terminated"`
}

// CreditResult reports a token grant via the legacy add-tokens path.
type CreditResult struct {
	NewBalance      int64 `json:"new_balance"`
	PreviousBalance int64 `json:"previous_balance"`
	// Created is true when the serial had never been seen and a brand-new
	// trailing row was appended for it.
	Created bool `json:"created"`
}
