// Validate command: reports whether a serial is entitled.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukaforge/sheetledger/internal/ledger"
)

var validateCmd = &cobra.Command{
	Use:   "validate <serial>",
	Short: "Check whether a serial is entitled and report its balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, eng *ledger.Engine) error {
			res, err := eng.Validate(ctx, args[0])
			if err != nil {
				return err
			}
			plain := fmt.Sprintf("invalid (balance %d)", res.TokensRemaining)
			if res.Valid {
				plain = fmt.Sprintf("valid (balance %d)", res.TokensRemaining)
			} else if res.Terminated {
				plain = fmt.Sprintf("terminated (balance %d)", res.TokensRemaining)
			}
			return printResult(res, plain)
		})
	},
}
