// Claim command: one-time activation of an order.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukaforge/sheetledger/internal/ledger"
)

var claimCmd = &cobra.Command{
	Use:   "claim <order-id> <serial>",
	Short: "Activate an order and grant its serial the configured token amount",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, eng *ledger.Engine) error {
			res, err := eng.Claim(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printResult(res, fmt.Sprintf("claimed: granted %d tokens (balance %d)",
				res.GrantedTokens, res.NewBalance))
		})
	},
}
