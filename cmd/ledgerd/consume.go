// Consume command: deducts tokens from a serial's balance.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukaforge/sheetledger/internal/ledger"
)

var consumeCmd = &cobra.Command{
	Use:   "consume <serial> <amount>",
	Short: "Deduct tokens from a serial's balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		return withEngine(func(ctx context.Context, eng *ledger.Engine) error {
			res, err := eng.Consume(ctx, args[0], amount)
			if err != nil {
				return err
			}
			plain := fmt.Sprintf("consumed %d tokens (balance %d)", amount, res.NewBalance)
			if res.WasTerminated {
				plain += " [terminated]"
			}
			return printResult(res, plain)
		})
	},
}
