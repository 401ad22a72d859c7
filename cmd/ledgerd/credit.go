// Credit command: adds tokens to a serial, creating its row if needed.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukaforge/sheetledger/internal/ledger"
)

var creditCmd = &cobra.Command{
	Use:   "credit <serial> <amount>",
	Short: "Credit tokens to a serial, appending a new row for an unseen one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		return withEngine(func(ctx context.Context, eng *ledger.Engine) error {
			res, err := eng.AddTokens(ctx, args[0], amount)
			if err != nil {
				return err
			}
			plain := fmt.Sprintf("credited %d tokens (balance %d)", amount, res.NewBalance)
			if res.Created {
				plain += " [new row]"
			}
			return printResult(res, plain)
		})
	},
}
