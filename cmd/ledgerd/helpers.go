// Shared helpers for the one-shot administrative commands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/dukaforge/sheetledger/internal/ledger"
)

// withEngine opens the configured store, runs fn against an engine over it,
// and closes the store. One-shot commands log quietly unless LEDGERD_DEBUG
// is set.
func withEngine(fn func(ctx context.Context, eng *ledger.Engine) error) error {
	log := zap.NewNop()
	if os.Getenv("LEDGERD_DEBUG") != "" {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	cfg := loadedConfig
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitSysError)
	}
	defer store.Close()

	return fn(ctx, ledger.NewEngine(store, cfg, log))
}

// printResult renders a command result, honoring the --json flag.
func printResult(result any, plain string) error {
	if flagJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Println(plain)
	return nil
}

// parseAmount parses a positive token amount argument.
func parseAmount(arg string) (int64, error) {
	amount, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", arg)
	}
	return amount, nil
}
