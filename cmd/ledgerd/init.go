// Init command: creates the config directory, a default config.yaml, and
// for the sqlite backend an empty ledger grid with the standard header.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dukaforge/sheetledger/internal/sqlite"
	"github.com/dukaforge/sheetledger/pkg/types"
)

// defaultHeader seeds a fresh local grid. The sheets backend never gets
// seeded; its header is owned by whoever maintains the spreadsheet.
var defaultHeader = []string{"Serial", "ClientOrder", "Token", "Activated", "Terminated"}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize ledgerd configuration and local storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}
		if err := ensureConfigDir(configDir); err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}
		if err := ensureDefaultConfigFile(configDir); err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}

		dataDir, err := resolveDataDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}

		if loadedConfig.Backend == types.BackendSQLite {
			if err := seedLocalStore(cmd.Context(), dataDir); err != nil {
				fmt.Fprintln(os.Stderr, "init:", err)
				os.Exit(exitSysError)
			}
		}

		fmt.Println("ledgerd initialized successfully")
		fmt.Println("  config:", configDir)
		fmt.Println("  data:  ", dataDir)
		return nil
	},
}

// seedLocalStore creates the local grid and writes the header row when the
// grid is empty. An already populated grid is left untouched.
func seedLocalStore(ctx context.Context, dataDir string) error {
	store, err := sqlite.Open(dataDir, zap.NewNop())
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.ReadRows(ctx)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	return store.Seed(ctx, [][]string{defaultHeader})
}
