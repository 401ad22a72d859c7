// Serve command: runs the HTTP server until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dukaforge/sheetledger/internal/ledger"
	"github.com/dukaforge/sheetledger/internal/llm"
	"github.com/dukaforge/sheetledger/internal/server"
	"github.com/dukaforge/sheetledger/internal/sheets"
	"github.com/dukaforge/sheetledger/internal/sqlite"
	"github.com/dukaforge/sheetledger/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg := loadedConfig
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "serve:", err)
			os.Exit(exitUserError)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg, log)
		if err != nil {
			fmt.Fprintln(os.Stderr, "serve:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		engine := ledger.NewEngine(store, cfg, log)

		var completer server.Completer
		if cfg.LLM.URL != "" {
			completer = llm.New(cfg.LLM, log)
		}

		srv := server.New(engine, completer, cfg, log)
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, "serve:", err)
			os.Exit(exitSysError)
		}
		log.Info("server stopped")
		return nil
	},
}

// newLogger builds the process logger. LEDGERD_DEBUG enables development
// output.
func newLogger() (*zap.Logger, error) {
	if os.Getenv("LEDGERD_DEBUG") != "" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStore builds the configured store backend. The sqlite data directory
// follows the flag > config > env > CWD-default precedence.
func openStore(ctx context.Context, cfg types.Config, log *zap.Logger) (types.Store, error) {
	switch cfg.Backend {
	case types.BackendSheets:
		return sheets.New(ctx, cfg, log)
	case types.BackendSQLite:
		dataDir, err := resolveDataDir()
		if err != nil {
			return nil, err
		}
		return sqlite.Open(dataDir, log)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Backend)
	}
}
