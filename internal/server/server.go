// Package server exposes the ledger engine over HTTP: JSON endpoints for
// claim, consume, validate, and credit, plus the completion proxy. The
// layer is a thin wrapper; every invariant lives in the engine.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dukaforge/sheetledger/internal/ledger"
	"github.com/dukaforge/sheetledger/internal/llm"
	"github.com/dukaforge/sheetledger/pkg/types"
)

// maxBodyBytes caps request bodies. The payloads here are a few short
// identifiers or one prompt; 1 MiB is generous.
const maxBodyBytes = 1 << 20

// Completer is the outbound completion proxy the /v1/complete endpoint
// forwards to.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*llm.Completion, error)
}

// Server wires the engine and the completion proxy into an http.Server.
type Server struct {
	engine    *ledger.Engine
	completer Completer
	cfg       types.Config
	log       *zap.Logger
	httpSrv   *http.Server
}

// New builds a Server. completer may be nil when no upstream is configured;
// the complete endpoint then reports 503.
func New(engine *ledger.Engine, completer Completer, cfg types.Config, log *zap.Logger) *Server {
	s := &Server{
		engine:    engine,
		completer: completer,
		cfg:       cfg,
		log:       log,
	}
	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the route table with the middleware chain applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc("/claim", s.handleClaim).Methods(http.MethodPost)
	api.HandleFunc("/consume", s.handleConsume).Methods(http.MethodPost)
	api.HandleFunc("/credit", s.handleCredit).Methods(http.MethodPost)
	api.HandleFunc("/validate/{serial}", s.handleValidate).Methods(http.MethodGet)
	api.HandleFunc("/complete", s.handleComplete).Methods(http.MethodPost)

	var h http.Handler = r
	h = s.corsMiddleware(h)
	h = s.requestLogMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()
	s.log.Info("listening", zap.String("addr", s.cfg.ListenAddr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
