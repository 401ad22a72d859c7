package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type claimRequest struct {
	OrderID string `json:"order_id"`
	Serial  string `json:"serial"`
}

type amountRequest struct {
	Serial string `json:"serial"`
	Amount int64  `json:"amount"`
}

type completeRequest struct {
	Serial string `json:"serial"`
	Prompt string `json:"prompt"`
}

// decode reads a JSON body under the size cap.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body")
		return false
	}
	return true
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decode(w, r, &req) {
		return
	}
	if req.OrderID == "" || req.Serial == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "order_id and serial are required")
		return
	}
	res, err := s.engine.Claim(r.Context(), req.OrderID, req.Serial)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleConsume(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Serial == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "serial is required")
		return
	}
	res, err := s.engine.Consume(r.Context(), req.Serial, req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Serial == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "serial is required")
		return
	}
	res, err := s.engine.AddTokens(r.Context(), req.Serial, req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	serial := mux.Vars(r)["serial"]
	res, err := s.engine.Validate(r.Context(), serial)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

// handleComplete proxies a prompt to the LLM upstream and settles the token
// cost against the serial's balance. The deduction is clamped to the
// remaining balance: the completion already happened, so the ledger records
// what it can rather than failing the response.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	if s.completer == nil {
		writeError(w, http.StatusServiceUnavailable, "NO_UPSTREAM", "completion upstream not configured")
		return
	}
	var req completeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Serial == "" || req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "serial and prompt are required")
		return
	}

	entitled, err := s.engine.Validate(r.Context(), req.Serial)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !entitled.Valid {
		writeError(w, http.StatusPaymentRequired, "NOT_ENTITLED", "serial is not entitled")
		return
	}

	completion, err := s.completer.Complete(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, http.StatusBadGateway, "UPSTREAM_FAILED", err.Error())
		return
	}

	cost := completion.TokensUsed
	if cost > entitled.TokensRemaining {
		cost = entitled.TokensRemaining
	}
	settled, err := s.engine.Consume(r.Context(), req.Serial, cost)
	if err != nil {
		// The completion was delivered but the deduction did not land;
		// surface the inconsistency instead of reporting success.
		s.log.Error("completion delivered but not settled",
			zap.String("serial", req.Serial), zap.Int64("cost", cost), zap.Error(err))
		writeEngineError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"text":        completion.Text,
		"tokens_used": cost,
		"new_balance": settled.NewBalance,
	})
}
