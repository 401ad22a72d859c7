package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dukaforge/sheetledger/pkg/types"
)

// envelope is the uniform response shape. Soft not-found outcomes are
// delivered with ok=false and HTTP 200: the request succeeded, the entity
// is absent.
type envelope struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{OK: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, envelope{OK: false, Code: code, Error: msg})
}

// writeEngineError maps the engine's error taxonomy onto HTTP.
//
// Not-found outcomes are 200s with ok=false; policy violations carry the
// status a rejected business rule deserves; configuration and store
// failures are upstream faults (502); a partial update is a genuine server
// error whose message names the sub-write that landed, so operators can
// reconcile manually.
func writeEngineError(w http.ResponseWriter, err error) {
	var insufficient *types.InsufficientTokensError
	var partial *types.PartialUpdateError

	switch {
	case errors.Is(err, types.ErrOrderNotFound):
		writeError(w, http.StatusOK, "ORDER_NOT_FOUND", err.Error())
	case errors.Is(err, types.ErrSerialNotFound):
		writeError(w, http.StatusOK, "SERIAL_NOT_FOUND", err.Error())
	case errors.Is(err, types.ErrRecordNotFound):
		writeError(w, http.StatusOK, "RECORD_NOT_FOUND", err.Error())
	case errors.Is(err, types.ErrAlreadyActivated):
		writeError(w, http.StatusConflict, "ALREADY_ACTIVATED", err.Error())
	case errors.Is(err, types.ErrAlreadyTerminated):
		writeError(w, http.StatusConflict, "ALREADY_TERMINATED", err.Error())
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusPaymentRequired, envelope{
			OK:    false,
			Code:  "INSUFFICIENT_TOKENS",
			Error: insufficient.Error(),
			Data: map[string]int64{
				"balance":   insufficient.Balance,
				"requested": insufficient.Requested,
			},
		})
	case errors.Is(err, types.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.As(err, &partial):
		writeError(w, http.StatusInternalServerError, "PARTIAL_UPDATE", partial.Error())
	case errors.Is(err, types.ErrSchemaMissing), errors.Is(err, types.ErrStoreUnavailable):
		writeError(w, http.StatusBadGateway, "STORE_ERROR", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}
