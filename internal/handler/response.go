package handler

// RESPONSE HELPERS:
// Every endpoint answers with the same envelope:
//
//	{"result": "...", "message": "...", "data": {...}}
//
// result is a coarse Success/Failed tag, message is human-readable, and data
// carries the payload on success. Failures omit data entirely.
//
// CASING QUIRK:
// The success tag is "Success" on registration but lowercase "success" on
// login. Consumers were built against those exact bytes, so the handlers pass
// the tag explicitly rather than this file normalizing it.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/account-service/internal/apperror"
)

const (
	resultFailed = "Failed"
)

// envelope is the JSON shape shared by all responses.
type envelope struct {
	Result  string `json:"result"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
//
// Order matters: headers, then WriteHeader, then the body. Encode calls
// w.Write internally, which flushes the headers — changes after that are
// silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone out — all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeSuccess sends a success envelope. The result tag is a parameter
// because the two success paths spell it differently (see top of file).
func writeSuccess(w http.ResponseWriter, status int, result, message string, data any) {
	writeJSON(w, status, envelope{Result: result, Message: message, Data: data})
}

// writeError maps a domain error to the right status and failure envelope.
//
// The service layer returns apperror values wrapped with %w; errors.Is walks
// the chain to classify them and errors.As recovers the client-facing
// message. Anything unclassified is a collaborator failure → generic 500,
// with the detail logged server-side only. The raw error text can contain
// SQL, file paths, or endpoint URLs — never echo it.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		}

		writeJSON(w, status, envelope{Result: resultFailed, Message: appErr.Message})
		return
	}

	logger.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, envelope{
		Result:  resultFailed,
		Message: "Internal Server Error",
	})
}
