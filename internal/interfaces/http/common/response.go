package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/chystahata/site/api/internal/account"
	"github.com/chystahata/site/api/internal/content/application"
	"go.uber.org/zap"
)

// ErrEmptyBody is returned by DecodeJSON when the request carries no body.
var ErrEmptyBody = errors.New("request body is empty")

// Envelope is the body shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Warn("json encode failed", zap.Error(err))
	}
}

// WriteData writes a success envelope.
func WriteData(logger *zap.Logger, w http.ResponseWriter, status int, data any) {
	WriteJSON(logger, w, status, Envelope{Success: true, Data: data})
}

// WriteError writes a failure envelope.
func WriteError(logger *zap.Logger, w http.ResponseWriter, status int, message string) {
	WriteJSON(logger, w, status, Envelope{Success: false, Error: message})
}

// WriteServiceError maps service errors onto HTTP statuses. Unknown errors are logged and
// reported as 500 without detail.
func WriteServiceError(logger *zap.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrValidation):
		WriteError(logger, w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), application.ErrValidation.Error()+": "))
	case errors.Is(err, application.ErrNotFound):
		WriteError(logger, w, http.StatusNotFound, "not found")
	case errors.Is(err, account.ErrInvalidPassword):
		WriteError(logger, w, http.StatusUnauthorized, "invalid password")
	case errors.Is(err, account.ErrInvalidSession):
		WriteError(logger, w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, account.ErrInvalidResetKey):
		WriteError(logger, w, http.StatusUnauthorized, "invalid reset key")
	case errors.Is(err, account.ErrWeakPassword), errors.Is(err, account.ErrPasswordTooLong),
		errors.Is(err, account.ErrSamePassword):
		WriteError(logger, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrResetDisabled):
		WriteError(logger, w, http.StatusForbidden, err.Error())
	default:
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		WriteError(logger, w, http.StatusInternalServerError, "internal server error")
	}
}

// DecodeJSON reads at most limit bytes of JSON into dst. Unknown fields are ignored.
func DecodeJSON(r *http.Request, dst any, limit int64) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, limit))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON: %v", err)
	}
	return nil
}
