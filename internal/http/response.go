package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"viaggi/internal/core"
	applog "viaggi/internal/log"
)

var (
	errBadRequest  = errors.New("malformed request")
	errRateLimited = errors.New("rate limit exceeded")
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
}

// classify maps an engine error to a status code and an error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, applog.ErrorTypeValidation
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrRateNotFound):
		return http.StatusUnprocessableEntity, applog.ErrorTypeValidation
	case errors.Is(err, core.ErrTripNotFound),
		errors.Is(err, core.ErrExpenseNotFound),
		errors.Is(err, core.ErrCategoryNotFound),
		errors.Is(err, core.ErrTemplateNotFound):
		return http.StatusNotFound, applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrProtectedEntity),
		errors.Is(err, core.ErrDuplicateCategory),
		errors.Is(err, core.ErrMissingFallbackCategory),
		errors.Is(err, core.ErrMainCurrency),
		errors.Is(err, core.ErrCurrencyInUse):
		return http.StatusConflict, applog.ErrorTypeConflict
	case errors.Is(err, core.ErrNotLoaded):
		return http.StatusServiceUnavailable, applog.ErrorTypeUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, applog.ErrorTypeValidation
	case errors.Is(err, core.ErrRemoteFetchFailed), errors.Is(err, core.ErrRemotePersistFailed):
		return http.StatusBadGateway, applog.ErrorTypeNetwork
	default:
		return http.StatusInternalServerError, applog.ErrorTypeInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, typ := classify(err)
	body := errorBody{Error: err.Error(), Type: typ}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	if status >= 500 {
		// internal details stay in the log
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.NewFields().WithError(err).WithErrorType(typ).ToSlice()...)
		if status == http.StatusInternalServerError {
			body.Error = http.StatusText(status)
		}
	}
	writeJSON(w, status, body)
}
