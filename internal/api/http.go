package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/liquidstaking/staking-ledger/internal/observability/tracing"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/rs/zerolog/log"
)

const jsonContentType = "application/json; charset=utf-8"

// maxBodyBytes bounds request bodies, every request of this api is a small object
const maxBodyBytes = 1 << 16

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// HandlerFunc is an http.HandlerFunc that reports failures as *types.Error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) *types.Error

// WrapHandlerFunc converts a HandlerFunc into an http.HandlerFunc. The request
// context carries a logger with a fresh trace id.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := tracing.InjectTraceID(r.Context())
		r = r.WithContext(ctx)

		err := f(w, r)
		if err == nil {
			return
		}

		logEvent := log.Ctx(ctx).Warn()
		if err.StatusCode >= http.StatusInternalServerError {
			logEvent = log.Ctx(ctx).Error()
		}
		logEvent.Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("error_code", err.ErrorCode.String()).
			Msg("request failed")

		writeJSON(w, err.StatusCode, ErrorResponse{
			ErrorCode: err.ErrorCode.String(),
			Message:   err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// parseJSON decodes the request body in strict mode
func parseJSON(r *http.Request, v any) *types.Error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return types.NewValidationFailedError(errors.New("request body is required"))
		}
		return types.NewValidationFailedError(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}
