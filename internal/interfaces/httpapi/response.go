package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vitalabs/competition-engine/internal/platform/logging"
	"github.com/vitalabs/competition-engine/internal/usecase"
)

// decodeJSON decodes a request body into dst, capped at 1MiB to bound
// malicious/oversized payloads before validation runs.
func decodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, 1<<20)
	return sonic.ConfigDefault.NewDecoder(body).Decode(dst)
}

// envelope is every response's wire shape: {success, data?, message?}.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type mappedError struct {
	HTTPStatus    int
	Reason        string
	PublicMessage string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	_, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	_, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, envelope{Success: true, Data: data})
}

// writeMessage is writeSuccess for responses with nothing but a
// confirmation message (e.g. "duplicate workout ignored").
func writeMessage(ctx context.Context, w http.ResponseWriter, status int, message string) {
	_, span := startSpan(ctx, "httpapi.writeMessage")
	defer span.End()

	writeJSON(ctx, w, status, envelope{Success: true, Message: message})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(err)
	internalMessage := err.Error()
	if internalMessage == "" {
		internalMessage = http.StatusText(mapped.HTTPStatus)
	}

	logging.Default().ErrorContext(ctx, "api error response",
		"event", "api_error",
		"error_reason", mapped.Reason,
		"http_status", mapped.HTTPStatus,
		"user_message", mapped.PublicMessage,
		"internal_message", internalMessage,
	)

	span.RecordError(err)
	span.SetStatus(codes.Error, mapped.Reason)
	span.SetAttributes(
		attribute.Int("error.http_status", mapped.HTTPStatus),
		attribute.String("error.reason", mapped.Reason),
		attribute.String("error.public_message", mapped.PublicMessage),
	)

	writeJSON(ctx, w, mapped.HTTPStatus, envelope{Success: false, Message: mapped.PublicMessage})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	_, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	writeJSON(ctx, w, http.StatusInternalServerError, envelope{Success: false, Message: "internal server error"})
}

// mapError maps usecase sentinel errors to HTTP status codes: 400
// validation, 401 auth, 403 forbidden, 404 not found, 409 conflict, 429
// rate limited, 503 dependency unavailable (transient), 500
// internal/fatal.
func mapError(err error) mappedError {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return mappedError{HTTPStatus: http.StatusBadRequest, Reason: "invalid_input", PublicMessage: "invalid request"}
	case errors.Is(err, usecase.ErrNotFound):
		return mappedError{HTTPStatus: http.StatusNotFound, Reason: "not_found", PublicMessage: "resource not found"}
	case errors.Is(err, usecase.ErrUnauthorized):
		return mappedError{HTTPStatus: http.StatusUnauthorized, Reason: "unauthorized", PublicMessage: "unauthorized"}
	case errors.Is(err, usecase.ErrForbidden):
		return mappedError{HTTPStatus: http.StatusForbidden, Reason: "forbidden", PublicMessage: "forbidden"}
	case errors.Is(err, usecase.ErrConflict):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "conflict", PublicMessage: "conflict"}
	case errors.Is(err, usecase.ErrRateLimited):
		return mappedError{HTTPStatus: http.StatusTooManyRequests, Reason: "rate_limited", PublicMessage: "rate limit exceeded"}
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return mappedError{HTTPStatus: http.StatusServiceUnavailable, Reason: "dependency_unavailable", PublicMessage: "dependency unavailable"}
	default:
		return mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internal_error", PublicMessage: "internal server error"}
	}
}
