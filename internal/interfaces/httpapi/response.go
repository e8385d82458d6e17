package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
	"github.com/riskibarqy/armory-onboarding/internal/usecase"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// responseEnvelope is the {status, message, data} body the storefront client reads.
type responseEnvelope struct {
	Status  string     `json:"status"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeSuccessMessage(ctx, w, status, "", data)
}

func writeSuccessMessage(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, responseEnvelope{
		Status:  statusSuccess,
		Message: message,
		Data:    data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	if mapped.HTTPStatus == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(ctx, w, mapped.HTTPStatus, responseEnvelope{
		Status:  statusError,
		Message: err.Error(),
		Error:   &errorBody{Code: mapped.HTTPStatus, Reason: mapped.Reason},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	writeJSON(ctx, w, http.StatusInternalServerError, responseEnvelope{
		Status:  statusError,
		Message: "internal server error",
		Error:   &errorBody{Code: http.StatusInternalServerError, Reason: "internalError"},
	})
}

var errRateLimited = errors.New("too many requests")

func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	switch {
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, onboarding.ErrValidation),
		errors.Is(err, verification.ErrInvalidIBAN),
		errors.Is(err, reference.ErrUnknownKind):
		return mappedError{HTTPStatus: http.StatusBadRequest, Reason: "invalidInput"}
	case errors.Is(err, usecase.ErrNotFound):
		return mappedError{HTTPStatus: http.StatusNotFound, Reason: "notFound"}
	case errors.Is(err, usecase.ErrUnauthorized):
		return mappedError{HTTPStatus: http.StatusUnauthorized, Reason: "unauthorized"}
	case errors.Is(err, usecase.ErrForbidden):
		return mappedError{HTTPStatus: http.StatusForbidden, Reason: "forbidden"}
	case errors.Is(err, usecase.ErrConflict),
		errors.Is(err, verification.ErrInvalidTransition):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "conflict"}
	case errors.Is(err, errRateLimited):
		return mappedError{HTTPStatus: http.StatusTooManyRequests, Reason: "rateLimited"}
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return mappedError{HTTPStatus: http.StatusServiceUnavailable, Reason: "dependencyUnavailable"}
	default:
		return mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError"}
	}
}
