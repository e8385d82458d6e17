package httpapi

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
	"github.com/riskibarqy/armory-onboarding/internal/usecase"
)

// RunBankVerificationJob is the delayed callback scheduled when a seller submits an IBAN.
func (h *Handler) RunBankVerificationJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunBankVerificationJob")
	defer span.End()

	var req bankVerificationJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	record, err := h.verificationService.CompleteBankCheck(ctx, usecase.BankVerificationJob{UserID: req.UserID, IBAN: req.IBAN})
	if err != nil {
		traceID, spanID := traceMetaFromContext(ctx)
		h.logger.WarnContext(ctx, "bank verification job failed",
			"user_id", req.UserID,
			"error", err,
			"trace_id", traceID,
			"span_id", spanID,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"userId":     record.UserID,
		"bankStatus": record.BankStatus,
		"state":      record.State,
		"iban":       verification.MaskIBAN(record.IBAN),
	})
}

// ReviewProfile records the compliance outcome for a user's onboarding.
func (h *Handler) ReviewProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReviewProfile")
	defer span.End()

	userID := r.PathValue("userID")
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	profile, err := h.onboardingService.Review(ctx, usecase.ReviewInput{
		UserID: userID,
		Status: onboarding.Status(req.Status),
		Reason: req.Reason,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "review profile failed", "user_id", userID, "status", req.Status, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileDTO{Profile: profile, OnboardingStep: profile.OnboardingStep})
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
