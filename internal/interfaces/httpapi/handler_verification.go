package httpapi

import (
	"net/http"

	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
	"github.com/riskibarqy/armory-onboarding/internal/usecase"
)

func (h *Handler) GetVerification(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetVerification")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	record, err := h.verificationService.Get(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, verification.SnapshotOf(record))
}

func (h *Handler) TransitionVerification(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TransitionVerification")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	event, err := verification.ParseEvent(req.Event)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	record, err := h.verificationService.Transition(ctx, principal, usecase.TransitionInput{Event: event, Data: req.Data})
	if err != nil {
		h.logger.WarnContext(ctx, "verification transition failed", "user_id", principal.UserID, "event", event, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccessMessage(ctx, w, http.StatusOK, "Verification updated", verification.SnapshotOf(record))
}
