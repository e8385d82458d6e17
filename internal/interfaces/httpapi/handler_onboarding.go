package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/usecase"
)

const (
	stepSavedMessage       = "Onboarding step saved"
	stepNeedsReviewMessage = "Onboarding step saved and sent for compliance review"
)

func (h *Handler) GetOnboardingProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetOnboardingProfile")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	profile, err := h.onboardingService.GetProfile(ctx, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "get onboarding profile failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToResponse(profile, principal))
}

// SubmitOnboardingStep handles POST /onboarding/step{index}. The index is zero based for
// buyers and one based for sellers.
func (h *Handler) SubmitOnboardingStep(index int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitOnboardingStep")
		defer span.End()

		principal, err := requirePrincipal(ctx)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		profile, err := h.onboardingService.GetProfile(ctx, principal)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		step, err := onboarding.StepForEndpoint(profile.AccountType, index)
		if err != nil {
			if errors.Is(err, onboarding.ErrStepOutOfRange) {
				err = fmt.Errorf("%w: %v", usecase.ErrNotFound, err)
			} else {
				err = fmt.Errorf("%w: %v", usecase.ErrForbidden, err)
			}
			writeError(ctx, w, err)
			return
		}

		payload, err := onboarding.NewPayload(profile.Flow(), step)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrNotFound, err))
			return
		}
		if err := decodeJSON(r, payload); err != nil {
			writeError(ctx, w, err)
			return
		}

		result, err := h.onboardingService.SubmitStep(ctx, principal, payload)
		if err != nil {
			h.logger.WarnContext(ctx, "submit onboarding step failed",
				"user_id", principal.UserID,
				"flow", profile.Flow(),
				"step", step,
				"error", err,
			)
			writeError(ctx, w, err)
			return
		}

		message := stepSavedMessage
		if !result.Screening.Clean() {
			message = stepNeedsReviewMessage
		}
		writeSuccessMessage(ctx, w, http.StatusOK, message, profileToResponse(result.Profile, principal))
	}
}
