package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/user"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

// StepObserver receives one notification per accepted step submission.
type StepObserver interface {
	ObserveStep(flow onboarding.Flow, step int, status onboarding.Status)
}

type noopStepObserver struct{}

func (noopStepObserver) ObserveStep(onboarding.Flow, int, onboarding.Status) {}

type OnboardingService struct {
	profileRepo onboarding.Repository
	screening   *ScreeningService
	observer    StepObserver
	logger      *logging.Logger
	now         func() time.Time
}

func NewOnboardingService(
	profileRepo onboarding.Repository,
	screening *ScreeningService,
	observer StepObserver,
	logger *logging.Logger,
) *OnboardingService {
	if logger == nil {
		logger = logging.Default()
	}
	if observer == nil {
		observer = noopStepObserver{}
	}
	if screening == nil {
		screening = NewScreeningService(nil, 0, logger)
	}
	return &OnboardingService{
		profileRepo: profileRepo,
		screening:   screening,
		observer:    observer,
		logger:      logger,
		now:         time.Now,
	}
}

// GetProfile returns the caller's profile, creating it at step 1 on first access.
func (s *OnboardingService) GetProfile(ctx context.Context, principal user.Principal) (onboarding.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.GetProfile")
	defer span.End()

	if strings.TrimSpace(principal.UserID) == "" {
		return onboarding.Profile{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	profile, exists, err := s.profileRepo.GetByUserID(ctx, principal.UserID)
	if err != nil {
		return onboarding.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if exists {
		if profile.Email == "" {
			profile.Email = principal.Email
		}
		return profile, nil
	}

	if _, err := onboarding.ParseAccountType(string(principal.AccountType)); err != nil {
		return onboarding.Profile{}, fmt.Errorf("%w: account type %q", ErrForbidden, principal.AccountType)
	}

	profile = onboarding.NewProfile(principal.UserID, principal.AccountType, s.now().UTC())
	profile.Email = principal.Email
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return onboarding.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	s.logger.InfoContext(ctx, "onboarding profile created", "user_id", profile.UserID, "account_type", profile.AccountType)

	return profile, nil
}

type SubmitStepResult struct {
	Profile   onboarding.Profile
	Screening ScreeningResult
}

// SubmitStep validates and applies one step payload. Steps beyond the stored
// onboarding_step are refused unless onboarding is already complete.
func (s *OnboardingService) SubmitStep(ctx context.Context, principal user.Principal, payload onboarding.StepPayload) (SubmitStepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.SubmitStep")
	defer span.End()

	if payload == nil {
		return SubmitStepResult{}, fmt.Errorf("%w: payload is required", ErrInvalidInput)
	}

	profile, err := s.GetProfile(ctx, principal)
	if err != nil {
		return SubmitStepResult{}, err
	}
	if payload.Flow() != profile.Flow() {
		return SubmitStepResult{}, fmt.Errorf("%w: %s step submitted for %s account", ErrForbidden, payload.Flow(), profile.AccountType)
	}
	if profile.Status == onboarding.StatusRejected {
		return SubmitStepResult{}, fmt.Errorf("%w: onboarding was rejected", ErrForbidden)
	}

	step := payload.Step()
	if allowed, ok := profile.AllowedStep(); ok && step > allowed {
		return SubmitStepResult{}, fmt.Errorf("%w: step %d is not unlocked yet, continue from step %d", ErrConflict, step, allowed)
	}

	if err := onboarding.ValidatePayload(ctx, payload); err != nil {
		if errors.Is(err, onboarding.ErrValidation) {
			return SubmitStepResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return SubmitStepResult{}, fmt.Errorf("validate payload: %w", err)
	}

	payload.Apply(&profile)

	var result ScreeningResult
	if screened, ok := payload.(onboarding.Screened); ok {
		result, err = s.screening.Screen(ctx, screened.ScreenedCountries())
		if err != nil {
			return SubmitStepResult{}, err
		}
		applyScreening(&profile, result)
	}

	advanceStep(&profile, step)
	profile.UpdatedAt = s.now().UTC()

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return SubmitStepResult{}, fmt.Errorf("save profile: %w", err)
	}
	s.observer.ObserveStep(profile.Flow(), step, profile.Status)
	s.logger.InfoContext(ctx, "onboarding step accepted",
		"user_id", profile.UserID,
		"flow", profile.Flow(),
		"step", step,
		"status", profile.Status,
	)

	return SubmitStepResult{Profile: profile, Screening: result}, nil
}

type ReviewInput struct {
	UserID string
	Status onboarding.Status
	Reason string
}

// Review sets the compliance review outcome. Non-normal outcomes need a reason.
func (s *OnboardingService) Review(ctx context.Context, input ReviewInput) (onboarding.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.Review")
	defer span.End()

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return onboarding.Profile{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !input.Status.Valid() {
		return onboarding.Profile{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	}
	reason := strings.TrimSpace(input.Reason)
	if input.Status != onboarding.StatusNormal && reason == "" {
		return onboarding.Profile{}, fmt.Errorf("%w: reason is required for status %s", ErrInvalidInput, input.Status)
	}

	profile, exists, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return onboarding.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if !exists {
		return onboarding.Profile{}, fmt.Errorf("%w: profile user=%s", ErrNotFound, userID)
	}

	profile.Status = input.Status
	profile.RejectionReason = reason
	if input.Status == onboarding.StatusNormal {
		profile.RejectionReason = ""
	}
	profile.UpdatedAt = s.now().UTC()

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return onboarding.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	s.logger.InfoContext(ctx, "onboarding review recorded", "user_id", userID, "status", input.Status)

	return profile, nil
}

// SetStep moves the stored position; nil marks onboarding complete.
func (s *OnboardingService) SetStep(ctx context.Context, userID string, step *int) (onboarding.Profile, error) {
	profile, exists, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return onboarding.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if !exists {
		return onboarding.Profile{}, fmt.Errorf("%w: profile user=%s", ErrNotFound, userID)
	}
	if step != nil && (*step < onboarding.FirstStep || *step > onboarding.FinalStep) {
		return onboarding.Profile{}, fmt.Errorf("%w: %d", onboarding.ErrStepOutOfRange, *step)
	}

	profile.SetStep(step)
	profile.UpdatedAt = s.now().UTC()
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return onboarding.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

func applyScreening(profile *onboarding.Profile, result ScreeningResult) {
	if !result.Clean() {
		profile.Status = onboarding.StatusUpdateNeeded
		profile.RejectionReason = result.Reason()
		return
	}
	if profile.Status == onboarding.StatusUpdateNeeded && strings.HasPrefix(profile.RejectionReason, screeningReasonPrefix) {
		profile.Status = onboarding.StatusNormal
		profile.RejectionReason = ""
	}
}

func advanceStep(profile *onboarding.Profile, submitted int) {
	if profile.Complete() {
		return
	}

	if submitted == onboarding.FormSteps && profile.Flow() == onboarding.FlowBuyer {
		profile.SetStep(nil)
		return
	}

	next := submitted + 1
	if current, ok := profile.AllowedStep(); ok && current > next {
		next = current
	}
	profile.SetStep(&next)
}
