package httpapi

import (
	"time"

	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/user"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
)

// profileDTO adds the explicit onboarding_step field; null means onboarding is complete.
type profileDTO struct {
	onboarding.Profile
	OnboardingStep *int `json:"onboarding_step"`
}

type userDTO struct {
	UserID         string                 `json:"user_id"`
	Email          string                 `json:"email,omitempty"`
	AccountType    onboarding.AccountType `json:"account_type"`
	OnboardingStep *int                   `json:"onboarding_step"`
}

type profileResponseDTO struct {
	Profile profileDTO `json:"profile"`
	User    userDTO    `json:"user"`
}

func profileToResponse(p onboarding.Profile, principal user.Principal) profileResponseDTO {
	accountType := p.AccountType
	if accountType == "" {
		accountType = principal.AccountType
	}
	email := p.Email
	if email == "" {
		email = principal.Email
	}
	return profileResponseDTO{
		Profile: profileDTO{Profile: p, OnboardingStep: p.OnboardingStep},
		User: userDTO{
			UserID:         p.UserID,
			Email:          email,
			AccountType:    accountType,
			OnboardingStep: p.OnboardingStep,
		},
	}
}

type transitionRequest struct {
	Event string            `json:"event" validate:"required,oneof=continue back submit edit"`
	Data  verification.Data `json:"data"`
}

type bankVerificationJobRequest struct {
	UserID string `json:"userId" validate:"required"`
	IBAN   string `json:"iban" validate:"required"`
}

type reviewRequest struct {
	Status string `json:"status" validate:"required,oneof=normal rejected update_needed"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type documentDTO struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
	CreatedAt   string `json:"createdAt"`
}

func documentToDTO(d document.Document) documentDTO {
	return documentDTO{
		ID:          d.ID,
		Label:       d.Label,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		Size:        d.Size,
		URL:         d.URL,
		CreatedAt:   d.CreatedAt.UTC().Format(time.RFC3339),
	}
}
