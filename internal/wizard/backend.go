package wizard

import (
	"context"

	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
)

type ProfileSource interface {
	GetProfile(ctx context.Context) (onboarding.Profile, error)
}

type StepSubmitter interface {
	SubmitStep(ctx context.Context, endpoint string, payload any) (string, error)
}

type Uploader interface {
	UploadFiles(ctx context.Context, label string, data any, files []document.File) ([]string, error)
}

type ReferenceSource interface {
	ListReferences(ctx context.Context, kind reference.Kind) ([]reference.Item, error)
}

type CountryLister interface {
	ListCountries(ctx context.Context) ([]reference.Country, error)
}

type VerificationBackend interface {
	Uploader
	GetVerification(ctx context.Context) (verification.Snapshot, error)
	TransitionVerification(ctx context.Context, event verification.Event, data verification.Data) (verification.Snapshot, error)
}

// Backend is the storefront API surface the wizard talks to.
type Backend interface {
	ProfileSource
	StepSubmitter
	Uploader
	ReferenceSource
	VerificationBackend
}

// StateStore is durable local key/value storage that survives process restarts.
type StateStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
