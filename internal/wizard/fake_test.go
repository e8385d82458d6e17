package wizard

import (
	"context"
	"io"
	"sync"

	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
)

type fakeBackend struct {
	mu sync.Mutex

	profiles   []onboarding.Profile
	profileErr error
	profileHit int

	submitErr error
	submitted []submission
	onSubmit  func()

	uploadURLs []string
	uploadErr  error
	uploads    []upload

	refs    map[reference.Kind][]reference.Item
	refErr  error
	snap    verification.Snapshot
	moveTo  verification.State
	moveErr error
	events  []verification.Event

	calls []string
}

type submission struct {
	endpoint string
	payload  any
}

type upload struct {
	label   string
	data    any
	name    string
	content string
}

func (f *fakeBackend) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) GetProfile(context.Context) (onboarding.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("profile")
	f.profileHit++
	if f.profileErr != nil {
		return onboarding.Profile{}, f.profileErr
	}
	if len(f.profiles) == 0 {
		return onboarding.Profile{}, nil
	}
	p := f.profiles[0]
	if len(f.profiles) > 1 {
		f.profiles = f.profiles[1:]
	}
	return p, nil
}

func (f *fakeBackend) SubmitStep(_ context.Context, endpoint string, payload any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("submit")
	if f.onSubmit != nil {
		f.onSubmit()
	}
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, submission{endpoint: endpoint, payload: payload})
	return "saved", nil
}

func (f *fakeBackend) UploadFiles(_ context.Context, label string, data any, files []document.File) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("upload")
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	for _, file := range files {
		raw, _ := io.ReadAll(file.Content)
		f.uploads = append(f.uploads, upload{label: label, data: data, name: file.Name, content: string(raw)})
	}
	return f.uploadURLs, nil
}

func (f *fakeBackend) ListReferences(_ context.Context, kind reference.Kind) ([]reference.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refErr != nil {
		return nil, f.refErr
	}
	return f.refs[kind], nil
}

func (f *fakeBackend) GetVerification(context.Context) (verification.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, nil
}

func (f *fakeBackend) TransitionVerification(_ context.Context, event verification.Event, _ verification.Data) (verification.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("transition")
	if f.moveErr != nil {
		return verification.Snapshot{}, f.moveErr
	}
	f.events = append(f.events, event)
	return verification.Snapshot{State: f.moveTo}, nil
}

type apiError struct{ msg string }

func (e apiError) Error() string         { return "storefront: status 422" }
func (e apiError) ServerMessage() string { return e.msg }

func stepProfile(step int) onboarding.Profile {
	return onboarding.Profile{UserID: "u-1", OnboardingStep: &step, StepKnown: true, Status: onboarding.StatusNormal}
}

func completeProfile() onboarding.Profile {
	return onboarding.Profile{UserID: "u-1", StepKnown: true, Status: onboarding.StatusNormal}
}
