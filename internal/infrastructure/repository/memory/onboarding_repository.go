package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
)

type OnboardingRepository struct {
	mu       sync.RWMutex
	profiles map[string]onboarding.Profile
}

func NewOnboardingRepository() *OnboardingRepository {
	return &OnboardingRepository{profiles: make(map[string]onboarding.Profile)}
}

func (r *OnboardingRepository) GetByUserID(_ context.Context, userID string) (onboarding.Profile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return onboarding.Profile{}, false, nil
	}
	return cloneProfile(p), true, nil
}

func (r *OnboardingRepository) Upsert(_ context.Context, profile onboarding.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.profiles[profile.UserID]; ok && !existing.CreatedAt.IsZero() {
		profile.CreatedAt = existing.CreatedAt
	}
	r.profiles[profile.UserID] = cloneProfile(profile)
	return nil
}

// cloneProfile detaches slices and the step pointer from the caller's copy.
func cloneProfile(p onboarding.Profile) onboarding.Profile {
	p.SetStep(p.OnboardingStep)
	p.EndUseCountries = append([]string(nil), p.EndUseCountries...)
	p.LicenseTypes = append([]string(nil), p.LicenseTypes...)
	p.Categories = append([]string(nil), p.Categories...)
	p.ShippingRegions = append([]string(nil), p.ShippingRegions...)
	return p
}
