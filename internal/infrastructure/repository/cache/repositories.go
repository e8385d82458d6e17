package cache

import (
	"context"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
	basecache "github.com/riskibarqy/armory-onboarding/internal/platform/cache"
)

type OnboardingRepository struct {
	next  onboarding.Repository
	cache *basecache.Store
}

func NewOnboardingRepository(next onboarding.Repository, cache *basecache.Store) *OnboardingRepository {
	return &OnboardingRepository{next: next, cache: cache}
}

func (r *OnboardingRepository) GetByUserID(ctx context.Context, userID string) (onboarding.Profile, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, profileKey(userID), func(ctx context.Context) (cachedProfile, error) {
		item, exists, err := r.next.GetByUserID(ctx, userID)
		if err != nil {
			return cachedProfile{}, err
		}
		return cachedProfile{value: item, exists: exists}, nil
	})
	if err != nil {
		return onboarding.Profile{}, false, err
	}
	if !cached.exists {
		return onboarding.Profile{}, false, nil
	}

	out := cached.value
	out.SetStep(cached.value.OnboardingStep)
	return out, true, nil
}

// Upsert writes through and drops the cached profile so the next read sees the new step.
func (r *OnboardingRepository) Upsert(ctx context.Context, profile onboarding.Profile) error {
	defer r.cache.Delete(ctx, profileKey(profile.UserID))
	return r.next.Upsert(ctx, profile)
}

type cachedProfile struct {
	value  onboarding.Profile
	exists bool
}

func profileKey(userID string) string {
	return "onboarding:profile:" + userID
}

type ReferenceRepository struct {
	next  reference.Repository
	cache *basecache.Store
}

func NewReferenceRepository(next reference.Repository, cache *basecache.Store) *ReferenceRepository {
	return &ReferenceRepository{next: next, cache: cache}
}

func (r *ReferenceRepository) ListByKind(ctx context.Context, kind reference.Kind) ([]reference.Item, error) {
	items, err := basecache.Load(ctx, r.cache, "reference:list:"+string(kind), func(ctx context.Context) ([]reference.Item, error) {
		items, err := r.next.ListByKind(ctx, kind)
		if err != nil {
			return nil, err
		}
		return append([]reference.Item(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]reference.Item(nil), items...), nil
}
