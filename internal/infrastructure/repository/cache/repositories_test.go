package cache

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/armory-onboarding/internal/platform/cache"
)

type countingProfiles struct {
	*memory.OnboardingRepository
	gets int
}

func (c *countingProfiles) GetByUserID(ctx context.Context, userID string) (onboarding.Profile, bool, error) {
	c.gets++
	return c.OnboardingRepository.GetByUserID(ctx, userID)
}

func TestOnboardingRepository_InvalidatesOnUpsert(t *testing.T) {
	ctx := context.Background()
	next := &countingProfiles{OnboardingRepository: memory.NewOnboardingRepository()}
	repo := NewOnboardingRepository(next, basecache.NewStore(time.Minute))

	if _, exists, err := repo.GetByUserID(ctx, "u-1"); err != nil || exists {
		t.Fatalf("expected missing profile, exists=%v err=%v", exists, err)
	}
	if err := repo.Upsert(ctx, onboarding.NewProfile("u-1", onboarding.AccountTypeSeller, time.Now())); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, exists, err := repo.GetByUserID(ctx, "u-1")
		if err != nil || !exists {
			t.Fatalf("get: exists=%v err=%v", exists, err)
		}
		if got.AccountType != onboarding.AccountTypeSeller {
			t.Fatalf("unexpected profile: %+v", got)
		}
	}
	if next.gets != 2 {
		t.Fatalf("expected one miss before and one after upsert, got %d loads", next.gets)
	}
}
