package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
)

type VerificationRepository struct {
	mu      sync.RWMutex
	records map[string]verification.Record
}

func NewVerificationRepository() *VerificationRepository {
	return &VerificationRepository{records: make(map[string]verification.Record)}
}

func (r *VerificationRepository) GetByUserID(_ context.Context, userID string) (verification.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[userID]
	return rec, ok, nil
}

func (r *VerificationRepository) Upsert(_ context.Context, record verification.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.SubmittedAt != nil {
		submitted := *record.SubmittedAt
		record.SubmittedAt = &submitted
	}
	r.records[record.UserID] = record
	return nil
}
