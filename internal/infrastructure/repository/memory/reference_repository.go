package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
)

type ReferenceRepository struct {
	mu     sync.RWMutex
	byKind map[reference.Kind][]reference.Item
}

func NewReferenceRepository(items map[reference.Kind][]reference.Item) *ReferenceRepository {
	byKind := make(map[reference.Kind][]reference.Item, len(items))
	for kind, list := range items {
		byKind[kind] = append([]reference.Item(nil), list...)
	}
	return &ReferenceRepository{byKind: byKind}
}

func (r *ReferenceRepository) ListByKind(_ context.Context, kind reference.Kind) ([]reference.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.byKind[kind]
	out := make([]reference.Item, 0, len(items))
	out = append(out, items...)
	return out, nil
}
