package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
)

type DocumentRepository struct {
	mu     sync.RWMutex
	ids    map[string]struct{}
	byUser map[string][]document.Document
}

func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{
		ids:    make(map[string]struct{}),
		byUser: make(map[string][]document.Document),
	}
}

func (r *DocumentRepository) Create(_ context.Context, doc document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ids[doc.ID]; exists {
		return fmt.Errorf("%w: id=%s", document.ErrDuplicate, doc.ID)
	}
	r.ids[doc.ID] = struct{}{}
	r.byUser[doc.UserID] = append(r.byUser[doc.UserID], doc)
	return nil
}

func (r *DocumentRepository) ListByUser(_ context.Context, userID string) ([]document.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.byUser[userID]
	out := make([]document.Document, 0, len(items))
	out = append(out, items...)
	return out, nil
}
