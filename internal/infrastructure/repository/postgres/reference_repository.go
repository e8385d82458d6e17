package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
	qb "github.com/riskibarqy/armory-onboarding/internal/platform/querybuilder"
)

type referenceItemTableModel struct {
	PublicID string `db:"public_id"`
	Name     string `db:"name"`
}

type ReferenceRepository struct {
	db *sqlx.DB
}

func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) ListByKind(ctx context.Context, kind reference.Kind) ([]reference.Item, error) {
	query, args, err := qb.Select("public_id", "name").
		From("reference_items").
		Where(
			qb.Eq("kind", string(kind)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("sort_order ASC", "name ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list references query: %w", err)
	}

	var rows []referenceItemTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list references kind=%s: %w", kind, err)
	}

	items := make([]reference.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, reference.Item{ID: row.PublicID, Name: row.Name})
	}
	return items, nil
}
