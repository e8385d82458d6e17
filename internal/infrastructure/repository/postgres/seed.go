package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
)

// BootstrapSeed fills reference_items on an empty database. Existing rows are left alone.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, items map[reference.Kind][]reference.Item) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM reference_items WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count reference items for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	kinds := make([]string, 0, len(items))
	for kind := range items {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		for i, item := range items[reference.Kind(kind)] {
			sqlQuery, args, err := sqlx.Named(`
INSERT INTO reference_items (kind, public_id, name, sort_order)
VALUES (:kind, :public_id, :name, :sort_order)
ON CONFLICT (kind, public_id) DO NOTHING`, map[string]any{
				"kind":       kind,
				"public_id":  item.ID,
				"name":       item.Name,
				"sort_order": i,
			})
			if err != nil {
				return fmt.Errorf("bind seed reference %s/%s query: %w", kind, item.ID, err)
			}
			sqlQuery = tx.Rebind(sqlQuery)
			if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
				return fmt.Errorf("seed reference %s/%s: %w", kind, item.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
