package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
	qb "github.com/riskibarqy/armory-onboarding/internal/platform/querybuilder"
)

const onboardingDocumentsTable = "onboarding_documents"

type documentTableModel struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Label       string    `db:"label"`
	FileName    string    `db:"file_name"`
	StoredName  string    `db:"stored_name"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	URL         string    `db:"url"`
	Meta        string    `db:"meta"`
	CreatedAt   time.Time `db:"created_at"`
}

var documentColumns = qb.Columns(documentTableModel{})

type DocumentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc document.Document) error {
	row := documentTableModel{
		ID:          doc.ID,
		UserID:      doc.UserID,
		Label:       doc.Label,
		FileName:    doc.FileName,
		StoredName:  doc.StoredName,
		ContentType: doc.ContentType,
		SizeBytes:   doc.Size,
		URL:         doc.URL,
		Meta:        doc.Meta,
		CreatedAt:   doc.CreatedAt,
	}
	query, args, err := qb.Insert(onboardingDocumentsTable, row).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert document query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: id=%s", document.ErrDuplicate, doc.ID)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ListByUser(ctx context.Context, userID string) ([]document.Document, error) {
	query, args, err := qb.Select(documentColumns...).
		From(onboardingDocumentsTable).
		Where(qb.Eq("user_id", userID)).
		OrderBy("created_at ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list documents query: %w", err)
	}

	var rows []documentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := make([]document.Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, document.Document{
			ID:          row.ID,
			UserID:      row.UserID,
			Label:       row.Label,
			FileName:    row.FileName,
			StoredName:  row.StoredName,
			ContentType: row.ContentType,
			Size:        row.SizeBytes,
			URL:         row.URL,
			Meta:        row.Meta,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}
