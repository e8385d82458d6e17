package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
	qb "github.com/riskibarqy/armory-onboarding/internal/platform/querybuilder"
)

const sellerVerificationsTable = "seller_verifications"

type verificationTableModel struct {
	UserID              string         `db:"user_id"`
	State               string         `db:"state"`
	PaymentMethod       sql.NullString `db:"payment_method"`
	AccountHolder       sql.NullString `db:"account_holder"`
	BankName            sql.NullString `db:"bank_name"`
	IBAN                sql.NullString `db:"iban"`
	SwiftCode           sql.NullString `db:"swift_code"`
	BankStatus          sql.NullString `db:"bank_status"`
	BillingAddress      sql.NullString `db:"billing_address"`
	PayoutCurrency      sql.NullString `db:"payout_currency"`
	IdentityDocumentURL sql.NullString `db:"identity_document_url"`
	IdentityDocumentNo  sql.NullString `db:"identity_document_number"`
	SubmittedAt         sql.NullTime   `db:"submitted_at"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

type verificationInsertModel struct {
	UserID              string     `db:"user_id"`
	State               string     `db:"state"`
	PaymentMethod       *string    `db:"payment_method"`
	AccountHolder       *string    `db:"account_holder"`
	BankName            *string    `db:"bank_name"`
	IBAN                *string    `db:"iban"`
	SwiftCode           *string    `db:"swift_code"`
	BankStatus          *string    `db:"bank_status"`
	BillingAddress      *string    `db:"billing_address"`
	PayoutCurrency      *string    `db:"payout_currency"`
	IdentityDocumentURL *string    `db:"identity_document_url"`
	IdentityDocumentNo  *string    `db:"identity_document_number"`
	SubmittedAt         *time.Time `db:"submitted_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

var verificationColumns = qb.Columns(verificationTableModel{})

type VerificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) GetByUserID(ctx context.Context, userID string) (verification.Record, bool, error) {
	query, args, err := qb.Select(verificationColumns...).
		From(sellerVerificationsTable).
		Where(qb.Eq("user_id", userID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return verification.Record{}, false, fmt.Errorf("build get verification query: %w", err)
	}

	var row verificationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return verification.Record{}, false, nil
		}
		return verification.Record{}, false, fmt.Errorf("get verification: %w", err)
	}

	return verificationFromRow(row), true, nil
}

func (r *VerificationRepository) Upsert(ctx context.Context, record verification.Record) error {
	query, args, err := qb.Insert(sellerVerificationsTable, verificationToInsert(record)).
		OnConflict("user_id").
		Keep("created_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert verification query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert verification: %w", err)
	}
	return nil
}

// verificationFromRow keeps the raw state; callers run it through verification.Recover.
func verificationFromRow(row verificationTableModel) verification.Record {
	rec := verification.Record{
		UserID:              row.UserID,
		State:               verification.State(row.State),
		PaymentMethod:       verification.PaymentMethod(row.PaymentMethod.String),
		AccountHolder:       row.AccountHolder.String,
		BankName:            row.BankName.String,
		IBAN:                row.IBAN.String,
		SwiftCode:           row.SwiftCode.String,
		BankStatus:          verification.BankStatus(row.BankStatus.String),
		BillingAddress:      row.BillingAddress.String,
		PayoutCurrency:      row.PayoutCurrency.String,
		IdentityDocumentURL: row.IdentityDocumentURL.String,
		IdentityDocumentNo:  row.IdentityDocumentNo.String,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
	if row.SubmittedAt.Valid {
		submitted := row.SubmittedAt.Time
		rec.SubmittedAt = &submitted
	}
	return rec
}

func verificationToInsert(rec verification.Record) verificationInsertModel {
	return verificationInsertModel{
		UserID:              rec.UserID,
		State:               verification.Encode(rec.State),
		PaymentMethod:       optionalString(string(rec.PaymentMethod)),
		AccountHolder:       optionalString(rec.AccountHolder),
		BankName:            optionalString(rec.BankName),
		IBAN:                optionalString(rec.IBAN),
		SwiftCode:           optionalString(rec.SwiftCode),
		BankStatus:          optionalString(string(rec.BankStatus)),
		BillingAddress:      optionalString(rec.BillingAddress),
		PayoutCurrency:      optionalString(rec.PayoutCurrency),
		IdentityDocumentURL: optionalString(rec.IdentityDocumentURL),
		IdentityDocumentNo:  optionalString(rec.IdentityDocumentNo),
		SubmittedAt:         rec.SubmittedAt,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}
}
