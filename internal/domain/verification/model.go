package verification

import (
	"context"
	"time"
)

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
)

type BankStatus string

const (
	BankStatusNone     BankStatus = ""
	BankStatusPending  BankStatus = "pending"
	BankStatusVerified BankStatus = "verified"
	BankStatusFailed   BankStatus = "failed"
)

// Record is the server-side view of a seller's verification progress.
type Record struct {
	UserID              string
	State               State
	PaymentMethod       PaymentMethod
	AccountHolder       string
	BankName            string
	IBAN                string
	SwiftCode           string
	BankStatus          BankStatus
	BillingAddress      string
	PayoutCurrency      string
	IdentityDocumentURL string
	IdentityDocumentNo  string
	SubmittedAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func NewRecord(userID string, now time.Time) Record {
	return Record{
		UserID:    userID,
		State:     InitialState,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Data carries the form fields sent with a transition. Only the fields relevant to the
// current state are read.
type Data struct {
	PaymentMethod       PaymentMethod `json:"paymentMethod,omitempty" yaml:"paymentMethod"`
	AccountHolder       string        `json:"accountHolder,omitempty" yaml:"accountHolder"`
	BankName            string        `json:"bankName,omitempty" yaml:"bankName"`
	IBAN                string        `json:"iban,omitempty" yaml:"iban"`
	SwiftCode           string        `json:"swiftCode,omitempty" yaml:"swiftCode"`
	BillingAddress      string        `json:"billingAddress,omitempty" yaml:"billingAddress"`
	PayoutCurrency      string        `json:"payoutCurrency,omitempty" yaml:"payoutCurrency"`
	IdentityDocumentURL string        `json:"identityDocument,omitempty" yaml:"identityDocument"`
	IdentityDocumentNo  string        `json:"identityDocumentNumber,omitempty" yaml:"identityDocumentNumber"`
}

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (Record, bool, error)
	Upsert(ctx context.Context, record Record) error
}
