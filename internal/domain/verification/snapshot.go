package verification

import "time"

// Snapshot is the wire view of a Record. The IBAN is masked to its last four characters.
type Snapshot struct {
	State               State         `json:"state"`
	AllowedEvents       []Event       `json:"allowedEvents"`
	PaymentMethod       PaymentMethod `json:"paymentMethod,omitempty"`
	AccountHolder       string        `json:"accountHolder,omitempty"`
	BankName            string        `json:"bankName,omitempty"`
	IBAN                string        `json:"iban,omitempty"`
	BankStatus          BankStatus    `json:"bankStatus,omitempty"`
	BillingAddress      string        `json:"billingAddress,omitempty"`
	PayoutCurrency      string        `json:"payoutCurrency,omitempty"`
	IdentityDocumentURL string        `json:"identityDocument,omitempty"`
	SubmittedAt         *time.Time    `json:"submittedAt,omitempty"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

func SnapshotOf(r Record) Snapshot {
	return Snapshot{
		State:               r.State,
		AllowedEvents:       Allowed(r.State),
		PaymentMethod:       r.PaymentMethod,
		AccountHolder:       r.AccountHolder,
		BankName:            r.BankName,
		IBAN:                MaskIBAN(r.IBAN),
		BankStatus:          r.BankStatus,
		BillingAddress:      r.BillingAddress,
		PayoutCurrency:      r.PayoutCurrency,
		IdentityDocumentURL: r.IdentityDocumentURL,
		SubmittedAt:         r.SubmittedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func MaskIBAN(iban string) string {
	iban = NormalizeIBAN(iban)
	if len(iban) <= 4 {
		return iban
	}
	masked := make([]byte, len(iban))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(iban)-4:], iban[len(iban)-4:])
	return string(masked)
}
