package onboarding

import (
	"errors"
	"time"
)

var (
	ErrUnknownAccountType = errors.New("unknown account type")
	ErrStepOutOfRange     = errors.New("step out of range")
)

type AccountType string

const (
	AccountTypeBuyer  AccountType = "buyer"
	AccountTypeSeller AccountType = "seller"
)

func ParseAccountType(v string) (AccountType, error) {
	switch AccountType(v) {
	case AccountTypeBuyer, AccountTypeSeller:
		return AccountType(v), nil
	default:
		return "", ErrUnknownAccountType
	}
}

type Status string

const (
	StatusNormal       Status = "normal"
	StatusRejected     Status = "rejected"
	StatusUpdateNeeded Status = "update_needed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNormal, StatusRejected, StatusUpdateNeeded:
		return true
	default:
		return false
	}
}

// Profile is the merged onboarding aggregate. OnboardingStep nil means onboarding is
// complete; StepKnown is false when a decoded profile carried no step field at all.
type Profile struct {
	UserID          string      `json:"user_id"`
	Email           string      `json:"email,omitempty"`
	AccountType     AccountType `json:"account_type"`
	OnboardingStep  *int        `json:"-"`
	StepKnown       bool        `json:"-"`
	Status          Status      `json:"onboarding_status"`
	RejectionReason string      `json:"rejection_reason,omitempty"`

	CompanyName        string `json:"company_name,omitempty"`
	BuyerType          string `json:"buyer_type,omitempty"`
	ProcurementPurpose string `json:"procurement_purpose,omitempty"`
	Country            string `json:"country,omitempty"`
	City               string `json:"city,omitempty"`
	Address            string `json:"address,omitempty"`
	TaxID              string `json:"tax_id,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	BusinessLicenseURL string `json:"business_license_url,omitempty"`

	ContactFullName    string `json:"contact_full_name,omitempty"`
	ContactEmail       string `json:"contact_email,omitempty"`
	ContactJobTitle    string `json:"contact_job_title,omitempty"`
	ContactCountryCode string `json:"contact_country_code,omitempty"`
	ContactMobile      string `json:"contact_mobile,omitempty"`
	TermsAccepted      bool   `json:"terms_accepted,omitempty"`

	EndUserType          string   `json:"end_user_type,omitempty"`
	EndUseCountries      []string `json:"end_use_countries,omitempty"`
	EndUseDescription    string   `json:"end_use_description,omitempty"`
	EndUseCertificateURL string   `json:"end_use_certificate_url,omitempty"`
	DeclarationAccepted  bool     `json:"declaration_accepted,omitempty"`
	LicenseTypes         []string `json:"license_types,omitempty"`
	ExportLicenseURL     string   `json:"export_license_url,omitempty"`
	ComplianceAccepted   bool     `json:"compliance_accepted,omitempty"`

	Categories           []string `json:"categories,omitempty"`
	PreferredCurrency    string   `json:"preferred_currency,omitempty"`
	StoreName            string   `json:"store_name,omitempty"`
	ShippingRegions      []string `json:"shipping_regions,omitempty"`
	ReturnPolicy         string   `json:"return_policy,omitempty"`
	NotifyOrderUpdates   bool     `json:"notify_order_updates,omitempty"`
	NotifyComplianceNews bool     `json:"notify_compliance_news,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProfile returns the profile created for a fresh account, positioned at step 1.
func NewProfile(userID string, accountType AccountType, now time.Time) Profile {
	first := 1
	return Profile{
		UserID:         userID,
		AccountType:    accountType,
		OnboardingStep: &first,
		StepKnown:      true,
		Status:         StatusNormal,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Complete reports whether the backend judged onboarding finished.
func (p Profile) Complete() bool {
	return p.StepKnown && p.OnboardingStep == nil
}

// AllowedStep returns the highest step the user may view, or ok=false when the profile
// does not say (unknown or complete). Stored values outside 1..FinalStep are clamped, so a
// profile created at step 0 may open step 1.
func (p Profile) AllowedStep() (int, bool) {
	if !p.StepKnown || p.OnboardingStep == nil {
		return 0, false
	}
	return min(max(*p.OnboardingStep, FirstStep), FinalStep), true
}

func (p *Profile) SetStep(step *int) {
	p.StepKnown = true
	if step == nil {
		p.OnboardingStep = nil
		return
	}
	v := *step
	p.OnboardingStep = &v
}

func (p Profile) Flow() Flow {
	if p.AccountType == AccountTypeSeller {
		return FlowSeller
	}
	return FlowBuyer
}
