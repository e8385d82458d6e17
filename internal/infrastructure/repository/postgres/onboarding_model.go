package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

const onboardingProfilesTable = "onboarding_profiles"

type onboardingProfileTableModel struct {
	UserID               string         `db:"user_id"`
	Email                sql.NullString `db:"email"`
	AccountType          string         `db:"account_type"`
	OnboardingStep       sql.NullInt64  `db:"onboarding_step"`
	OnboardingStatus     string         `db:"onboarding_status"`
	RejectionReason      sql.NullString `db:"rejection_reason"`
	CompanyName          sql.NullString `db:"company_name"`
	BuyerType            sql.NullString `db:"buyer_type"`
	ProcurementPurpose   sql.NullString `db:"procurement_purpose"`
	Country              sql.NullString `db:"country"`
	City                 sql.NullString `db:"city"`
	Address              sql.NullString `db:"address"`
	TaxID                sql.NullString `db:"tax_id"`
	RegistrationNumber   sql.NullString `db:"registration_number"`
	BusinessLicenseURL   sql.NullString `db:"business_license_url"`
	ContactFullName      sql.NullString `db:"contact_full_name"`
	ContactEmail         sql.NullString `db:"contact_email"`
	ContactJobTitle      sql.NullString `db:"contact_job_title"`
	ContactCountryCode   sql.NullString `db:"contact_country_code"`
	ContactMobile        sql.NullString `db:"contact_mobile"`
	TermsAccepted        bool           `db:"terms_accepted"`
	EndUserType          sql.NullString `db:"end_user_type"`
	EndUseCountries      pq.StringArray `db:"end_use_countries"`
	EndUseDescription    sql.NullString `db:"end_use_description"`
	EndUseCertificateURL sql.NullString `db:"end_use_certificate_url"`
	DeclarationAccepted  bool           `db:"declaration_accepted"`
	LicenseTypes         pq.StringArray `db:"license_types"`
	ExportLicenseURL     sql.NullString `db:"export_license_url"`
	ComplianceAccepted   bool           `db:"compliance_accepted"`
	Categories           pq.StringArray `db:"categories"`
	PreferredCurrency    sql.NullString `db:"preferred_currency"`
	StoreName            sql.NullString `db:"store_name"`
	ShippingRegions      pq.StringArray `db:"shipping_regions"`
	ReturnPolicy         sql.NullString `db:"return_policy"`
	NotifyOrderUpdates   bool           `db:"notify_order_updates"`
	NotifyComplianceNews bool           `db:"notify_compliance_news"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

// onboardingProfileInsertModel omits created_at so the column default applies on insert
// and the stored value survives upserts.
type onboardingProfileInsertModel struct {
	UserID               string         `db:"user_id"`
	Email                *string        `db:"email"`
	AccountType          string         `db:"account_type"`
	OnboardingStep       *int           `db:"onboarding_step"`
	OnboardingStatus     string         `db:"onboarding_status"`
	RejectionReason      *string        `db:"rejection_reason"`
	CompanyName          *string        `db:"company_name"`
	BuyerType            *string        `db:"buyer_type"`
	ProcurementPurpose   *string        `db:"procurement_purpose"`
	Country              *string        `db:"country"`
	City                 *string        `db:"city"`
	Address              *string        `db:"address"`
	TaxID                *string        `db:"tax_id"`
	RegistrationNumber   *string        `db:"registration_number"`
	BusinessLicenseURL   *string        `db:"business_license_url"`
	ContactFullName      *string        `db:"contact_full_name"`
	ContactEmail         *string        `db:"contact_email"`
	ContactJobTitle      *string        `db:"contact_job_title"`
	ContactCountryCode   *string        `db:"contact_country_code"`
	ContactMobile        *string        `db:"contact_mobile"`
	TermsAccepted        bool           `db:"terms_accepted"`
	EndUserType          *string        `db:"end_user_type"`
	EndUseCountries      pq.StringArray `db:"end_use_countries"`
	EndUseDescription    *string        `db:"end_use_description"`
	EndUseCertificateURL *string        `db:"end_use_certificate_url"`
	DeclarationAccepted  bool           `db:"declaration_accepted"`
	LicenseTypes         pq.StringArray `db:"license_types"`
	ExportLicenseURL     *string        `db:"export_license_url"`
	ComplianceAccepted   bool           `db:"compliance_accepted"`
	Categories           pq.StringArray `db:"categories"`
	PreferredCurrency    *string        `db:"preferred_currency"`
	StoreName            *string        `db:"store_name"`
	ShippingRegions      pq.StringArray `db:"shipping_regions"`
	ReturnPolicy         *string        `db:"return_policy"`
	NotifyOrderUpdates   bool           `db:"notify_order_updates"`
	NotifyComplianceNews bool           `db:"notify_compliance_news"`
	UpdatedAt            time.Time      `db:"updated_at"`
}
