package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	qb "github.com/riskibarqy/armory-onboarding/internal/platform/querybuilder"
)

var onboardingProfileColumns = qb.Columns(onboardingProfileTableModel{})

type OnboardingRepository struct {
	db *sqlx.DB
}

func NewOnboardingRepository(db *sqlx.DB) *OnboardingRepository {
	return &OnboardingRepository{db: db}
}

func (r *OnboardingRepository) GetByUserID(ctx context.Context, userID string) (onboarding.Profile, bool, error) {
	query, args, err := qb.Select(onboardingProfileColumns...).
		From(onboardingProfilesTable).
		Where(
			qb.Eq("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return onboarding.Profile{}, false, fmt.Errorf("build get onboarding profile query: %w", err)
	}

	var row onboardingProfileTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return onboarding.Profile{}, false, nil
		}
		return onboarding.Profile{}, false, fmt.Errorf("get onboarding profile: %w", err)
	}

	return onboardingProfileFromRow(row), true, nil
}

func (r *OnboardingRepository) Upsert(ctx context.Context, profile onboarding.Profile) error {
	query, args, err := qb.Insert(onboardingProfilesTable, onboardingProfileToInsert(profile)).
		OnConflict("user_id").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert onboarding profile query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert onboarding profile: %w", err)
	}

	return nil
}

func onboardingProfileFromRow(row onboardingProfileTableModel) onboarding.Profile {
	p := onboarding.Profile{
		UserID:               row.UserID,
		Email:                row.Email.String,
		AccountType:          onboarding.AccountType(row.AccountType),
		Status:               onboarding.Status(row.OnboardingStatus),
		RejectionReason:      row.RejectionReason.String,
		CompanyName:          row.CompanyName.String,
		BuyerType:            row.BuyerType.String,
		ProcurementPurpose:   row.ProcurementPurpose.String,
		Country:              row.Country.String,
		City:                 row.City.String,
		Address:              row.Address.String,
		TaxID:                row.TaxID.String,
		RegistrationNumber:   row.RegistrationNumber.String,
		BusinessLicenseURL:   row.BusinessLicenseURL.String,
		ContactFullName:      row.ContactFullName.String,
		ContactEmail:         row.ContactEmail.String,
		ContactJobTitle:      row.ContactJobTitle.String,
		ContactCountryCode:   row.ContactCountryCode.String,
		ContactMobile:        row.ContactMobile.String,
		TermsAccepted:        row.TermsAccepted,
		EndUserType:          row.EndUserType.String,
		EndUseCountries:      []string(row.EndUseCountries),
		EndUseDescription:    row.EndUseDescription.String,
		EndUseCertificateURL: row.EndUseCertificateURL.String,
		DeclarationAccepted:  row.DeclarationAccepted,
		LicenseTypes:         []string(row.LicenseTypes),
		ExportLicenseURL:     row.ExportLicenseURL.String,
		ComplianceAccepted:   row.ComplianceAccepted,
		Categories:           []string(row.Categories),
		PreferredCurrency:    row.PreferredCurrency.String,
		StoreName:            row.StoreName.String,
		ShippingRegions:      []string(row.ShippingRegions),
		ReturnPolicy:         row.ReturnPolicy.String,
		NotifyOrderUpdates:   row.NotifyOrderUpdates,
		NotifyComplianceNews: row.NotifyComplianceNews,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
	if !p.Status.Valid() {
		p.Status = onboarding.StatusNormal
	}
	if row.OnboardingStep.Valid {
		step := int(row.OnboardingStep.Int64)
		p.SetStep(&step)
	} else {
		p.SetStep(nil)
	}
	return p
}

func onboardingProfileToInsert(p onboarding.Profile) onboardingProfileInsertModel {
	return onboardingProfileInsertModel{
		UserID:               strings.TrimSpace(p.UserID),
		Email:                optionalString(p.Email),
		AccountType:          string(p.AccountType),
		OnboardingStep:       p.OnboardingStep,
		OnboardingStatus:     string(p.Status),
		RejectionReason:      optionalString(p.RejectionReason),
		CompanyName:          optionalString(p.CompanyName),
		BuyerType:            optionalString(p.BuyerType),
		ProcurementPurpose:   optionalString(p.ProcurementPurpose),
		Country:              optionalString(strings.ToUpper(p.Country)),
		City:                 optionalString(p.City),
		Address:              optionalString(p.Address),
		TaxID:                optionalString(p.TaxID),
		RegistrationNumber:   optionalString(p.RegistrationNumber),
		BusinessLicenseURL:   optionalString(p.BusinessLicenseURL),
		ContactFullName:      optionalString(p.ContactFullName),
		ContactEmail:         optionalString(p.ContactEmail),
		ContactJobTitle:      optionalString(p.ContactJobTitle),
		ContactCountryCode:   optionalString(p.ContactCountryCode),
		ContactMobile:        optionalString(p.ContactMobile),
		TermsAccepted:        p.TermsAccepted,
		EndUserType:          optionalString(p.EndUserType),
		EndUseCountries:      stringArray(p.EndUseCountries),
		EndUseDescription:    optionalString(p.EndUseDescription),
		EndUseCertificateURL: optionalString(p.EndUseCertificateURL),
		DeclarationAccepted:  p.DeclarationAccepted,
		LicenseTypes:         stringArray(p.LicenseTypes),
		ExportLicenseURL:     optionalString(p.ExportLicenseURL),
		ComplianceAccepted:   p.ComplianceAccepted,
		Categories:           stringArray(p.Categories),
		PreferredCurrency:    optionalString(p.PreferredCurrency),
		StoreName:            optionalString(p.StoreName),
		ShippingRegions:      stringArray(p.ShippingRegions),
		ReturnPolicy:         optionalString(p.ReturnPolicy),
		NotifyOrderUpdates:   p.NotifyOrderUpdates,
		NotifyComplianceNews: p.NotifyComplianceNews,
		UpdatedAt:            p.UpdatedAt,
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func stringArray(values []string) pq.StringArray {
	if values == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(values)
}
