package onboarding

import (
	"fmt"
	"strings"
)

// Document labels sent with /upload/files.
const (
	LabelBusinessLicense   = "business_license"
	LabelEndUseCertificate = "end_use_certificate"
	LabelExportLicense     = "export_license"
	LabelIdentityDocument  = "identity_document"
)

// StepPayload is the typed body of one onboarding step submission.
type StepPayload interface {
	Kind() StepKind
	Flow() Flow
	Step() int
	// Apply merges the submitted fields into the stored profile.
	Apply(p *Profile)
}

// Screened is implemented by payloads whose countries go through sanctions screening.
type Screened interface {
	ScreenedCountries() []string
}

type BuyerInfo struct {
	CompanyName        string `json:"companyName" yaml:"companyName" validate:"required"`
	BuyerType          string `json:"buyerType" yaml:"buyerType" validate:"required"`
	ProcurementPurpose string `json:"procurementPurpose" yaml:"procurementPurpose" validate:"required"`
	Country            string `json:"country" yaml:"country" validate:"required,len=2"`
	City               string `json:"city,omitempty" yaml:"city"`
	Address            string `json:"address,omitempty" yaml:"address"`
	TaxID              string `json:"taxId" yaml:"taxId" validate:"required"`
	BusinessLicenseURL string `json:"businessLicense" yaml:"businessLicense" validate:"required"`
}

func NewBuyerInfo(p Profile) BuyerInfo {
	return BuyerInfo{
		CompanyName:        p.CompanyName,
		BuyerType:          p.BuyerType,
		ProcurementPurpose: p.ProcurementPurpose,
		Country:            p.Country,
		City:               p.City,
		Address:            p.Address,
		TaxID:              p.TaxID,
		BusinessLicenseURL: p.BusinessLicenseURL,
	}
}

func (BuyerInfo) Kind() StepKind { return StepBuyerInfo }
func (BuyerInfo) Flow() Flow     { return FlowBuyer }
func (BuyerInfo) Step() int      { return 1 }

func (b BuyerInfo) Apply(p *Profile) {
	p.CompanyName = strings.TrimSpace(b.CompanyName)
	p.BuyerType = b.BuyerType
	p.ProcurementPurpose = b.ProcurementPurpose
	p.Country = strings.ToUpper(b.Country)
	p.City = b.City
	p.Address = b.Address
	p.TaxID = strings.TrimSpace(b.TaxID)
	p.BusinessLicenseURL = b.BusinessLicenseURL
}

// BuyerContact only requires a name and the terms checkbox; email and phone are free form.
type BuyerContact struct {
	ContactFullName    string `json:"contactFullName" yaml:"contactFullName" validate:"required"`
	ContactEmail       string `json:"contactEmail,omitempty" yaml:"contactEmail"`
	ContactJobTitle    string `json:"contactJobTitle,omitempty" yaml:"contactJobTitle"`
	ContactCountryCode string `json:"contactCountryCode,omitempty" yaml:"contactCountryCode"`
	ContactMobile      string `json:"contactMobile,omitempty" yaml:"contactMobile"`
	TermsAccepted      bool   `json:"termsAccepted" yaml:"termsAccepted" validate:"required"`
}

func NewBuyerContact(p Profile) BuyerContact {
	return BuyerContact{
		ContactFullName:    p.ContactFullName,
		ContactEmail:       p.ContactEmail,
		ContactJobTitle:    p.ContactJobTitle,
		ContactCountryCode: p.ContactCountryCode,
		ContactMobile:      p.ContactMobile,
		TermsAccepted:      p.TermsAccepted,
	}
}

func (BuyerContact) Kind() StepKind { return StepContactPerson }
func (BuyerContact) Flow() Flow     { return FlowBuyer }
func (BuyerContact) Step() int      { return 2 }

func (c BuyerContact) Apply(p *Profile) {
	applyContact(p, c.ContactFullName, c.ContactEmail, c.ContactJobTitle, c.ContactCountryCode, c.ContactMobile, c.TermsAccepted)
}

type SellerContact struct {
	ContactFullName    string `json:"contactFullName" yaml:"contactFullName" validate:"required"`
	ContactEmail       string `json:"contactEmail" yaml:"contactEmail" validate:"required,email"`
	ContactJobTitle    string `json:"contactJobTitle,omitempty" yaml:"contactJobTitle"`
	ContactCountryCode string `json:"contactCountryCode,omitempty" yaml:"contactCountryCode"`
	ContactMobile      string `json:"contactMobile" yaml:"contactMobile" validate:"required"`
	TermsAccepted      bool   `json:"termsAccepted" yaml:"termsAccepted" validate:"required"`
}

func NewSellerContact(p Profile) SellerContact {
	return SellerContact{
		ContactFullName:    p.ContactFullName,
		ContactEmail:       p.ContactEmail,
		ContactJobTitle:    p.ContactJobTitle,
		ContactCountryCode: p.ContactCountryCode,
		ContactMobile:      p.ContactMobile,
		TermsAccepted:      p.TermsAccepted,
	}
}

func (SellerContact) Kind() StepKind { return StepContactPerson }
func (SellerContact) Flow() Flow     { return FlowSeller }
func (SellerContact) Step() int      { return 2 }

func (c SellerContact) Apply(p *Profile) {
	applyContact(p, c.ContactFullName, c.ContactEmail, c.ContactJobTitle, c.ContactCountryCode, c.ContactMobile, c.TermsAccepted)
}

func applyContact(p *Profile, name, email, title, countryCode, mobile string, terms bool) {
	p.ContactFullName = strings.TrimSpace(name)
	p.ContactEmail = strings.TrimSpace(email)
	p.ContactJobTitle = title
	if mobile != "" {
		phone := NormalizePhone(mobile, countryCode)
		p.ContactCountryCode = phone.CountryCode
		p.ContactMobile = phone.Number
	} else {
		p.ContactCountryCode = ""
		p.ContactMobile = ""
	}
	p.TermsAccepted = terms
}

type BuyerDeclaration struct {
	EndUserType          string   `json:"endUserType" yaml:"endUserType" validate:"required"`
	EndUseCountries      []string `json:"endUseCountries" yaml:"endUseCountries" validate:"required,min=1,dive,len=2"`
	EndUseDescription    string   `json:"endUseDescription" yaml:"endUseDescription" validate:"required"`
	EndUseCertificateURL string   `json:"endUseCertificate,omitempty" yaml:"endUseCertificate"`
	DeclarationAccepted  bool     `json:"declarationAccepted" yaml:"declarationAccepted" validate:"required"`
}

func NewBuyerDeclaration(p Profile) BuyerDeclaration {
	return BuyerDeclaration{
		EndUserType:          p.EndUserType,
		EndUseCountries:      cloneStrings(p.EndUseCountries),
		EndUseDescription:    p.EndUseDescription,
		EndUseCertificateURL: p.EndUseCertificateURL,
		DeclarationAccepted:  p.DeclarationAccepted,
	}
}

func (BuyerDeclaration) Kind() StepKind { return StepDeclaration }
func (BuyerDeclaration) Flow() Flow     { return FlowBuyer }
func (BuyerDeclaration) Step() int      { return 3 }

func (d BuyerDeclaration) ScreenedCountries() []string { return d.EndUseCountries }

func (d BuyerDeclaration) Apply(p *Profile) {
	p.EndUserType = d.EndUserType
	p.EndUseCountries = upperAll(d.EndUseCountries)
	p.EndUseDescription = d.EndUseDescription
	p.EndUseCertificateURL = d.EndUseCertificateURL
	p.DeclarationAccepted = d.DeclarationAccepted
}

type AccountSetup struct {
	Categories           []string `json:"categories" yaml:"categories" validate:"required,min=1,dive,required"`
	PreferredCurrency    string   `json:"preferredCurrency" yaml:"preferredCurrency" validate:"required,len=3"`
	NotifyOrderUpdates   bool     `json:"notifyOrderUpdates" yaml:"notifyOrderUpdates"`
	NotifyComplianceNews bool     `json:"notifyComplianceNews" yaml:"notifyComplianceNews"`
}

func NewAccountSetup(p Profile) AccountSetup {
	return AccountSetup{
		Categories:           cloneStrings(p.Categories),
		PreferredCurrency:    p.PreferredCurrency,
		NotifyOrderUpdates:   p.NotifyOrderUpdates,
		NotifyComplianceNews: p.NotifyComplianceNews,
	}
}

func (AccountSetup) Kind() StepKind { return StepAccountSetup }
func (AccountSetup) Flow() Flow     { return FlowBuyer }
func (AccountSetup) Step() int      { return 4 }

func (a AccountSetup) Apply(p *Profile) {
	p.Categories = cloneStrings(a.Categories)
	p.PreferredCurrency = strings.ToUpper(a.PreferredCurrency)
	p.NotifyOrderUpdates = a.NotifyOrderUpdates
	p.NotifyComplianceNews = a.NotifyComplianceNews
}

type SellerInformation struct {
	CompanyName        string   `json:"companyName" yaml:"companyName" validate:"required"`
	Country            string   `json:"country" yaml:"country" validate:"required,len=2"`
	City               string   `json:"city,omitempty" yaml:"city"`
	Address            string   `json:"address,omitempty" yaml:"address"`
	TaxID              string   `json:"taxId" yaml:"taxId" validate:"required"`
	RegistrationNumber string   `json:"registrationNumber" yaml:"registrationNumber" validate:"required"`
	Categories         []string `json:"categories" yaml:"categories" validate:"required,min=1,dive,required"`
	BusinessLicenseURL string   `json:"businessLicense" yaml:"businessLicense" validate:"required"`
}

func NewSellerInformation(p Profile) SellerInformation {
	return SellerInformation{
		CompanyName:        p.CompanyName,
		Country:            p.Country,
		City:               p.City,
		Address:            p.Address,
		TaxID:              p.TaxID,
		RegistrationNumber: p.RegistrationNumber,
		Categories:         cloneStrings(p.Categories),
		BusinessLicenseURL: p.BusinessLicenseURL,
	}
}

func (SellerInformation) Kind() StepKind { return StepSellerInformation }
func (SellerInformation) Flow() Flow     { return FlowSeller }
func (SellerInformation) Step() int      { return 1 }

func (s SellerInformation) Apply(p *Profile) {
	p.CompanyName = strings.TrimSpace(s.CompanyName)
	p.Country = strings.ToUpper(s.Country)
	p.City = s.City
	p.Address = s.Address
	p.TaxID = strings.TrimSpace(s.TaxID)
	p.RegistrationNumber = strings.TrimSpace(s.RegistrationNumber)
	p.Categories = cloneStrings(s.Categories)
	p.BusinessLicenseURL = s.BusinessLicenseURL
}

type SellerDeclaration struct {
	LicenseTypes       []string `json:"licenseTypes" yaml:"licenseTypes" validate:"required,min=1,dive,required"`
	EndUseCountries    []string `json:"endUseCountries" yaml:"endUseCountries" validate:"required,min=1,dive,len=2"`
	EndUseDescription  string   `json:"endUseDescription,omitempty" yaml:"endUseDescription"`
	ExportLicenseURL   string   `json:"exportLicense" yaml:"exportLicense" validate:"required"`
	ComplianceAccepted bool     `json:"complianceAccepted" yaml:"complianceAccepted" validate:"required"`
}

func NewSellerDeclaration(p Profile) SellerDeclaration {
	return SellerDeclaration{
		LicenseTypes:       cloneStrings(p.LicenseTypes),
		EndUseCountries:    cloneStrings(p.EndUseCountries),
		EndUseDescription:  p.EndUseDescription,
		ExportLicenseURL:   p.ExportLicenseURL,
		ComplianceAccepted: p.ComplianceAccepted,
	}
}

func (SellerDeclaration) Kind() StepKind { return StepDeclaration }
func (SellerDeclaration) Flow() Flow     { return FlowSeller }
func (SellerDeclaration) Step() int      { return 3 }

func (d SellerDeclaration) ScreenedCountries() []string { return d.EndUseCountries }

func (d SellerDeclaration) Apply(p *Profile) {
	p.LicenseTypes = cloneStrings(d.LicenseTypes)
	p.EndUseCountries = upperAll(d.EndUseCountries)
	p.EndUseDescription = d.EndUseDescription
	p.ExportLicenseURL = d.ExportLicenseURL
	p.ComplianceAccepted = d.ComplianceAccepted
}

type AccountPreferences struct {
	StoreName         string   `json:"storeName" yaml:"storeName" validate:"required,max=80"`
	PreferredCurrency string   `json:"preferredCurrency" yaml:"preferredCurrency" validate:"required,len=3"`
	ShippingRegions   []string `json:"shippingRegions" yaml:"shippingRegions" validate:"required,min=1,dive,required"`
	ReturnPolicy      string   `json:"returnPolicy,omitempty" yaml:"returnPolicy"`
}

func NewAccountPreferences(p Profile) AccountPreferences {
	return AccountPreferences{
		StoreName:         p.StoreName,
		PreferredCurrency: p.PreferredCurrency,
		ShippingRegions:   cloneStrings(p.ShippingRegions),
		ReturnPolicy:      p.ReturnPolicy,
	}
}

func (AccountPreferences) Kind() StepKind { return StepAccountPreferences }
func (AccountPreferences) Flow() Flow     { return FlowSeller }
func (AccountPreferences) Step() int      { return 4 }

func (a AccountPreferences) Apply(p *Profile) {
	p.StoreName = strings.TrimSpace(a.StoreName)
	p.PreferredCurrency = strings.ToUpper(a.PreferredCurrency)
	p.ShippingRegions = cloneStrings(a.ShippingRegions)
	p.ReturnPolicy = a.ReturnPolicy
}

// NewPayload returns a pointer to an empty payload for the flow/step, ready for decoding.
func NewPayload(flow Flow, step int) (StepPayload, error) {
	switch {
	case flow == FlowBuyer && step == 1:
		return &BuyerInfo{}, nil
	case flow == FlowBuyer && step == 2:
		return &BuyerContact{}, nil
	case flow == FlowBuyer && step == 3:
		return &BuyerDeclaration{}, nil
	case flow == FlowBuyer && step == 4:
		return &AccountSetup{}, nil
	case flow == FlowSeller && step == 1:
		return &SellerInformation{}, nil
	case flow == FlowSeller && step == 2:
		return &SellerContact{}, nil
	case flow == FlowSeller && step == 3:
		return &SellerDeclaration{}, nil
	case flow == FlowSeller && step == 4:
		return &AccountPreferences{}, nil
	default:
		return nil, fmt.Errorf("%w: no payload for %s step %d", ErrStepOutOfRange, flow, step)
	}
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return append([]string(nil), in...)
}

func upperAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, strings.ToUpper(strings.TrimSpace(v)))
	}
	return out
}
