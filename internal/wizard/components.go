package wizard

import (
	"fmt"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
)

func NewBuyerInfoStep(deps StepDeps) *Step[onboarding.BuyerInfo] {
	return newStep(deps, onboarding.NewBuyerInfo, &attachment[onboarding.BuyerInfo]{
		label: onboarding.LabelBusinessLicense,
		field: func(f *onboarding.BuyerInfo) *string { return &f.BusinessLicenseURL },
	}, nil)
}

func NewBuyerContactStep(deps StepDeps) *Step[onboarding.BuyerContact] {
	return newStep(deps, onboarding.NewBuyerContact, nil, func(f *onboarding.BuyerContact) {
		f.ContactCountryCode, f.ContactMobile = splitPhone(f.ContactMobile, f.ContactCountryCode)
	})
}

func NewBuyerDeclarationStep(deps StepDeps) *Step[onboarding.BuyerDeclaration] {
	return newStep(deps, onboarding.NewBuyerDeclaration, &attachment[onboarding.BuyerDeclaration]{
		label: onboarding.LabelEndUseCertificate,
		field: func(f *onboarding.BuyerDeclaration) *string { return &f.EndUseCertificateURL },
	}, nil)
}

func NewAccountSetupStep(deps StepDeps) *Step[onboarding.AccountSetup] {
	return newStep(deps, onboarding.NewAccountSetup, nil, nil)
}

func NewSellerInformationStep(deps StepDeps) *Step[onboarding.SellerInformation] {
	return newStep(deps, onboarding.NewSellerInformation, &attachment[onboarding.SellerInformation]{
		label: onboarding.LabelBusinessLicense,
		field: func(f *onboarding.SellerInformation) *string { return &f.BusinessLicenseURL },
	}, nil)
}

func NewSellerContactStep(deps StepDeps) *Step[onboarding.SellerContact] {
	return newStep(deps, onboarding.NewSellerContact, nil, func(f *onboarding.SellerContact) {
		f.ContactCountryCode, f.ContactMobile = splitPhone(f.ContactMobile, f.ContactCountryCode)
	})
}

func NewSellerDeclarationStep(deps StepDeps) *Step[onboarding.SellerDeclaration] {
	return newStep(deps, onboarding.NewSellerDeclaration, &attachment[onboarding.SellerDeclaration]{
		label: onboarding.LabelExportLicense,
		field: func(f *onboarding.SellerDeclaration) *string { return &f.ExportLicenseURL },
	}, nil)
}

func NewAccountPreferencesStep(deps StepDeps) *Step[onboarding.AccountPreferences] {
	return newStep(deps, onboarding.NewAccountPreferences, nil, nil)
}

// NewComponent builds the form for a step of a flow. Step 5 is not a form and returns
// ErrNoForm.
func NewComponent(flow onboarding.Flow, step int, deps StepDeps) (Component, error) {
	switch flow {
	case onboarding.FlowBuyer:
		switch step {
		case 1:
			return NewBuyerInfoStep(deps), nil
		case 2:
			return NewBuyerContactStep(deps), nil
		case 3:
			return NewBuyerDeclarationStep(deps), nil
		case 4:
			return NewAccountSetupStep(deps), nil
		}
	case onboarding.FlowSeller:
		switch step {
		case 1:
			return NewSellerInformationStep(deps), nil
		case 2:
			return NewSellerContactStep(deps), nil
		case 3:
			return NewSellerDeclarationStep(deps), nil
		case 4:
			return NewAccountPreferencesStep(deps), nil
		}
	default:
		return nil, fmt.Errorf("unknown flow %q", flow)
	}
	if step == onboarding.FinalStep {
		return nil, ErrNoForm
	}
	return nil, fmt.Errorf("%s flow has no step %d", flow, step)
}

func splitPhone(mobile, countryCode string) (string, string) {
	if mobile == "" {
		return countryCode, ""
	}
	phone := onboarding.NormalizePhone(mobile, countryCode)
	return phone.CountryCode, phone.Number
}
