package wizard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

func testDeps(backend *fakeBackend, next *int) StepDeps {
	return StepDeps{
		Submitter: backend,
		Uploader:  backend,
		Gate:      NewGate(backend, logging.NewNop()),
		Logger:    logging.NewNop(),
		OnNext:    func() { *next++ },
	}
}

func TestStep_PrefillAppliesOnlyOnce(t *testing.T) {
	step := NewBuyerInfoStep(StepDeps{Logger: logging.NewNop()})

	step.Prefill(nil)
	step.Prefill(&onboarding.Profile{CompanyName: "Falcon"})
	step.Edit(func(f *onboarding.BuyerInfo) { f.CompanyName = "Falcon Procurement" })
	step.Prefill(&onboarding.Profile{CompanyName: "Someone Else"})

	assert.Equal(t, "Falcon Procurement", step.Form().CompanyName)
}

func TestStep_ValidationFailureMakesNoCalls(t *testing.T) {
	backend := &fakeBackend{}
	var next int
	step := NewBuyerContactStep(testDeps(backend, &next))
	step.Edit(func(f *onboarding.BuyerContact) { f.TermsAccepted = true })

	err := step.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, onboarding.ErrValidation))
	assert.Equal(t, "contactFullName is required", step.Err())
	assert.Empty(t, backend.calls)
	assert.Zero(t, next)
}

func TestStep_UncheckedTermsMakesNoCalls(t *testing.T) {
	backend := &fakeBackend{}
	var next int
	step := NewBuyerContactStep(testDeps(backend, &next))
	step.Edit(func(f *onboarding.BuyerContact) { f.ContactFullName = "Layla Haddad" })

	err := step.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, onboarding.ErrValidation))
	assert.Equal(t, "termsAccepted must be accepted", step.Err())
	assert.Empty(t, backend.calls)
	assert.Zero(t, next)
}

func TestStep_PrefilledAttachmentSubmitsWithoutUpload(t *testing.T) {
	backend := &fakeBackend{}
	var next int
	step := NewBuyerInfoStep(testDeps(backend, &next))
	step.Prefill(&onboarding.Profile{
		CompanyName:        "Falcon",
		BuyerType:          "government-agency",
		ProcurementPurpose: "national-defense",
		Country:            "AE",
		TaxID:              "TRN-1",
		BusinessLicenseURL: "https://files.example.com/old-license.pdf",
	})

	require.NoError(t, step.Submit(context.Background()))

	assert.Equal(t, []string{"submit", "profile"}, backend.calls)
	assert.Empty(t, backend.uploads)
	require.Len(t, backend.submitted, 1)
	sent := backend.submitted[0].payload.(onboarding.BuyerInfo)
	assert.Equal(t, "https://files.example.com/old-license.pdf", sent.BusinessLicenseURL)
	assert.Equal(t, 1, next)
}

func TestStep_UploadsBeforeSubmitting(t *testing.T) {
	backend := &fakeBackend{uploadURLs: []string{"https://files.example.com/license.pdf"}}
	var next int
	step := NewBuyerInfoStep(testDeps(backend, &next))
	step.Edit(func(f *onboarding.BuyerInfo) {
		*f = onboarding.BuyerInfo{
			CompanyName:        "Falcon",
			BuyerType:          "government-agency",
			ProcurementPurpose: "national-defense",
			Country:            "AE",
			TaxID:              "TRN-1",
		}
	})
	step.SetFile("license.pdf", "application/pdf", []byte("%PDF"))

	require.NoError(t, step.Submit(context.Background()))

	assert.Equal(t, []string{"upload", "submit", "profile"}, backend.calls)
	require.Len(t, backend.uploads, 1)
	assert.Equal(t, onboarding.LabelBusinessLicense, backend.uploads[0].label)
	assert.Equal(t, "%PDF", backend.uploads[0].content)

	require.Len(t, backend.submitted, 1)
	assert.Equal(t, "/onboarding/step0", backend.submitted[0].endpoint)
	sent := backend.submitted[0].payload.(onboarding.BuyerInfo)
	assert.Equal(t, "https://files.example.com/license.pdf", sent.BusinessLicenseURL)
	assert.Equal(t, 1, next)
	assert.Empty(t, step.Err())
}

func TestStep_UploadFailureAbortsSubmission(t *testing.T) {
	backend := &fakeBackend{uploadErr: apiError{msg: "File too large"}}
	var next int
	step := NewSellerDeclarationStep(testDeps(backend, &next))
	step.Edit(func(f *onboarding.SellerDeclaration) {
		*f = onboarding.SellerDeclaration{LicenseTypes: []string{"itar"}, EndUseCountries: []string{"GB"}, ComplianceAccepted: true}
	})
	step.SetFile("export.pdf", "application/pdf", []byte("x"))

	require.Error(t, step.Submit(context.Background()))
	assert.Equal(t, []string{"upload"}, backend.calls)
	assert.Equal(t, "File too large", step.Err())
	assert.Zero(t, next)
}

func TestStep_ServerErrorKeepsForm(t *testing.T) {
	backend := &fakeBackend{submitErr: apiError{msg: "Tax ID already registered"}}
	var next int
	step := NewAccountSetupStep(testDeps(backend, &next))
	step.Edit(func(f *onboarding.AccountSetup) {
		f.Categories = []string{"optics"}
		f.PreferredCurrency = "AED"
	})

	require.Error(t, step.Submit(context.Background()))
	assert.Equal(t, "Tax ID already registered", step.Err())
	assert.Equal(t, []string{"optics"}, step.Form().Categories)
	assert.False(t, step.Submitting())
	assert.Zero(t, next)
}

func TestStep_ContactPhoneIsNormalized(t *testing.T) {
	backend := &fakeBackend{}
	var next int
	step := NewSellerContactStep(testDeps(backend, &next))
	step.Edit(func(f *onboarding.SellerContact) {
		*f = onboarding.SellerContact{
			ContactFullName:    "Omar Khalid",
			ContactEmail:       "omar@arsenal.example",
			ContactCountryCode: "+971",
			ContactMobile:      "+971 0501234567",
			TermsAccepted:      true,
		}
	})

	require.NoError(t, step.Submit(context.Background()))
	sent := backend.submitted[0].payload.(onboarding.SellerContact)
	assert.Equal(t, "+971", sent.ContactCountryCode)
	assert.Equal(t, "501234567", sent.ContactMobile)
	assert.Equal(t, "/onboarding/step2", backend.submitted[0].endpoint)
}

func TestStep_ContactPhoneSurvivesResubmission(t *testing.T) {
	backend := &fakeBackend{}
	var next int
	first := NewSellerContactStep(testDeps(backend, &next))
	first.Edit(func(f *onboarding.SellerContact) {
		*f = onboarding.SellerContact{
			ContactFullName:    "Arjun Mehta",
			ContactEmail:       "arjun@arsenal.example",
			ContactCountryCode: "+91",
			ContactMobile:      "+91 9123456789",
			TermsAccepted:      true,
		}
	})
	require.NoError(t, first.Submit(context.Background()))

	var profile onboarding.Profile
	backend.submitted[0].payload.(onboarding.SellerContact).Apply(&profile)
	require.Equal(t, "9123456789", profile.ContactMobile)

	second := NewSellerContactStep(testDeps(backend, &next))
	second.Prefill(&profile)
	require.NoError(t, second.Submit(context.Background()))

	require.Len(t, backend.submitted, 2)
	sent := backend.submitted[1].payload.(onboarding.SellerContact)
	assert.Equal(t, "+91", sent.ContactCountryCode)
	assert.Equal(t, "9123456789", sent.ContactMobile)
	sent.Apply(&profile)
	assert.Equal(t, "9123456789", profile.ContactMobile)
}

func TestStep_EditDuringSubmissionIsKept(t *testing.T) {
	backend := &fakeBackend{}
	var next int
	step := NewAccountSetupStep(testDeps(backend, &next))
	step.Edit(func(f *onboarding.AccountSetup) {
		f.Categories = []string{"optics"}
		f.PreferredCurrency = "AED"
	})
	backend.onSubmit = func() {
		step.Edit(func(f *onboarding.AccountSetup) { f.PreferredCurrency = "USD" })
	}

	require.NoError(t, step.Submit(context.Background()))

	sent := backend.submitted[0].payload.(onboarding.AccountSetup)
	assert.Equal(t, "AED", sent.PreferredCurrency)
	assert.Equal(t, "USD", step.Form().PreferredCurrency)
	assert.Equal(t, []string{"optics"}, step.Form().Categories)
}

func TestStep_ApplyYAMLMergesOverPrefill(t *testing.T) {
	step := NewAccountPreferencesStep(StepDeps{Logger: logging.NewNop()})
	step.Prefill(&onboarding.Profile{StoreName: "Arsenal", PreferredCurrency: "GBP"})

	require.NoError(t, step.ApplyYAML([]byte("shippingRegions: [EU, GCC]\npreferredCurrency: EUR\n")))

	form := step.Form()
	assert.Equal(t, "Arsenal", form.StoreName)
	assert.Equal(t, "EUR", form.PreferredCurrency)
	assert.Equal(t, []string{"EU", "GCC"}, form.ShippingRegions)
}

func TestStep_SelectFileRejectsMissingAndDirectories(t *testing.T) {
	step := NewBuyerDeclarationStep(StepDeps{Logger: logging.NewNop()})
	dir := t.TempDir()

	assert.Error(t, step.SelectFile(filepath.Join(dir, "nope.pdf")))
	assert.Error(t, step.SelectFile(dir))

	path := filepath.Join(dir, "cert.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))
	assert.NoError(t, step.SelectFile(path))
	assert.Equal(t, onboarding.LabelEndUseCertificate, step.AttachmentLabel())

	assert.Error(t, NewAccountSetupStep(StepDeps{}).SelectFile(path))
}

func TestNewComponent_MapsFlowSteps(t *testing.T) {
	cases := []struct {
		flow onboarding.Flow
		step int
		kind onboarding.StepKind
	}{
		{onboarding.FlowBuyer, 1, onboarding.StepBuyerInfo},
		{onboarding.FlowBuyer, 4, onboarding.StepAccountSetup},
		{onboarding.FlowSeller, 1, onboarding.StepSellerInformation},
		{onboarding.FlowSeller, 3, onboarding.StepDeclaration},
	}
	for _, tc := range cases {
		c, err := NewComponent(tc.flow, tc.step, StepDeps{})
		require.NoError(t, err)
		assert.Equal(t, tc.kind, c.Kind())
		assert.Equal(t, tc.step, c.Number())
	}

	_, err := NewComponent(onboarding.FlowBuyer, 5, StepDeps{})
	assert.ErrorIs(t, err, ErrNoForm)
	_, err = NewComponent(onboarding.FlowBuyer, 7, StepDeps{})
	assert.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", ErrorMessage(nil))
	assert.Equal(t, "Rejected by compliance", ErrorMessage(apiError{msg: "Rejected by compliance"}))
	assert.Equal(t, "storefront: status 422", ErrorMessage(apiError{}))
	assert.Equal(t, GenericErrorMessage, ErrorMessage(errors.New(" ")))
}
