package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
	verificationmock "github.com/riskibarqy/armory-onboarding/internal/mocks/domain/verification"
	"github.com/stretchr/testify/mock"
)

const testIBAN = "GB82 WEST 1234 5698 7654 32"

type enqueuedJob struct {
	path    string
	payload any
	delay   time.Duration
	dedupID string
}

type recordingJobQueue struct {
	jobs []enqueuedJob
	err  error
}

func (q *recordingJobQueue) Enqueue(_ context.Context, path string, payload any, delay time.Duration, dedupID string) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, enqueuedJob{path: path, payload: payload, delay: delay, dedupID: dedupID})
	return nil
}

type verificationFixture struct {
	onboarding   *OnboardingService
	verification *VerificationService
	records      *memory.VerificationRepository
	jobs         *recordingJobQueue
}

// newVerificationFixture returns a seller who finished the four form steps.
func newVerificationFixture(t *testing.T, jobs JobQueue, embargo ...string) verificationFixture {
	t.Helper()

	logger := logging.NewNop()
	onboardingSvc, _ := newTestOnboardingService(t, embargo...)
	records := memory.NewVerificationRepository()
	screening := NewScreeningService(NewStaticSanctionsList(embargo), 2, logger)
	svc := NewVerificationService(records, onboardingSvc, screening, jobs, VerificationServiceConfig{BankCheckDelay: time.Minute}, logger)
	svc.now = func() time.Time { return fixedNow }

	for i, payload := range sellerSteps() {
		if _, err := onboardingSvc.SubmitStep(context.Background(), sellerPrincipal, payload); err != nil {
			t.Fatalf("submit seller step %d: %v", i+1, err)
		}
	}

	fx := verificationFixture{onboarding: onboardingSvc, verification: svc, records: records}
	if q, ok := jobs.(*recordingJobQueue); ok {
		fx.jobs = q
	}
	return fx
}

func bankTransfer() verification.Data {
	return verification.Data{
		PaymentMethod: verification.PaymentMethodBankTransfer,
		AccountHolder: "Arsenal Trading Ltd",
		BankName:      "West Bank",
		IBAN:          testIBAN,
	}
}

func TestVerificationService_FullFlow(t *testing.T) {
	queue := &recordingJobQueue{}
	fx := newVerificationFixture(t, queue)
	ctx := context.Background()

	rec, err := fx.verification.Transition(ctx, sellerPrincipal, TransitionInput{Event: verification.EventContinue, Data: bankTransfer()})
	if err != nil {
		t.Fatalf("continue from payment-method: %v", err)
	}
	if rec.State != verification.StateBankPending || rec.BankStatus != verification.BankStatusPending {
		t.Fatalf("unexpected record: state=%s bank=%s", rec.State, rec.BankStatus)
	}
	if len(queue.jobs) != 1 || queue.jobs[0].path != BankVerificationJobPath || queue.jobs[0].delay != time.Minute {
		t.Fatalf("unexpected jobs: %+v", queue.jobs)
	}
	if queue.jobs[0].dedupID != "bank-verification:seller-1:GB82WEST12345698765432" {
		t.Fatalf("unexpected dedup id: %s", queue.jobs[0].dedupID)
	}

	if _, err := fx.verification.Transition(ctx, sellerPrincipal, TransitionInput{Event: verification.EventContinue}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected pending bank check to block continue, got %v", err)
	}

	job := queue.jobs[0].payload.(BankVerificationJob)
	rec, err = fx.verification.CompleteBankCheck(ctx, job)
	if err != nil {
		t.Fatalf("complete bank check: %v", err)
	}
	if rec.BankStatus != verification.BankStatusVerified {
		t.Fatalf("expected verified bank, got %s", rec.BankStatus)
	}

	steps := []TransitionInput{
		{Event: verification.EventContinue},
		{Event: verification.EventContinue, Data: verification.Data{BillingAddress: "1 Dock Road, London", PayoutCurrency: "gbp"}},
		{Event: verification.EventSubmit, Data: verification.Data{IdentityDocumentURL: "https://files.example.com/passport.pdf"}},
	}
	want := []verification.State{verification.StatePaymentInfo, verification.StateIdentity, verification.StateApprovalPending}
	for i, in := range steps {
		rec, err = fx.verification.Transition(ctx, sellerPrincipal, in)
		if err != nil {
			t.Fatalf("transition %d (%s): %v", i, in.Event, err)
		}
		if rec.State != want[i] {
			t.Fatalf("transition %d: got %s want %s", i, rec.State, want[i])
		}
	}
	if rec.PayoutCurrency != "GBP" || rec.SubmittedAt == nil {
		t.Fatalf("unexpected submitted record: %+v", rec)
	}

	profile, err := fx.onboarding.GetProfile(ctx, sellerPrincipal)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if !profile.Complete() {
		t.Fatalf("expected identity submission to complete onboarding")
	}
}

func TestVerificationService_EditReopensAndRejectionBlocksEdit(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	for _, in := range []TransitionInput{
		{Event: verification.EventContinue, Data: verification.Data{PaymentMethod: verification.PaymentMethodCard, AccountHolder: "Sam Reed"}},
		{Event: verification.EventContinue},
		{Event: verification.EventContinue, Data: verification.Data{BillingAddress: "1 Dock Road", PayoutCurrency: "GBP"}},
		{Event: verification.EventSubmit, Data: verification.Data{IdentityDocumentURL: "https://files.example.com/id.pdf"}},
	} {
		if _, err := fx.verification.Transition(ctx, sellerPrincipal, in); err != nil {
			t.Fatalf("transition %s: %v", in.Event, err)
		}
	}

	rec, err := fx.verification.Transition(ctx, sellerPrincipal, TransitionInput{Event: verification.EventEdit})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if rec.State != verification.StatePaymentMethod || rec.PaymentMethod != "" || rec.SubmittedAt != nil {
		t.Fatalf("expected cleared record at payment-method, got %+v", rec)
	}
	profile, _ := fx.onboarding.GetProfile(ctx, sellerPrincipal)
	if step, ok := profile.AllowedStep(); !ok || step != onboarding.FinalStep {
		t.Fatalf("expected edit to reopen step 5, got %d ok=%v", step, ok)
	}

	if _, err := fx.onboarding.Review(ctx, ReviewInput{UserID: sellerPrincipal.UserID, Status: onboarding.StatusRejected, Reason: "sanctioned owner"}); err != nil {
		t.Fatalf("review: %v", err)
	}
	stored, _, _ := fx.records.GetByUserID(ctx, sellerPrincipal.UserID)
	stored.State = verification.StateApprovalPending
	_ = fx.records.Upsert(ctx, stored)

	if _, err := fx.verification.Transition(ctx, sellerPrincipal, TransitionInput{Event: verification.EventEdit}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected edit after rejection to be forbidden, got %v", err)
	}
}

func TestVerificationService_InlineBankCheckAndFailure(t *testing.T) {
	fx := newVerificationFixture(t, nil, "GB:sectoral")
	ctx := context.Background()

	rec, err := fx.verification.Transition(ctx, sellerPrincipal, TransitionInput{Event: verification.EventContinue, Data: bankTransfer()})
	if err != nil {
		t.Fatalf("continue: %v", err)
	}
	if rec.BankStatus != verification.BankStatusFailed {
		t.Fatalf("expected inline check to fail for restricted issuing country, got %s", rec.BankStatus)
	}
	if _, err := fx.verification.Transition(ctx, sellerPrincipal, TransitionInput{Event: verification.EventContinue}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected failed bank check to block continue, got %v", err)
	}

	rec, err = fx.verification.Transition(ctx, sellerPrincipal, TransitionInput{Event: verification.EventBack})
	if err != nil || rec.State != verification.StatePaymentMethod {
		t.Fatalf("expected back to payment-method, got %s err=%v", rec.State, err)
	}
}

func TestVerificationService_Guards(t *testing.T) {
	fx := newVerificationFixture(t, &recordingJobQueue{err: errors.New("qstash down")})
	ctx := context.Background()

	bad := bankTransfer()
	bad.IBAN = "GB00WEST12345698765432"
	if _, err := fx.verification.Transition(ctx, sellerPrincipal, TransitionInput{Event: verification.EventContinue, Data: bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid IBAN to be rejected, got %v", err)
	}
	if _, err := fx.verification.Transition(ctx, sellerPrincipal, TransitionInput{Event: verification.EventSubmit}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected submit from payment-method to conflict, got %v", err)
	}
	if _, err := fx.verification.Transition(ctx, sellerPrincipal, TransitionInput{Event: verification.EventContinue, Data: bankTransfer()}); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected queue failure to surface, got %v", err)
	}
	if _, err := fx.verification.Get(ctx, buyerPrincipal); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected buyers to be refused, got %v", err)
	}
}

func TestVerificationService_LockedBeforeFinalStep(t *testing.T) {
	onboardingSvc, _ := newTestOnboardingService(t)
	svc := NewVerificationService(memory.NewVerificationRepository(), onboardingSvc, nil, nil, VerificationServiceConfig{}, logging.NewNop())

	_, err := svc.Transition(context.Background(), sellerPrincipal, TransitionInput{Event: verification.EventContinue, Data: bankTransfer()})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected verification to be locked at step 1, got %v", err)
	}
}

func TestVerificationService_GetRecoversUnknownStateUsingMockery(t *testing.T) {
	t.Parallel()

	onboardingSvc, _ := newTestOnboardingService(t)
	if _, err := onboardingSvc.GetProfile(context.Background(), sellerPrincipal); err != nil {
		t.Fatalf("get profile: %v", err)
	}

	records := verificationmock.NewRepository(t)
	svc := NewVerificationService(records, onboardingSvc, nil, nil, VerificationServiceConfig{}, logging.NewNop())

	records.
		On("GetByUserID", mock.Anything, sellerPrincipal.UserID).
		Return(verification.Record{UserID: sellerPrincipal.UserID, State: verification.State("bank-account")}, true, nil).
		Once()

	got, err := svc.Get(context.Background(), sellerPrincipal)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != verification.StatePaymentMethod {
		t.Fatalf("expected unknown state to recover to payment-method, got %s", got.State)
	}
}

func TestVerificationService_CompleteBankCheckIgnoresStaleJob(t *testing.T) {
	queue := &recordingJobQueue{}
	fx := newVerificationFixture(t, queue)
	ctx := context.Background()

	if _, err := fx.verification.Transition(ctx, sellerPrincipal, TransitionInput{Event: verification.EventContinue, Data: bankTransfer()}); err != nil {
		t.Fatalf("continue: %v", err)
	}
	rec, err := fx.verification.CompleteBankCheck(ctx, BankVerificationJob{UserID: sellerPrincipal.UserID, IBAN: "DE89370400440532013000"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if rec.BankStatus != verification.BankStatusPending {
		t.Fatalf("expected stale job to leave status pending, got %s", rec.BankStatus)
	}
	if _, err := fx.verification.CompleteBankCheck(ctx, BankVerificationJob{UserID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
