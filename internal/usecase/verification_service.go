package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/user"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

const (
	BankVerificationJobPath      = "/internal/jobs/bank-verification"
	defaultBankVerificationDelay = 30 * time.Second
)

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

// BankVerificationJob is the body delivered to the bank verification callback.
type BankVerificationJob struct {
	UserID string `json:"userId"`
	IBAN   string `json:"iban"`
}

type VerificationServiceConfig struct {
	BankCheckDelay time.Duration
}

type VerificationService struct {
	records    verification.Repository
	onboarding *OnboardingService
	screening  *ScreeningService
	jobs       JobQueue
	cfg        VerificationServiceConfig
	logger     *logging.Logger
	now        func() time.Time
}

// NewVerificationService wires the seller verification flow. A nil job queue runs the
// bank check inline.
func NewVerificationService(
	records verification.Repository,
	onboardingSvc *OnboardingService,
	screening *ScreeningService,
	jobs JobQueue,
	cfg VerificationServiceConfig,
	logger *logging.Logger,
) *VerificationService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BankCheckDelay <= 0 {
		cfg.BankCheckDelay = defaultBankVerificationDelay
	}
	if screening == nil {
		screening = NewScreeningService(nil, 0, logger)
	}
	return &VerificationService{
		records:    records,
		onboarding: onboardingSvc,
		screening:  screening,
		jobs:       jobs,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *VerificationService) Get(ctx context.Context, principal user.Principal) (verification.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.VerificationService.Get")
	defer span.End()

	if _, err := s.sellerProfile(ctx, principal); err != nil {
		return verification.Record{}, err
	}
	return s.loadRecord(ctx, principal.UserID)
}

type TransitionInput struct {
	Event verification.Event
	Data  verification.Data
}

// Transition applies one event of the verification machine after checking the data the
// current state requires.
func (s *VerificationService) Transition(ctx context.Context, principal user.Principal, input TransitionInput) (verification.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.VerificationService.Transition")
	defer span.End()

	profile, err := s.sellerProfile(ctx, principal)
	if err != nil {
		return verification.Record{}, err
	}
	if step, ok := profile.AllowedStep(); ok && step < onboarding.FinalStep {
		return verification.Record{}, fmt.Errorf("%w: verification unlocks after step %d", ErrConflict, onboarding.FormSteps)
	}

	record, err := s.loadRecord(ctx, principal.UserID)
	if err != nil {
		return verification.Record{}, err
	}

	next, err := verification.Next(record.State, input.Event)
	if err != nil {
		if errors.Is(err, verification.ErrInvalidTransition) {
			return verification.Record{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return verification.Record{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now().UTC()
	switch {
	case input.Event == verification.EventEdit:
		if profile.Status == onboarding.StatusRejected {
			return verification.Record{}, fmt.Errorf("%w: verification cannot be edited after rejection", ErrForbidden)
		}
		record = verification.NewRecord(record.UserID, record.CreatedAt)
		reopen := onboarding.FinalStep
		if _, err := s.onboarding.SetStep(ctx, principal.UserID, &reopen); err != nil {
			return verification.Record{}, err
		}
	case input.Event == verification.EventBack:
	case record.State == verification.StatePaymentMethod:
		if err := s.acceptPaymentMethod(&record, input.Data); err != nil {
			return verification.Record{}, err
		}
	case record.State == verification.StateBankPending:
		switch record.BankStatus {
		case verification.BankStatusVerified:
		case verification.BankStatusFailed:
			return verification.Record{}, fmt.Errorf("%w: bank account could not be verified, go back and update the payment method", ErrConflict)
		default:
			return verification.Record{}, fmt.Errorf("%w: bank account verification is still pending", ErrConflict)
		}
	case record.State == verification.StatePaymentInfo:
		if err := acceptPaymentInfo(&record, input.Data); err != nil {
			return verification.Record{}, err
		}
	case record.State == verification.StateIdentity:
		url := strings.TrimSpace(input.Data.IdentityDocumentURL)
		if url == "" {
			return verification.Record{}, fmt.Errorf("%w: identityDocument is required", ErrInvalidInput)
		}
		record.IdentityDocumentURL = url
		record.IdentityDocumentNo = strings.TrimSpace(input.Data.IdentityDocumentNo)
		record.SubmittedAt = &now
	}

	if next == verification.StateBankPending && input.Event == verification.EventContinue {
		if err := s.scheduleBankCheck(ctx, &record); err != nil {
			return verification.Record{}, err
		}
	}

	record.State = next
	record.UpdatedAt = now
	if err := s.records.Upsert(ctx, record); err != nil {
		return verification.Record{}, fmt.Errorf("save verification: %w", err)
	}

	if input.Event == verification.EventSubmit {
		if _, err := s.onboarding.SetStep(ctx, principal.UserID, nil); err != nil {
			return verification.Record{}, err
		}
	}

	s.logger.InfoContext(ctx, "verification transition",
		"user_id", principal.UserID,
		"event", input.Event,
		"state", record.State,
		"bank_status", record.BankStatus,
	)
	return record, nil
}

// CompleteBankCheck resolves a pending bank check. The IBAN checksum and the country it
// was issued in decide the outcome. Stale callbacks for a replaced IBAN are ignored.
func (s *VerificationService) CompleteBankCheck(ctx context.Context, job BankVerificationJob) (verification.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.VerificationService.CompleteBankCheck")
	defer span.End()

	userID := strings.TrimSpace(job.UserID)
	if userID == "" {
		return verification.Record{}, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	record, exists, err := s.records.GetByUserID(ctx, userID)
	if err != nil {
		return verification.Record{}, fmt.Errorf("get verification: %w", err)
	}
	if !exists {
		return verification.Record{}, fmt.Errorf("%w: verification user=%s", ErrNotFound, userID)
	}
	if record.BankStatus != verification.BankStatusPending || record.IBAN != verification.NormalizeIBAN(job.IBAN) {
		s.logger.InfoContext(ctx, "bank check skipped", "user_id", userID, "bank_status", record.BankStatus)
		return record, nil
	}

	status, err := s.checkBank(ctx, record.IBAN)
	if err != nil {
		return verification.Record{}, err
	}
	record.BankStatus = status
	record.UpdatedAt = s.now().UTC()
	if err := s.records.Upsert(ctx, record); err != nil {
		return verification.Record{}, fmt.Errorf("save verification: %w", err)
	}
	s.logger.InfoContext(ctx, "bank check completed", "user_id", userID, "bank_status", status)
	return record, nil
}

func (s *VerificationService) sellerProfile(ctx context.Context, principal user.Principal) (onboarding.Profile, error) {
	profile, err := s.onboarding.GetProfile(ctx, principal)
	if err != nil {
		return onboarding.Profile{}, err
	}
	if profile.AccountType != onboarding.AccountTypeSeller {
		return onboarding.Profile{}, fmt.Errorf("%w: verification is only available to sellers", ErrForbidden)
	}
	return profile, nil
}

func (s *VerificationService) loadRecord(ctx context.Context, userID string) (verification.Record, error) {
	record, exists, err := s.records.GetByUserID(ctx, userID)
	if err != nil {
		return verification.Record{}, fmt.Errorf("get verification: %w", err)
	}
	if !exists {
		return verification.NewRecord(userID, s.now().UTC()), nil
	}
	if state, reset := verification.Recover(string(record.State)); reset {
		s.logger.WarnContext(ctx, "stored verification state reset", "user_id", userID, "state", record.State)
		record.State = state
	}
	return record, nil
}

func (s *VerificationService) acceptPaymentMethod(record *verification.Record, data verification.Data) error {
	switch data.PaymentMethod {
	case verification.PaymentMethodCard:
		record.PaymentMethod = data.PaymentMethod
		record.AccountHolder = strings.TrimSpace(data.AccountHolder)
		record.BankName, record.IBAN, record.SwiftCode = "", "", ""
		record.BankStatus = verification.BankStatusVerified
		return nil
	case verification.PaymentMethodBankTransfer:
	case "":
		return fmt.Errorf("%w: paymentMethod is required", ErrInvalidInput)
	default:
		return fmt.Errorf("%w: unknown paymentMethod %q", ErrInvalidInput, data.PaymentMethod)
	}

	holder := strings.TrimSpace(data.AccountHolder)
	if holder == "" {
		return fmt.Errorf("%w: accountHolder is required", ErrInvalidInput)
	}
	if err := verification.ValidateIBAN(data.IBAN); err != nil {
		return fmt.Errorf("%w: iban: %v", ErrInvalidInput, err)
	}

	record.PaymentMethod = data.PaymentMethod
	record.AccountHolder = holder
	record.BankName = strings.TrimSpace(data.BankName)
	record.IBAN = verification.NormalizeIBAN(data.IBAN)
	record.SwiftCode = strings.ToUpper(strings.TrimSpace(data.SwiftCode))
	record.BankStatus = verification.BankStatusPending
	return nil
}

func acceptPaymentInfo(record *verification.Record, data verification.Data) error {
	address := strings.TrimSpace(data.BillingAddress)
	if address == "" {
		return fmt.Errorf("%w: billingAddress is required", ErrInvalidInput)
	}
	currency := strings.ToUpper(strings.TrimSpace(data.PayoutCurrency))
	if len(currency) != 3 {
		return fmt.Errorf("%w: payoutCurrency must be 3 characters", ErrInvalidInput)
	}
	record.BillingAddress = address
	record.PayoutCurrency = currency
	return nil
}

// scheduleBankCheck queues the asynchronous bank check before the pending record is
// saved, or resolves it inline when no queue is configured.
func (s *VerificationService) scheduleBankCheck(ctx context.Context, record *verification.Record) error {
	if record.BankStatus != verification.BankStatusPending {
		return nil
	}

	if s.jobs == nil {
		status, err := s.checkBank(ctx, record.IBAN)
		if err != nil {
			return err
		}
		record.BankStatus = status
		return nil
	}

	job := BankVerificationJob{UserID: record.UserID, IBAN: record.IBAN}
	dedupID := "bank-verification:" + record.UserID + ":" + record.IBAN
	if err := s.jobs.Enqueue(ctx, BankVerificationJobPath, job, s.cfg.BankCheckDelay, dedupID); err != nil {
		return fmt.Errorf("%w: enqueue bank verification: %v", ErrDependencyUnavailable, err)
	}
	return nil
}

func (s *VerificationService) checkBank(ctx context.Context, iban string) (verification.BankStatus, error) {
	if err := verification.ValidateIBAN(iban); err != nil {
		return verification.BankStatusFailed, nil
	}
	result, err := s.screening.Screen(ctx, []string{iban[:2]})
	if err != nil {
		return "", err
	}
	if !result.Clean() {
		return verification.BankStatusFailed, nil
	}
	return verification.BankStatusVerified, nil
}
