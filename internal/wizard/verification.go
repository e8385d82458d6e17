package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

// StateKey is the durable key holding the seller verification state.
const StateKey = "seller_verification_state"

const SubmitConfirmPrompt = "Once submitted, your verification details can no longer be edited. Continue?"

var ErrNotConfirmed = errors.New("verification submit not confirmed")

// Confirmer asks the user to approve an irreversible action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// AlwaysConfirm approves every prompt.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) bool { return true })

// VerificationMachine drives the seller verification step. The current state lives in
// memory and in the durable store; every transition is accepted by the backend first.
type VerificationMachine struct {
	backend VerificationBackend
	store   StateStore
	confirm Confirmer
	logger  *logging.Logger

	mu       sync.Mutex
	state    verification.State
	snapshot *verification.Snapshot
	err      string
}

func NewVerificationMachine(backend VerificationBackend, store StateStore, confirm Confirmer, logger *logging.Logger) *VerificationMachine {
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &VerificationMachine{
		backend: backend,
		store:   store,
		confirm: confirm,
		logger:  logger.Named("wizard.verification"),
		state:   verification.InitialState,
	}
}

// Restore loads the persisted state. A missing key starts at payment-method; an unknown
// value also starts there and is overwritten.
func (m *VerificationMachine) Restore(ctx context.Context) (verification.State, error) {
	raw, ok, err := m.store.Get(ctx, StateKey)
	if err != nil {
		return "", fmt.Errorf("read verification state: %w", err)
	}

	state := verification.InitialState
	if ok {
		var reset bool
		state, reset = verification.Recover(raw)
		if reset {
			m.logger.WarnContext(ctx, "discarding unknown verification state", "stored", raw)
			if err := m.store.Set(ctx, StateKey, verification.Encode(state)); err != nil {
				return "", fmt.Errorf("reset verification state: %w", err)
			}
		}
	}

	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
	return state, nil
}

func (m *VerificationMachine) State() verification.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot is the last record returned by the backend, if any.
func (m *VerificationMachine) Snapshot() (verification.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return verification.Snapshot{}, false
	}
	return *m.snapshot, true
}

func (m *VerificationMachine) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Sync fetches the server record without changing the local state.
func (m *VerificationMachine) Sync(ctx context.Context) (verification.Snapshot, error) {
	snap, err := m.backend.GetVerification(ctx)
	if err != nil {
		return verification.Snapshot{}, err
	}
	m.mu.Lock()
	m.snapshot = &snap
	m.mu.Unlock()
	return snap, nil
}

func (m *VerificationMachine) Continue(ctx context.Context, data verification.Data) (verification.State, error) {
	return m.transition(ctx, verification.EventContinue, data)
}

func (m *VerificationMachine) Back(ctx context.Context) (verification.State, error) {
	return m.transition(ctx, verification.EventBack, verification.Data{})
}

// Submit asks for confirmation, uploads the identity document when one is given and
// moves to approval-pending.
func (m *VerificationMachine) Submit(ctx context.Context, data verification.Data, identity *document.File) (verification.State, error) {
	if _, err := verification.Next(m.State(), verification.EventSubmit); err != nil {
		return m.fail(ctx, err)
	}
	if !m.confirm.Confirm(ctx, SubmitConfirmPrompt) {
		return m.State(), ErrNotConfirmed
	}

	if identity != nil {
		urls, err := m.backend.UploadFiles(ctx, onboarding.LabelIdentityDocument, map[string]any{"flow": onboarding.FlowSeller, "step": onboarding.FinalStep}, []document.File{*identity})
		if err != nil {
			return m.fail(ctx, err)
		}
		if len(urls) == 0 {
			return m.fail(ctx, fmt.Errorf("upload %s returned no url", identity.Name))
		}
		data.IdentityDocumentURL = urls[0]
	}
	return m.transition(ctx, verification.EventSubmit, data)
}

// Edit reopens a submitted verification. The stored key is cleared and the machine starts
// again from payment-method.
func (m *VerificationMachine) Edit(ctx context.Context) (verification.State, error) {
	if _, err := verification.Next(m.State(), verification.EventEdit); err != nil {
		return m.fail(ctx, err)
	}
	snap, err := m.backend.TransitionVerification(ctx, verification.EventEdit, verification.Data{})
	if err != nil {
		return m.fail(ctx, err)
	}
	if err := m.store.Delete(ctx, StateKey); err != nil {
		return m.fail(ctx, fmt.Errorf("clear verification state: %w", err))
	}

	m.mu.Lock()
	m.snapshot = &snap
	m.err = ""
	m.mu.Unlock()
	return m.Restore(ctx)
}

func (m *VerificationMachine) transition(ctx context.Context, event verification.Event, data verification.Data) (verification.State, error) {
	from := m.State()
	to, err := verification.Next(from, event)
	if err != nil {
		return m.fail(ctx, err)
	}

	snap, err := m.backend.TransitionVerification(ctx, event, data)
	if err != nil {
		return m.fail(ctx, err)
	}
	if snap.State.Valid() && snap.State != to {
		m.logger.InfoContext(ctx, "backend moved verification elsewhere", "expected", to, "actual", snap.State)
		to = snap.State
	}

	if err := m.store.Set(ctx, StateKey, verification.Encode(to)); err != nil {
		return m.fail(ctx, fmt.Errorf("persist verification state: %w", err))
	}

	m.mu.Lock()
	m.state = to
	m.snapshot = &snap
	m.err = ""
	m.mu.Unlock()
	m.logger.DebugContext(ctx, "verification transition", "event", event, "from", from, "to", to)
	return to, nil
}

func (m *VerificationMachine) fail(ctx context.Context, err error) (verification.State, error) {
	m.mu.Lock()
	m.err = ErrorMessage(err)
	state := m.state
	m.mu.Unlock()
	m.logger.WarnContext(ctx, "verification transition failed", "state", state, "error", err)
	return state, err
}

// FileFromReader is a small helper for callers that hold an open document.
func FileFromReader(name, contentType string, r io.Reader) *document.File {
	return &document.File{Name: name, ContentType: contentType, Content: r}
}
