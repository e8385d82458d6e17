package wizard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

var ErrSubmitInProgress = errors.New("submission already in progress")

// uploadPlaceholder stands in for an attachment URL during validation while the file is
// still waiting to be uploaded.
const uploadPlaceholder = "pending-upload"

type StepDeps struct {
	Submitter StepSubmitter
	Uploader  Uploader
	Gate      *Gate
	Logger    *logging.Logger
	OnNext    func()
	OnPrev    func()
}

// Component is the flow-independent view of a step form.
type Component interface {
	Flow() onboarding.Flow
	Number() int
	Kind() onboarding.StepKind
	Prefill(profile *onboarding.Profile)
	ApplyYAML(raw []byte) error
	AttachmentLabel() string
	SelectFile(path string) error
	SetFile(name, contentType string, content []byte)
	Payload() onboarding.StepPayload
	Submit(ctx context.Context) error
	Prev()
	Err() string
	Submitting() bool
}

type attachment[P any] struct {
	label string
	field func(*P) *string
}

type pendingFile struct {
	name        string
	contentType string
	open        func() (io.ReadCloser, error)
}

// Step is one form of the wizard. It owns its form state; the shared profile is only read
// for the one-time pre-fill.
type Step[P onboarding.StepPayload] struct {
	flow     onboarding.Flow
	number   int
	kind     onboarding.StepKind
	endpoint string

	deps        StepDeps
	logger      *logging.Logger
	fromProfile func(onboarding.Profile) P
	attach      *attachment[P]
	normalize   func(*P)

	mu        sync.Mutex
	form      P
	prefilled bool
	// revision counts caller edits; a submission only writes its normalized form back when
	// nothing was edited while it was in flight.
	revision   uint64
	file       *pendingFile
	submitting bool
	err        string
}

func newStep[P onboarding.StepPayload](deps StepDeps, fromProfile func(onboarding.Profile) P, attach *attachment[P], normalize func(*P)) *Step[P] {
	var zero P
	endpoint, _ := zero.Flow().Endpoint(zero.Step())
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Step[P]{
		flow:        zero.Flow(),
		number:      zero.Step(),
		kind:        zero.Kind(),
		endpoint:    endpoint,
		deps:        deps,
		logger:      logger.Named("wizard.step"),
		fromProfile: fromProfile,
		attach:      attach,
		normalize:   normalize,
	}
}

func (s *Step[P]) Flow() onboarding.Flow     { return s.flow }
func (s *Step[P]) Number() int               { return s.number }
func (s *Step[P]) Kind() onboarding.StepKind { return s.kind }
func (s *Step[P]) Endpoint() string          { return s.endpoint }

// Prefill copies the profile into the form the first time a profile is available.
// Later calls are ignored so edits made since then survive.
func (s *Step[P]) Prefill(profile *onboarding.Profile) {
	if profile == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefilled {
		return
	}
	s.form = s.fromProfile(*profile)
	s.prefilled = true
	s.revision++
}

func (s *Step[P]) Edit(fn func(form *P)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.form)
	s.revision++
}

func (s *Step[P]) Form() P {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Step[P]) Payload() onboarding.StepPayload {
	return s.Form()
}

// ApplyYAML decodes raw over the current form; keys that are absent keep their values.
func (s *Step[P]) ApplyYAML(raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	form := s.form
	if err := yaml.Unmarshal(raw, &form); err != nil {
		return fmt.Errorf("decode %s form: %w", s.kind, err)
	}
	s.form = form
	s.revision++
	return nil
}

func (s *Step[P]) AttachmentLabel() string {
	if s.attach == nil {
		return ""
	}
	return s.attach.label
}

// SelectFile stages a local file for upload on the next Submit.
func (s *Step[P]) SelectFile(path string) error {
	if s.attach == nil {
		return fmt.Errorf("%s step takes no file", s.kind)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("select file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("select file: %s is a directory", path)
	}
	contentType, err := detectContentType(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.file = &pendingFile{
		name:        filepath.Base(path),
		contentType: contentType,
		open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}
	s.mu.Unlock()
	return nil
}

func (s *Step[P]) SetFile(name, contentType string, content []byte) {
	raw := append([]byte(nil), content...)
	s.mu.Lock()
	s.file = &pendingFile{
		name:        name,
		contentType: contentType,
		open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(raw)), nil },
	}
	s.mu.Unlock()
}

func (s *Step[P]) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Step[P]) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *Step[P]) Prev() {
	if s.deps.OnPrev != nil {
		s.deps.OnPrev()
	}
}

// Submit validates the form, uploads a staged file, posts the payload, refreshes the
// session profile and moves on. Any failure leaves the form as it was and sets Err.
func (s *Step[P]) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return ErrSubmitInProgress
	}
	s.submitting = true
	form := s.form
	file := s.file
	revision := s.revision
	s.mu.Unlock()

	sent, err := s.submit(ctx, form, file)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.err = ErrorMessage(err)
	} else {
		s.err = ""
		if s.revision == revision {
			s.form = sent
		}
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.WarnContext(ctx, "step submission failed", "flow", s.flow, "step", s.number, "error", err)
		return err
	}

	if s.deps.Gate != nil {
		s.deps.Gate.RefreshProfile(ctx)
	}
	if s.deps.OnNext != nil {
		s.deps.OnNext()
	}
	return nil
}

// submit returns the payload as sent, after the upload URL and normalization were applied.
func (s *Step[P]) submit(ctx context.Context, form P, file *pendingFile) (P, error) {
	if err := s.validate(ctx, form, file != nil); err != nil {
		return form, err
	}

	if file != nil && s.attach != nil {
		url, err := s.upload(ctx, file)
		if err != nil {
			return form, err
		}
		*s.attach.field(&form) = url
		s.mu.Lock()
		*s.attach.field(&s.form) = url
		s.file = nil
		s.mu.Unlock()
	}

	if s.normalize != nil {
		s.normalize(&form)
	}
	if _, err := s.deps.Submitter.SubmitStep(ctx, s.endpoint, form); err != nil {
		return form, err
	}
	return form, nil
}

func (s *Step[P]) validate(ctx context.Context, form P, hasFile bool) error {
	if hasFile && s.attach != nil {
		if url := s.attach.field(&form); *url == "" {
			*url = uploadPlaceholder
		}
	}
	return onboarding.ValidatePayload(ctx, form)
}

func (s *Step[P]) upload(ctx context.Context, file *pendingFile) (string, error) {
	rc, err := file.open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", file.name, err)
	}
	defer rc.Close()

	urls, err := s.deps.Uploader.UploadFiles(ctx, s.attach.label, map[string]any{"flow": s.flow, "step": s.number}, []document.File{
		{Name: file.name, ContentType: file.contentType, Content: rc},
	})
	if err != nil {
		return "", err
	}
	if len(urls) == 0 || urls[0] == "" {
		return "", fmt.Errorf("upload %s returned no url", file.name)
	}
	return urls[0], nil
}

func detectContentType(path string) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("select file: %w", err)
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	return http.DetectContentType(head[:n]), nil
}
