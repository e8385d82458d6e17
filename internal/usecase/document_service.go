package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/platform/id"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

const (
	defaultMaxUploadBytes = 10 << 20
	defaultMaxUploadFiles = 5
)

var defaultAllowedContentTypes = []string{"application/pdf", "image/jpeg", "image/png"}

// FileStorage persists uploaded bytes under a generated name and returns the public URL.
type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (url string, size int64, err error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(name string) error
}

type DocumentServiceConfig struct {
	MaxFileBytes        int64
	MaxFiles            int
	AllowedContentTypes []string
}

type UploadFile struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type UploadInput struct {
	UserID string
	Label  string
	Meta   string
	Files  []UploadFile
}

type DocumentService struct {
	repo    document.Repository
	storage FileStorage
	ids     id.Generator
	cfg     DocumentServiceConfig
	allowed map[string]struct{}
	logger  *logging.Logger
	now     func() time.Time
}

func NewDocumentService(repo document.Repository, storage FileStorage, ids id.Generator, cfg DocumentServiceConfig, logger *logging.Logger) *DocumentService {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = defaultMaxUploadBytes
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = defaultMaxUploadFiles
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = defaultAllowedContentTypes
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedContentTypes))
	for _, ct := range cfg.AllowedContentTypes {
		allowed[strings.ToLower(strings.TrimSpace(ct))] = struct{}{}
	}

	return &DocumentService{
		repo:    repo,
		storage: storage,
		ids:     ids,
		cfg:     cfg,
		allowed: allowed,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *DocumentService) MaxFileBytes() int64 {
	return s.cfg.MaxFileBytes
}

// Upload stores every file and records one metadata row per file. All files are checked
// before any is written.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) ([]document.Document, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DocumentService.Upload")
	defer span.End()

	if strings.TrimSpace(input.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	label := strings.TrimSpace(input.Label)
	if !knownLabel(label) {
		return nil, fmt.Errorf("%w: unknown label %q", ErrInvalidInput, input.Label)
	}
	if len(input.Files) == 0 {
		return nil, fmt.Errorf("%w: at least one file is required", ErrInvalidInput)
	}
	if len(input.Files) > s.cfg.MaxFiles {
		return nil, fmt.Errorf("%w: at most %d files per upload", ErrInvalidInput, s.cfg.MaxFiles)
	}
	for _, f := range input.Files {
		if err := s.checkFile(f); err != nil {
			return nil, err
		}
	}

	docs := make([]document.Document, 0, len(input.Files))
	for _, f := range input.Files {
		docID, err := s.ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate document id: %w", err)
		}
		stored := docID + strings.ToLower(filepath.Ext(f.FileName))

		url, size, err := s.storage.Save(ctx, stored, io.LimitReader(f.Content, s.cfg.MaxFileBytes+1))
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", f.FileName, err)
		}
		if size > s.cfg.MaxFileBytes {
			s.discard(ctx, stored)
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidInput, f.FileName, s.cfg.MaxFileBytes)
		}

		doc := document.Document{
			ID:          docID,
			UserID:      input.UserID,
			Label:       label,
			FileName:    filepath.Base(f.FileName),
			StoredName:  stored,
			ContentType: normalizeContentType(f.ContentType),
			Size:        size,
			URL:         url,
			Meta:        input.Meta,
			CreatedAt:   s.now().UTC(),
		}
		if err := s.repo.Create(ctx, doc); err != nil {
			s.discard(ctx, stored)
			return nil, fmt.Errorf("save document: %w", err)
		}
		docs = append(docs, doc)
	}

	s.logger.InfoContext(ctx, "documents uploaded", "user_id", input.UserID, "label", label, "count", len(docs))
	return docs, nil
}

// Open streams a stored file back to the user who uploaded it. Files of other users are
// reported as not found.
func (s *DocumentService) Open(ctx context.Context, userID, name string) (io.ReadCloser, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DocumentService.Open")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: file %q", ErrNotFound, name)
	}

	docs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	owned := slices.ContainsFunc(docs, func(d document.Document) bool { return d.StoredName == name })
	if !owned {
		s.logger.WarnContext(ctx, "file requested by non-owner", "user_id", userID, "file", name)
		return nil, fmt.Errorf("%w: file %q", ErrNotFound, name)
	}
	return s.storage.Open(ctx, name)
}

func (s *DocumentService) ListByUser(ctx context.Context, userID string) ([]document.Document, error) {
	docs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *DocumentService) discard(ctx context.Context, stored string) {
	if err := s.storage.Remove(stored); err != nil {
		s.logger.WarnContext(ctx, "discard stored file failed", "file", stored, "error", err)
	}
}

func (s *DocumentService) checkFile(f UploadFile) error {
	if f.Content == nil || strings.TrimSpace(f.FileName) == "" {
		return fmt.Errorf("%w: file content is required", ErrInvalidInput)
	}
	if f.Size > s.cfg.MaxFileBytes {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidInput, f.FileName, s.cfg.MaxFileBytes)
	}
	if _, ok := s.allowed[normalizeContentType(f.ContentType)]; !ok {
		return fmt.Errorf("%w: %s has unsupported type %q", ErrInvalidInput, f.FileName, f.ContentType)
	}
	return nil
}

func normalizeContentType(v string) string {
	v, _, _ = strings.Cut(v, ";")
	return strings.ToLower(strings.TrimSpace(v))
}

func knownLabel(label string) bool {
	switch label {
	case onboarding.LabelBusinessLicense,
		onboarding.LabelEndUseCertificate,
		onboarding.LabelExportLicense,
		onboarding.LabelIdentityDocument:
		return true
	default:
		return false
	}
}
