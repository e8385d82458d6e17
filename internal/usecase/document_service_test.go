package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
	"github.com/riskibarqy/armory-onboarding/internal/platform/id"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
	documentmock "github.com/riskibarqy/armory-onboarding/internal/mocks/domain/document"
	"github.com/stretchr/testify/mock"
)

type memoryStorage struct {
	files map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: make(map[string][]byte)}
}

func (s *memoryStorage) Save(_ context.Context, name string, r io.Reader) (string, int64, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	s.files[name] = raw
	return "http://files.test/files/" + name, int64(len(raw)), nil
}

func (s *memoryStorage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	raw, ok := s.files[name]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (s *memoryStorage) Remove(name string) error {
	delete(s.files, name)
	return nil
}

func pdf(name, body string) UploadFile {
	return UploadFile{FileName: name, ContentType: "application/pdf", Size: int64(len(body)), Content: strings.NewReader(body)}
}

func TestDocumentService_UploadUsingMockery(t *testing.T) {
	t.Parallel()

	repo := documentmock.NewRepository(t)
	storage := newMemoryStorage()
	svc := NewDocumentService(repo, storage, &id.Sequence{Prefix: "doc-"}, DocumentServiceConfig{}, logging.NewNop())

	repo.
		On("Create", mock.Anything, mock.MatchedBy(func(d document.Document) bool {
			return d.UserID == "seller-1" && d.Label == "export_license" && d.StoredName == "doc-1.pdf" && d.Meta == `{"step":3}`
		})).
		Return(nil).
		Once()

	docs, err := svc.Upload(context.Background(), UploadInput{
		UserID: "seller-1",
		Label:  "export_license",
		Meta:   `{"step":3}`,
		Files:  []UploadFile{pdf("Export License.PDF", "%PDF-1.7")},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(docs) != 1 || docs[0].URL != "http://files.test/files/doc-1.pdf" || docs[0].Size != 8 {
		t.Fatalf("unexpected documents: %+v", docs)
	}

	repo.On("ListByUser", mock.Anything, "seller-1").Return(docs, nil).Once()
	rc, err := svc.Open(context.Background(), "seller-1", "doc-1.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	if raw, _ := io.ReadAll(rc); string(raw) != "%PDF-1.7" {
		t.Fatalf("unexpected stored content: %q", raw)
	}
}

func TestDocumentService_RejectsBeforeWriting(t *testing.T) {
	t.Parallel()

	repo := documentmock.NewRepository(t)
	storage := newMemoryStorage()
	svc := NewDocumentService(repo, storage, nil, DocumentServiceConfig{MaxFileBytes: 4, MaxFiles: 2}, logging.NewNop())
	ctx := context.Background()

	cases := []struct {
		name  string
		input UploadInput
	}{
		{"unknown label", UploadInput{UserID: "u", Label: "selfie", Files: []UploadFile{pdf("a.pdf", "x")}}},
		{"no files", UploadInput{UserID: "u", Label: "business_license"}},
		{"too many files", UploadInput{UserID: "u", Label: "business_license", Files: []UploadFile{pdf("a.pdf", "x"), pdf("b.pdf", "x"), pdf("c.pdf", "x")}}},
		{"too large", UploadInput{UserID: "u", Label: "business_license", Files: []UploadFile{pdf("a.pdf", "x"), pdf("b.pdf", "12345")}}},
		{"bad type", UploadInput{UserID: "u", Label: "business_license", Files: []UploadFile{{FileName: "a.exe", ContentType: "application/x-msdownload", Content: strings.NewReader("MZ")}}}},
	}
	for _, tc := range cases {
		if _, err := svc.Upload(ctx, tc.input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
	if len(storage.files) != 0 {
		t.Fatalf("expected nothing stored, got %d files", len(storage.files))
	}

	if _, err := svc.Open(ctx, "u", "../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected traversal to be refused, got %v", err)
	}
}

func TestDocumentService_UnderreportedSizeIsCaught(t *testing.T) {
	t.Parallel()

	repo := documentmock.NewRepository(t)
	storage := newMemoryStorage()
	svc := NewDocumentService(repo, storage, nil, DocumentServiceConfig{MaxFileBytes: 4}, logging.NewNop())

	file := UploadFile{FileName: "a.png", ContentType: "image/png", Size: 1, Content: strings.NewReader("123456789")}
	if _, err := svc.Upload(context.Background(), UploadInput{UserID: "u", Label: "identity_document", Files: []UploadFile{file}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(storage.files) != 0 {
		t.Fatalf("expected oversized file to be discarded, found %d", len(storage.files))
	}
}

func TestDocumentService_OpenIsLimitedToOwner(t *testing.T) {
	t.Parallel()

	repo := documentmock.NewRepository(t)
	storage := newMemoryStorage()
	storage.files["doc-1.pdf"] = []byte("%PDF")
	svc := NewDocumentService(repo, storage, nil, DocumentServiceConfig{}, logging.NewNop())
	ctx := context.Background()

	repo.On("ListByUser", mock.Anything, "seller-2").Return([]document.Document{{UserID: "seller-2", StoredName: "doc-9.pdf"}}, nil).Once()
	if _, err := svc.Open(ctx, "seller-2", "doc-1.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user's file, got %v", err)
	}

	if _, err := svc.Open(ctx, "", "doc-1.pdf"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without a user, got %v", err)
	}
}
