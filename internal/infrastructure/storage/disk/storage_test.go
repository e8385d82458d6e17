package disk

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riskibarqy/armory-onboarding/internal/usecase"
)

func TestStorage_SaveAndOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(dir, "https://onboarding.example.com/")
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	url, size, err := store.Save(context.Background(), "doc-1.pdf", strings.NewReader("%PDF-1.7"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if url != "https://onboarding.example.com/files/doc-1.pdf" || size != 8 {
		t.Fatalf("unexpected save result: %s %d", url, size)
	}

	rc, err := store.Open(context.Background(), "doc-1.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	raw, _ := io.ReadAll(rc)
	if string(raw) != "%PDF-1.7" {
		t.Fatalf("unexpected content: %q", raw)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestStorage_RejectsTraversalAndMissing(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	if _, _, err := store.Save(context.Background(), "../escape.pdf", strings.NewReader("x")); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for traversal, got %v", err)
	}
	for _, name := range []string{"missing.pdf", filepath.Join("..", "etc", "passwd"), ".upload-123"} {
		if _, err := store.Open(context.Background(), name); !errors.Is(err, usecase.ErrNotFound) {
			t.Fatalf("Open(%q): expected ErrNotFound, got %v", name, err)
		}
	}
	if err := store.Remove("missing.pdf"); err != nil {
		t.Fatalf("remove missing: %v", err)
	}
}
