package localstore

import (
	"context"
	"path/filepath"
	"testing"
)

type kvStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

func exerciseStore(t *testing.T, s kvStore) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "seller_verification_state"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "seller_verification_state", "bank-pending"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "seller_verification_state", "payment-info"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, ok, err := s.Get(ctx, "seller_verification_state"); err != nil || !ok || v != "payment-info" {
		t.Fatalf("unexpected value %q ok=%v err=%v", v, ok, err)
	}
	if err := s.Delete(ctx, "seller_verification_state"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "seller_verification_state"); ok {
		t.Fatalf("expected key to be deleted")
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "wizard.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	exerciseStore(t, s)

	if err := s.Set(context.Background(), "seller_verification_state", "identity"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if v, ok, err := reopened.Get(context.Background(), "seller_verification_state"); err != nil || !ok || v != "identity" {
		t.Fatalf("expected value to survive reopen, got %q ok=%v err=%v", v, ok, err)
	}
}
