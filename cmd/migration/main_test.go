package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

func TestParseSteps(t *testing.T) {
	tests := []struct {
		args    []string
		want    int
		wantErr bool
	}{
		{nil, 1, false},
		{[]string{"3"}, 3, false},
		{[]string{"0"}, 0, true},
		{[]string{"x"}, 0, true},
	}
	for _, tt := range tests {
		got, err := parseSteps(tt.args)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("parseSteps(%v)=%d,%v want %d wantErr=%v", tt.args, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestResolveMigrationsDir(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveMigrationsDir(dir)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != dir {
		t.Fatalf("expected %q, got %q", dir, got)
	}

	missing := filepath.Join(dir, "missing")
	wd, _ := os.Getwd()
	if _, err := os.Stat(filepath.Join(wd, "db", "migrations")); err == nil {
		t.Skip("working directory has db/migrations")
	}
	if _, err := resolveMigrationsDir(missing); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func TestRootCommand_RequiresDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")
	cmd := newRootCommand(logging.NewNop())
	cmd.SetArgs([]string{"version"})
	cmd.SetOut(os.Stderr)
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error without DB_URL")
	}
}
