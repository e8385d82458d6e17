package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/armory-onboarding/internal/config"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

func memoryConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		AppEnv:                    config.EnvDev,
		ServiceName:               "armory-onboarding-api",
		HTTPAddr:                  "127.0.0.1:0",
		PublicBaseURL:             "http://localhost:8080",
		StorageDir:                t.TempDir(),
		CacheEnabled:              true,
		CacheTTL:                  time.Minute,
		CORSAllowedOrigins:        []string{"*"},
		AnubisBaseURL:             "http://127.0.0.1:1",
		AnubisIntrospectURL:       "/v1/auth/introspect",
		AnubisTimeout:             time.Second,
		UploadMaxFileBytes:        1 << 20,
		UploadMaxFiles:            2,
		UploadAllowedContentTypes: []string{"application/pdf"},
		ScreeningWorkers:          2,
		RateLimitPerSecond:        1,
		RateLimitBurst:            1,
	}
}

func TestNew_MemoryBackendServesReferences(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(t), logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/references/end-user-type", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/onboarding/profile", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.HTTPAddr = ""
	if _, err := New(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(t), logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}
