package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "same-key", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")

func TestStore_Get_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewStore(30 * time.Second)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "profile:user-1", "cached")
	if _, ok := store.Get(context.Background(), "profile:user-1"); !ok {
		t.Fatalf("expected fresh entry to be returned")
	}

	now = now.Add(31 * time.Second)
	if _, ok := store.Get(context.Background(), "profile:user-1"); ok {
		t.Fatalf("expected entry to expire after ttl")
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	ctx := context.Background()
	store.Set(ctx, "profile:user-1", 1)
	store.Set(ctx, "profile:user-2", 2)
	store.Set(ctx, "countries:all", 3)

	store.DeletePrefix(ctx, "profile:")

	if _, ok := store.Get(ctx, "profile:user-1"); ok {
		t.Fatalf("expected profile:user-1 to be deleted")
	}
	if _, ok := store.Get(ctx, "countries:all"); !ok {
		t.Fatalf("expected countries:all to survive prefix delete")
	}
}

func TestLoad_TypedValue(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	got, err := Load(context.Background(), store, "countries:all", func(context.Context) ([]string, error) {
		return []string{"AE", "DE"}, nil
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0] != "AE" {
		t.Fatalf("unexpected loaded value: %v", got)
	}

	store.Set(context.Background(), "countries:all", 42)
	if _, err := Load(context.Background(), store, "countries:all", func(context.Context) ([]string, error) {
		return nil, nil
	}); err == nil {
		t.Fatalf("expected type mismatch error")
	}
}
