package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

type flakySanctionsList struct {
	calls atomic.Int32
	fail  string
}

func (l *flakySanctionsList) Lookup(_ context.Context, code string) (string, bool, error) {
	l.calls.Add(1)
	if code == l.fail {
		return "", false, errors.New("list service timeout")
	}
	return "", false, nil
}

func TestNewStaticSanctionsList(t *testing.T) {
	list := NewStaticSanctionsList([]string{" ir : comprehensive ", "kp", "", ":x"})
	if len(list) != 2 || list["IR"] != "comprehensive" || list["KP"] != "embargo" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestScreeningService_DeduplicatesAndSorts(t *testing.T) {
	list := NewStaticSanctionsList([]string{"SY", "IR"})
	svc := NewScreeningService(list, 3, logging.NewNop())

	res, err := svc.Screen(context.Background(), []string{"sy", "AE", "ir", " SY ", ""})
	if err != nil {
		t.Fatalf("screen: %v", err)
	}
	if len(res.Hits) != 2 || res.Hits[0].Country != "IR" || res.Hits[1].Country != "SY" {
		t.Fatalf("unexpected hits: %+v", res.Hits)
	}
	if res.Clean() {
		t.Fatalf("expected dirty result")
	}

	empty, err := svc.Screen(context.Background(), nil)
	if err != nil || !empty.Clean() || empty.Reason() != "" {
		t.Fatalf("expected clean empty screening, got %+v err=%v", empty, err)
	}
}

func TestScreeningService_LookupErrorFailsClosed(t *testing.T) {
	list := &flakySanctionsList{fail: "QA"}
	svc := NewScreeningService(list, 2, logging.NewNop())

	_, err := svc.Screen(context.Background(), []string{"AE", "QA", "OM", "qa"})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if got := list.calls.Load(); got != 3 {
		t.Fatalf("expected one lookup per distinct country, got %d", got)
	}
}
