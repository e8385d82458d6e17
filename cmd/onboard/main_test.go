package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/localstore"
	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/storefront"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
	"github.com/riskibarqy/armory-onboarding/internal/wizard"
)

type fakeStorefront struct {
	mu      sync.Mutex
	profile string
	state   string
	posts   []string
}

func (f *fakeStorefront) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/onboarding/profile":
		_, _ = io.WriteString(w, f.profile)
	case r.URL.Path == "/onboarding/verification":
		if r.Method == http.MethodPost {
			raw, _ := io.ReadAll(r.Body)
			f.posts = append(f.posts, r.URL.Path)
			switch gjson.GetBytes(raw, "event").String() {
			case "continue":
				f.state = "bank-pending"
			case "back":
				f.state = "payment-method"
			}
		}
		_, _ = io.WriteString(w, `{"status":"success","data":{"state":"`+f.state+`","allowedEvents":["continue","back"]}}`)
	case r.Method == http.MethodPost:
		f.posts = append(f.posts, r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"success","message":"saved"}`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeStorefront) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func newTestSession(t *testing.T, profile string) (*fakeStorefront, sessionOpener) {
	t.Helper()
	fake := &fakeStorefront{profile: profile, state: "payment-method"}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store := localstore.NewMemory()
	open := func() (*session, error) {
		return &session{
			backend: storefront.NewClient(storefront.Config{BaseURL: srv.URL, Token: "t", Logger: logging.NewNop()}),
			store:   store,
			logger:  logging.NewNop(),
			close:   func() error { return nil },
		}, nil
	}
	return fake, open
}

func run(t *testing.T, open sessionOpener, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const sellerAtStep2 = `{"status":"success","data":{"profile":{"user_id":"s-1","account_type":"seller","onboarding_step":2,"onboarding_status":"normal"}}}`

func TestRoute_RedirectsForwardSkip(t *testing.T) {
	_, open := newTestSession(t, sellerAtStep2)

	out, err := run(t, open, "", "route", "/seller-onboarding/step/4")
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	var got map[string]any
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if got["action"] != "redirect" || got["location"] != "/seller-onboarding/step/2" {
		t.Fatalf("unexpected decision: %v", got)
	}
}

func TestProfile_PrintsStep(t *testing.T) {
	_, open := newTestSession(t, sellerAtStep2)

	out, err := run(t, open, "", "profile")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !strings.Contains(out, "onboarding_step: 2") || !strings.Contains(out, "account_type: seller") {
		t.Fatalf("unexpected profile output:\n%s", out)
	}
}

func TestSubmit_InvalidFormNeverPosts(t *testing.T) {
	fake, open := newTestSession(t, `{"status":"success","data":{"profile":{"user_id":"b-1","account_type":"buyer","onboarding_step":1}}}`)

	data := filepath.Join(t.TempDir(), "info.yaml")
	if err := os.WriteFile(data, []byte("companyName: Acme\n"), 0o600); err != nil {
		t.Fatalf("write data: %v", err)
	}

	_, err := run(t, open, "", "submit", "--step", "1", "--data", data)
	if err == nil || !strings.Contains(err.Error(), "is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fake.postCount() != 0 {
		t.Fatalf("expected no POST, got %d", fake.postCount())
	}
}

func TestSubmit_ContactStepMovesOn(t *testing.T) {
	fake, open := newTestSession(t, sellerAtStep2)

	out, err := run(t, open, "contactFullName: Jane Doe\ncontactEmail: jane@example.com\ncontactMobile: \"+4915112345678\"\ntermsAccepted: true\n",
		"submit", "--step", "2", "--data", "-")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(out, "next: /seller-onboarding/step/3") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if fake.postCount() != 1 {
		t.Fatalf("expected one POST, got %d", fake.postCount())
	}
}

func TestVerification_ContinuePersistsState(t *testing.T) {
	_, open := newTestSession(t, sellerAtStep2)

	out, err := run(t, open, "paymentMethod: bank_transfer\n", "verification", "continue", "--data", "-")
	if err != nil {
		t.Fatalf("continue: %v", err)
	}
	if !strings.Contains(out, "state: bank-pending") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = run(t, open, "", "verification", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "local_state: bank-pending") {
		t.Fatalf("state was not restored:\n%s", out)
	}
}

func TestVerification_SubmitOutsideIdentityFails(t *testing.T) {
	fake, open := newTestSession(t, sellerAtStep2)

	if _, err := run(t, open, "", "verification", "submit", "--yes"); err == nil {
		t.Fatalf("expected submit from payment-method to fail")
	}
	if fake.postCount() != 0 {
		t.Fatalf("expected no POST, got %d", fake.postCount())
	}
}

func TestPromptConfirmer(t *testing.T) {
	var prompt bytes.Buffer
	c := promptConfirmer(strings.NewReader("yes\n"), &prompt)
	if !c.Confirm(context.Background(), wizard.SubmitConfirmPrompt) {
		t.Fatalf("expected yes to confirm")
	}
	if !strings.Contains(prompt.String(), "[y/N]") {
		t.Fatalf("prompt not written: %q", prompt.String())
	}
	if promptConfirmer(strings.NewReader(""), io.Discard).Confirm(context.Background(), "x") {
		t.Fatalf("expected empty input to decline")
	}
}
