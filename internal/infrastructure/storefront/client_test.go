package storefront

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	jsoniter "github.com/json-iterator/go"

	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
	"github.com/riskibarqy/armory-onboarding/internal/platform/resilience"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{HTTPClient: srv.Client(), BaseURL: srv.URL, Token: "tok", Logger: logging.NewNop()})
}

func TestClient_GetProfileMergesUserOverProfile(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ProfilePath || r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("unexpected request %s auth=%q", r.URL.Path, r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{
			"profile":{"company_name":"Falcon","onboardingStep":2,"onboarding_status":"normal"},
			"user":{"user_id":"buyer-1","account_type":"buyer","company_name":"Falcon LLC"}}}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv).GetProfile(context.Background())
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if got.CompanyName != "Falcon LLC" || got.UserID != "buyer-1" {
		t.Fatalf("expected user fields to win, got %+v", got)
	}
	if step, ok := got.AllowedStep(); !ok || step != 2 {
		t.Fatalf("expected aliased step 2, got %d ok=%v", step, ok)
	}
}

func TestClient_SubmitStepSurfacesServerMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = jsoniter.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path == "/onboarding/step1" && body["contactFullName"] == "Lina" {
			_, _ = w.Write([]byte(`{"status":"success","message":"step saved"}`))
			return
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"status":"error","message":"complete step 1 first"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	msg, err := client.SubmitStep(context.Background(), "/onboarding/step1", map[string]any{"contactFullName": "Lina"})
	if err != nil || msg != "step saved" {
		t.Fatalf("unexpected submit result: %q %v", msg, err)
	}

	_, err = client.SubmitStep(context.Background(), "/onboarding/step3", map[string]any{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict || apiErr.Message != "complete step 1 first" {
		t.Fatalf("expected APIError with server message, got %#v", err)
	}
}

func TestClient_ErrorStatusInSuccessfulResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":false,"message":"tax id already registered"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).SubmitStep(context.Background(), "/onboarding/step0", map[string]any{})
	if err == nil || err.Error() != "tax id already registered" {
		t.Fatalf("expected envelope failure message, got %v", err)
	}
}

func TestClient_UploadFilesBuildsMultipart(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("label") != onboarding.LabelBusinessLicense || r.FormValue("data") != `{"step":1}` {
			t.Errorf("unexpected fields label=%q data=%q", r.FormValue("label"), r.FormValue("data"))
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 1 || files[0].Filename != "license.pdf" {
			t.Errorf("unexpected files: %+v", files)
			return
		}
		f, _ := files[0].Open()
		raw, _ := io.ReadAll(f)
		if string(raw) != "%PDF" {
			t.Errorf("unexpected content: %q", raw)
		}
		_, _ = w.Write([]byte(`{"status":"success","data":["https://files.example.com/files/doc-1.pdf"]}`))
	}))
	defer srv.Close()

	urls, err := newTestClient(srv).UploadFiles(context.Background(), onboarding.LabelBusinessLicense, map[string]int{"step": 1}, []document.File{
		{Name: "/tmp/license.pdf", ContentType: "application/pdf", Content: strings.NewReader("%PDF")},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://files.example.com/files/doc-1.pdf" {
		t.Fatalf("unexpected urls: %v", urls)
	}
}

func TestClient_UploadWithoutURLsIsRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).UploadFiles(context.Background(), "export_license", nil, []document.File{{Name: "a.pdf", Content: strings.NewReader("x")}})
	if !errors.Is(err, ErrUploadRejected) {
		t.Fatalf("expected ErrUploadRejected, got %v", err)
	}
}

func TestClient_ReferencesAndVerification(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/references/type-of-buyer":
			_, _ = w.Write([]byte(`{"status":"success","data":[{"id":"government-agency","name":"Government agency"}]}`))
		case r.URL.Path == onboarding.VerificationEndpoint && r.Method == http.MethodPost:
			var body transitionRequest
			_ = jsoniter.NewDecoder(r.Body).Decode(&body)
			if body.Event != verification.EventContinue || body.Data.IBAN != "GB82WEST12345698765432" {
				t.Errorf("unexpected transition body: %+v", body)
			}
			_, _ = w.Write([]byte(`{"status":"success","data":{"state":"bank-pending","bankStatus":"pending","allowedEvents":["continue","back"]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv)
	items, err := client.ListReferences(context.Background(), reference.KindTypeOfBuyer)
	if err != nil || len(items) != 1 || items[0].ID != "government-agency" {
		t.Fatalf("unexpected references: %+v %v", items, err)
	}

	snap, err := client.TransitionVerification(context.Background(), verification.EventContinue, verification.Data{IBAN: "GB82WEST12345698765432"})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if snap.State != verification.StateBankPending || snap.BankStatus != verification.BankStatusPending {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestClient_ServerErrorsOpenCircuit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1},
	})

	if _, err := client.GetProfile(context.Background()); err == nil {
		t.Fatalf("expected first call to fail")
	}
	if _, err := client.GetProfile(context.Background()); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}
}
