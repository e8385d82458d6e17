package onboarding

import (
	"errors"
	"testing"
)

func TestDecodeProfile_StepAliases(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantKnown bool
		wantStep  *int
	}{
		{
			name:      "snake case on user",
			raw:       `{"data":{"profile":{"company_name":"Arma"},"user":{"onboarding_step":3}}}`,
			wantKnown: true,
			wantStep:  intPtr(3),
		},
		{
			name:      "camel case on profile",
			raw:       `{"data":{"profile":{"onboardingStep":2},"user":{}}}`,
			wantKnown: true,
			wantStep:  intPtr(2),
		},
		{
			name:      "current_step string",
			raw:       `{"data":{"profile":{"current_step":"4"}}}`,
			wantKnown: true,
			wantStep:  intPtr(4),
		},
		{
			name:      "explicit null means complete",
			raw:       `{"data":{"profile":{"current_step":2},"user":{"onboarding_step":null}}}`,
			wantKnown: true,
			wantStep:  nil,
		},
		{
			name:      "absent on every alias",
			raw:       `{"data":{"profile":{"company_name":"Arma"},"user":{"email":"a@b.co"}}}`,
			wantKnown: false,
			wantStep:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := DecodeProfile([]byte(tc.raw))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if p.StepKnown != tc.wantKnown {
				t.Fatalf("StepKnown = %v, want %v", p.StepKnown, tc.wantKnown)
			}
			switch {
			case tc.wantStep == nil && p.OnboardingStep != nil:
				t.Fatalf("expected nil step, got %d", *p.OnboardingStep)
			case tc.wantStep != nil && (p.OnboardingStep == nil || *p.OnboardingStep != *tc.wantStep):
				t.Fatalf("expected step %d, got %v", *tc.wantStep, p.OnboardingStep)
			}
		})
	}
}

func TestDecodeProfile_UserOverridesProfile(t *testing.T) {
	raw := `{"data":{"profile":{"company_name":"Arma","onboarding_status":"normal","categories":["optics"]},` +
		`"user":{"user_id":"u-1","account_type":"seller","onboarding_status":"update_needed","rejection_reason":"tax id"}}}`

	p, err := DecodeProfile([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Status != StatusUpdateNeeded {
		t.Fatalf("expected user status to win, got %s", p.Status)
	}
	if p.CompanyName != "Arma" || p.UserID != "u-1" || p.AccountType != AccountTypeSeller {
		t.Fatalf("unexpected merged profile: %+v", p)
	}
	if len(p.Categories) != 1 || p.Categories[0] != "optics" {
		t.Fatalf("unexpected categories: %v", p.Categories)
	}
}

func TestDecodeProfile_Malformed(t *testing.T) {
	for _, raw := range []string{`not json`, `{"data":[1,2]}`, `{"data":{"profile":{"onboarding_step":"abc"}}}`} {
		if _, err := DecodeProfile([]byte(raw)); !errors.Is(err, ErrMalformedProfile) {
			t.Fatalf("DecodeProfile(%s): expected ErrMalformedProfile, got %v", raw, err)
		}
	}
}

func TestProfileAllowedStep(t *testing.T) {
	p := NewProfile("u-1", AccountTypeBuyer, fixedNow)
	if step, ok := p.AllowedStep(); !ok || step != 1 {
		t.Fatalf("expected new profile at step 1, got %d %v", step, ok)
	}

	p.SetStep(nil)
	if !p.Complete() {
		t.Fatalf("expected nil step to mark completion")
	}
	if _, ok := p.AllowedStep(); ok {
		t.Fatalf("complete profile has no allowed step")
	}

	var unknown Profile
	if unknown.Complete() {
		t.Fatalf("profile without step information must not be treated as complete")
	}
}

func intPtr(v int) *int { return &v }
