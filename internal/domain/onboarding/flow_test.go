package onboarding

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseStepPath(t *testing.T) {
	tests := map[string]int{
		"/buyer-onboarding/step/3":   3,
		"/seller-onboarding/step/5":  5,
		"/seller-onboarding/step/2/": 2,
		"/buyer-onboarding":          1,
		"/buyer-onboarding/step/9":   1,
		"/buyer-onboarding/step/0":   1,
		"/buyer-onboarding/step/x":   1,
		"":                           1,
	}
	for path, want := range tests {
		if got := ParseStepPath(path); got != want {
			t.Fatalf("ParseStepPath(%q) = %d, want %d", path, got, want)
		}
	}
}

func TestFlowEndpoint(t *testing.T) {
	tests := []struct {
		flow Flow
		step int
		want string
	}{
		{FlowBuyer, 1, "/onboarding/step0"},
		{FlowBuyer, 4, "/onboarding/step3"},
		{FlowSeller, 1, "/onboarding/step1"},
		{FlowSeller, 2, "/onboarding/step2"},
		{FlowSeller, 4, "/onboarding/step4"},
		{FlowSeller, 5, "/onboarding/verification"},
	}
	for _, tc := range tests {
		got, err := tc.flow.Endpoint(tc.step)
		if err != nil {
			t.Fatalf("%s step %d: %v", tc.flow, tc.step, err)
		}
		if got != tc.want {
			t.Fatalf("%s step %d: got %s want %s", tc.flow, tc.step, got, tc.want)
		}
	}

	if _, err := FlowBuyer.Endpoint(5); !errors.Is(err, ErrStepOutOfRange) {
		t.Fatalf("expected buyer success view to have no endpoint, got %v", err)
	}
}

func TestStepForEndpoint_RoundTrip(t *testing.T) {
	for _, flow := range []Flow{FlowBuyer, FlowSeller} {
		for step := FirstStep; step <= FormSteps; step++ {
			endpoint, err := flow.Endpoint(step)
			if err != nil {
				t.Fatalf("endpoint: %v", err)
			}
			var index int
			if _, err := fmt.Sscanf(endpoint, "/onboarding/step%d", &index); err != nil {
				t.Fatalf("parse endpoint %s: %v", endpoint, err)
			}
			got, err := StepForEndpoint(flow.AccountType(), index)
			if err != nil {
				t.Fatalf("StepForEndpoint(%s, %d): %v", flow, index, err)
			}
			if got != step {
				t.Fatalf("%s round trip: got %d want %d", flow, got, step)
			}
		}
	}

	if _, err := StepForEndpoint(AccountTypeSeller, 0); !errors.Is(err, ErrStepOutOfRange) {
		t.Fatalf("expected seller step0 to be rejected, got %v", err)
	}
	if _, err := StepForEndpoint(AccountTypeBuyer, 4); !errors.Is(err, ErrStepOutOfRange) {
		t.Fatalf("expected buyer step4 to be rejected, got %v", err)
	}
}

func TestFlowKind(t *testing.T) {
	kind, err := FlowSeller.Kind(5)
	if err != nil || kind != StepVerification {
		t.Fatalf("expected seller step 5 verification, got %s %v", kind, err)
	}
	kind, err = FlowBuyer.Kind(1)
	if err != nil || kind != StepBuyerInfo {
		t.Fatalf("expected buyer step 1 buyer info, got %s %v", kind, err)
	}
}
