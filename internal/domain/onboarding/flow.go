package onboarding

import (
	"fmt"
	"regexp"
	"strconv"
)

type Flow string

const (
	FlowBuyer  Flow = "buyer"
	FlowSeller Flow = "seller"
)

const (
	FirstStep = 1
	// FinalStep is the completion view for buyers and the verification view for sellers.
	FinalStep = 5
	FormSteps = 4

	HomePath = "/"
)

func ParseFlow(v string) (Flow, error) {
	switch Flow(v) {
	case FlowBuyer, FlowSeller:
		return Flow(v), nil
	default:
		return "", fmt.Errorf("%w: flow %q", ErrUnknownAccountType, v)
	}
}

func (f Flow) AccountType() AccountType {
	if f == FlowSeller {
		return AccountTypeSeller
	}
	return AccountTypeBuyer
}

func (f Flow) StepPath(step int) string {
	return "/" + string(f) + "-onboarding/step/" + strconv.Itoa(step)
}

var stepSegment = regexp.MustCompile(`/step/(\d+)(?:/|$)`)

// ParseStepPath extracts the step number from a route path. Missing or out of range
// segments resolve to the first step.
func ParseStepPath(path string) int {
	m := stepSegment.FindStringSubmatch(path)
	if m == nil {
		return FirstStep
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < FirstStep || n > FinalStep {
		return FirstStep
	}
	return n
}

type StepKind string

const (
	StepBuyerInfo          StepKind = "buyer_info"
	StepSellerInformation  StepKind = "seller_information"
	StepContactPerson      StepKind = "contact_person"
	StepDeclaration        StepKind = "declaration"
	StepAccountSetup       StepKind = "account_setup"
	StepAccountPreferences StepKind = "account_preferences"
	StepVerification       StepKind = "verification"
	StepSuccess            StepKind = "success"
)

var stepKinds = map[Flow][FinalStep]StepKind{
	FlowBuyer:  {StepBuyerInfo, StepContactPerson, StepDeclaration, StepAccountSetup, StepSuccess},
	FlowSeller: {StepSellerInformation, StepContactPerson, StepDeclaration, StepAccountPreferences, StepVerification},
}

func (f Flow) Kind(step int) (StepKind, error) {
	kinds, ok := stepKinds[f]
	if !ok {
		return "", fmt.Errorf("%w: flow %q", ErrUnknownAccountType, f)
	}
	if step < FirstStep || step > FinalStep {
		return "", fmt.Errorf("%w: %d", ErrStepOutOfRange, step)
	}
	return kinds[step-1], nil
}

// Endpoint returns the backend path that accepts the given wizard step. Buyer endpoints
// are zero based, seller endpoints one based.
func (f Flow) Endpoint(step int) (string, error) {
	switch {
	case step >= FirstStep && step <= FormSteps && f == FlowBuyer:
		return "/onboarding/step" + strconv.Itoa(step-1), nil
	case step >= FirstStep && step <= FormSteps && f == FlowSeller:
		return "/onboarding/step" + strconv.Itoa(step), nil
	case step == FinalStep && f == FlowSeller:
		return VerificationEndpoint, nil
	default:
		return "", fmt.Errorf("%w: %s step %d has no endpoint", ErrStepOutOfRange, f, step)
	}
}

const VerificationEndpoint = "/onboarding/verification"

// StepForEndpoint maps the numeric suffix of /onboarding/step{N} back to a wizard step.
func StepForEndpoint(accountType AccountType, index int) (int, error) {
	switch accountType {
	case AccountTypeBuyer:
		if index < 0 || index > FormSteps-1 {
			return 0, fmt.Errorf("%w: buyer endpoint step%d", ErrStepOutOfRange, index)
		}
		return index + 1, nil
	case AccountTypeSeller:
		if index < 1 || index > FormSteps {
			return 0, fmt.Errorf("%w: seller endpoint step%d", ErrStepOutOfRange, index)
		}
		return index, nil
	default:
		return 0, ErrUnknownAccountType
	}
}
